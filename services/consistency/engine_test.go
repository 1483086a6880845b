package consistency

import (
	"context"
	"database/sql"
	"fmt"
	"medharvest-backend/lib/telemetry"
	"medharvest-backend/services/tenantstore"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setup(t testing.TB) (Engine, *tenantstore.Store, func()) {
	cleanup := telemetry.SetupForTesting(t, "test:services/consistency")

	registry, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	store, err := tenantstore.NewStore(registry, "")
	if err != nil {
		t.Fatal(err)
	}
	return NewEngine(store), store, func() {
		store.Close()
		registry.Close()
		cleanup()
	}
}

func date(value string) time.Time {
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		panic(err)
	}
	return parsed
}

var testScope = Scope{
	ContentFilter: "aspirin",
	StartDate:     date("2020-01-01"),
	StopDate:      date("2020-06-30"),
}

func testUnit(id string) Unit {
	return Unit{
		ExternalID:  id,
		TransientID: "session-" + id,
		DisplayName: "Patient " + id,
		Descriptive: map[string]any{"ward": "3b"},
	}
}

func testRecord(id, dose string) map[string]any {
	return map[string]any{
		"name":        "Patient " + id,
		"medication":  "aspirin",
		"dose":        dose,
		"internal_id": "volatile-" + id,
	}
}

func activeRecordCount(t *testing.T, store *tenantstore.Store, tenant string) int64 {
	handle, err := store.Resolve(context.Background(), tenant)
	require.NoError(t, err)
	count, err := handle.Qry.CountActiveConsolidatedRecords(context.Background())
	require.NoError(t, err)
	return count
}

func TestAllUnitsNovel(t *testing.T) {
	engine, store, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()
	for _, id := range []string{"p1", "p2", "p3"} {
		res, err := engine.Ingest(ctx, "Stanford Health", testUnit(id), "job-1", testScope, testRecord(id, "100mg"))
		require.NoError(t, err)
		require.Equal(t, OutcomeNew, res.Outcome)
	}

	require.EqualValues(t, 3, activeRecordCount(t, store, "Stanford Health"))
}

func TestIdenticalRerunIsDuplicate(t *testing.T) {
	engine, store, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()
	for _, id := range []string{"p1", "p2", "p3"} {
		_, err := engine.Ingest(ctx, "Stanford Health", testUnit(id), "job-1", testScope, testRecord(id, "100mg"))
		require.NoError(t, err)
	}
	for _, id := range []string{"p1", "p2", "p3"} {
		res, err := engine.Ingest(ctx, "Stanford Health", testUnit(id), "job-2", testScope, testRecord(id, "100mg"))
		require.NoError(t, err)
		require.Equal(t, OutcomeDuplicate, res.Outcome)
	}

	require.EqualValues(t, 3, activeRecordCount(t, store, "Stanford Health"))

	handle, err := store.Resolve(ctx, "Stanford Health")
	require.NoError(t, err)
	conflicts, err := handle.Qry.ListUnresolvedConflicts(ctx)
	require.NoError(t, err)
	require.Empty(t, conflicts)
}

func TestChangedContentIsConflict(t *testing.T) {
	engine, store, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()
	for _, id := range []string{"p1", "p2", "p3"} {
		_, err := engine.Ingest(ctx, "Stanford Health", testUnit(id), "job-1", testScope, testRecord(id, "100mg"))
		require.NoError(t, err)
	}

	outcomes := map[Outcome]int{}
	for _, id := range []string{"p1", "p2", "p3"} {
		dose := "100mg"
		if id == "p2" {
			dose = "200mg"
		}
		res, err := engine.Ingest(ctx, "Stanford Health", testUnit(id), "job-2", testScope, testRecord(id, dose))
		require.NoError(t, err)
		outcomes[res.Outcome]++
	}
	require.Equal(t, 2, outcomes[OutcomeDuplicate])
	require.Equal(t, 1, outcomes[OutcomeConflict])

	handle, err := store.Resolve(ctx, "Stanford Health")
	require.NoError(t, err)

	records, err := handle.Qry.ListConsolidatedRecordsForUnit(ctx, "p2")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "conflict", records[0].RecordStatus)
	require.Equal(t, "conflict", records[1].RecordStatus)

	conflicts, err := handle.Qry.ListUnresolvedConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	require.Equal(t, "job-1", conflicts[0].PriorJobID)
	require.Equal(t, "job-2", conflicts[0].CurrentJobID)
	require.NotEqual(t, conflicts[0].PriorChecksum, conflicts[0].CurrentChecksum)
}

func TestIngestIdempotence(t *testing.T) {
	engine, store, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()
	first, err := engine.Ingest(ctx, "Stanford Health", testUnit("p1"), "job-1", testScope, testRecord("p1", "100mg"))
	require.NoError(t, err)
	require.Equal(t, OutcomeNew, first.Outcome)

	second, err := engine.Ingest(ctx, "Stanford Health", testUnit("p1"), "job-1", testScope, testRecord("p1", "100mg"))
	require.NoError(t, err)
	require.Equal(t, OutcomeDuplicate, second.Outcome)
	require.Equal(t, first.Checksum, second.Checksum)

	require.EqualValues(t, 1, activeRecordCount(t, store, "Stanford Health"))
}

func TestVolatileFieldsDoNotAffectOutcome(t *testing.T) {
	engine, _, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()
	record := testRecord("p1", "100mg")
	_, err := engine.Ingest(ctx, "Stanford Health", testUnit("p1"), "job-1", testScope, record)
	require.NoError(t, err)

	record["internal_id"] = "volatile-different"
	res, err := engine.Ingest(ctx, "Stanford Health", testUnit("p1"), "job-2", testScope, record)
	require.NoError(t, err)
	require.Equal(t, OutcomeDuplicate, res.Outcome)
}

func TestSharedEndpointCountsAsOverlap(t *testing.T) {
	engine, _, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()
	_, err := engine.Ingest(ctx, "Stanford Health", testUnit("p1"), "job-1", Scope{
		ContentFilter: "aspirin",
		StartDate:     date("2020-01-01"),
		StopDate:      date("2020-06-30"),
	}, testRecord("p1", "100mg"))
	require.NoError(t, err)

	// second window starts exactly where the first stops: still an overlap,
	// and the differing content is a conflict
	res, err := engine.Ingest(ctx, "Stanford Health", testUnit("p1"), "job-2", Scope{
		ContentFilter: "aspirin",
		StartDate:     date("2020-06-30"),
		StopDate:      date("2020-12-31"),
	}, testRecord("p1", "200mg"))
	require.NoError(t, err)
	require.Equal(t, OutcomeConflict, res.Outcome)
}

func TestDisjointWindowsDoNotCollide(t *testing.T) {
	engine, store, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()
	_, err := engine.Ingest(ctx, "Stanford Health", testUnit("p1"), "job-1", Scope{
		ContentFilter: "aspirin",
		StartDate:     date("2020-01-01"),
		StopDate:      date("2020-06-30"),
	}, testRecord("p1", "100mg"))
	require.NoError(t, err)

	res, err := engine.Ingest(ctx, "Stanford Health", testUnit("p1"), "job-2", Scope{
		ContentFilter: "aspirin",
		StartDate:     date("2020-07-01"),
		StopDate:      date("2020-12-31"),
	}, testRecord("p1", "200mg"))
	require.NoError(t, err)
	require.Equal(t, OutcomeNew, res.Outcome)

	require.EqualValues(t, 2, activeRecordCount(t, store, "Stanford Health"))
}

func TestBroaderWindowSupersedes(t *testing.T) {
	engine, store, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()
	_, err := engine.Ingest(ctx, "Stanford Health", testUnit("p1"), "job-1", Scope{
		ContentFilter: "aspirin",
		StartDate:     date("2020-03-01"),
		StopDate:      date("2020-03-31"),
	}, testRecord("p1", "100mg"))
	require.NoError(t, err)

	res, err := engine.Ingest(ctx, "Stanford Health", testUnit("p1"), "job-2", Scope{
		ContentFilter: "aspirin",
		StartDate:     date("2020-01-01"),
		StopDate:      date("2020-12-31"),
	}, testRecord("p1", "150mg"))
	require.NoError(t, err)
	require.Equal(t, OutcomeSuperseded, res.Outcome)

	handle, err := store.Resolve(ctx, "Stanford Health")
	require.NoError(t, err)
	records, err := handle.Qry.ListConsolidatedRecordsForUnit(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "superseded", records[0].RecordStatus)
	require.Equal(t, "active", records[1].RecordStatus)

	// the prior record is preserved for audit, not deleted
	require.EqualValues(t, 1, activeRecordCount(t, store, "Stanford Health"))
}

func TestWildcardFilterMatchesAnyFilter(t *testing.T) {
	engine, _, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()
	_, err := engine.Ingest(ctx, "Stanford Health", testUnit("p1"), "job-1", Scope{
		ContentFilter: "aspirin",
		StartDate:     date("2020-01-01"),
		StopDate:      date("2020-06-30"),
	}, testRecord("p1", "100mg"))
	require.NoError(t, err)

	res, err := engine.Ingest(ctx, "Stanford Health", testUnit("p1"), "job-2", Scope{
		ContentFilter: FilterAll,
		StartDate:     date("2020-01-01"),
		StopDate:      date("2020-06-30"),
	}, testRecord("p1", "200mg"))
	require.NoError(t, err)
	require.Equal(t, OutcomeConflict, res.Outcome)
}

func TestTenantsAreIsolated(t *testing.T) {
	engine, store, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()
	_, err := engine.Ingest(ctx, "Stanford Health", testUnit("p1"), "job-1", testScope, testRecord("p1", "100mg"))
	require.NoError(t, err)

	// same unit and scope under a different tenant is new, not duplicate
	res, err := engine.Ingest(ctx, "Kaiser Permanente", testUnit("p1"), "job-2", testScope, testRecord("p1", "100mg"))
	require.NoError(t, err)
	require.Equal(t, OutcomeNew, res.Outcome)

	require.EqualValues(t, 1, activeRecordCount(t, store, "Stanford Health"))
	require.EqualValues(t, 1, activeRecordCount(t, store, "Kaiser Permanente"))
}

func TestConcurrentIngestForOneTenant(t *testing.T) {
	engine, store, cleanup := setup(t)
	defer cleanup()

	concurrentIngest(t, engine, store)
}

func TestConcurrentIngestOnFileBackedTenant(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/consistency")
	defer cleanup()

	registry, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer registry.Close()
	store, err := tenantstore.NewStore(registry, t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	concurrentIngest(t, NewEngine(store), store)
}

// concurrentIngest hammers one tenant from several goroutines at once, each
// writing its own units, and expects every call to commit.
func concurrentIngest(t *testing.T, engine Engine, store *tenantstore.Store) {
	const workers = 8
	const unitsPerWorker = 8

	errs := make(chan error, workers*unitsPerWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			ctx := context.Background()
			for u := 0; u < unitsPerWorker; u++ {
				id := fmt.Sprintf("w%d-u%d", w, u)
				_, err := engine.Ingest(ctx, "Stanford Health", testUnit(id), "job-1", testScope, testRecord(id, "100mg"))
				errs <- err
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, workers*unitsPerWorker, activeRecordCount(t, store, "Stanford Health"))
}
