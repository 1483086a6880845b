package tenantstore

import (
	"context"
	"medharvest-backend/lib/testutil"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func setup(t testing.TB) (*Store, func()) {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name: "services/tenantstore",
	})

	store, err := NewStore(result.DB, "")
	if err != nil {
		t.Fatal(err)
	}
	return store, func() {
		store.Close()
		cleanup()
	}
}

func TestSanitizeName(t *testing.T) {
	require.Equal(t, "stanford_health", SanitizeName("Stanford Health"))
	require.Equal(t, "stanford_health", SanitizeName("  Stanford   Health  "))
	require.Equal(t, "st_mary_s_clinic", SanitizeName("St. Mary's Clinic"))
	require.Equal(t, "tenant", SanitizeName("***"))

	// idempotent: sanitizing a key returns it unchanged
	key := SanitizeName("Kaiser Permanente / North")
	require.Equal(t, key, SanitizeName(key))
}

func TestResolveCreatesLazily(t *testing.T) {
	store, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()

	tenant, err := store.Resolve(ctx, "Stanford Health")
	require.NoError(t, err)
	require.Equal(t, "stanford_health", tenant.Key)
	require.Equal(t, "Stanford Health", tenant.RawName)

	row, err := store.GetTenant(ctx, "stanford_health")
	require.NoError(t, err)
	require.Equal(t, "Stanford Health", row.RawName)

	// same raw name resolves to the same handle
	again, err := store.Resolve(ctx, "Stanford Health")
	require.NoError(t, err)
	require.Same(t, tenant, again)
}

func TestResolveConvergesUnderConcurrency(t *testing.T) {
	store, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()

	const workers = 16
	handles := make([]*Tenant, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tenant, err := store.Resolve(ctx, "Kaiser Permanente")
			require.NoError(t, err)
			handles[i] = tenant
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		require.Same(t, handles[0], handles[i])
	}

	rows, err := store.ListTenants(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestRecordExtractionCounters(t *testing.T) {
	store, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()

	tenant, err := store.Resolve(ctx, "Stanford Health")
	require.NoError(t, err)

	require.NoError(t, store.RecordExtraction(ctx, tenant.Key, 3))
	require.NoError(t, store.RecordExtraction(ctx, tenant.Key, 2))

	row, err := store.GetTenant(ctx, tenant.Key)
	require.NoError(t, err)
	require.EqualValues(t, 2, row.ExtractionCount)
	require.EqualValues(t, 5, row.UnitCount)
}
