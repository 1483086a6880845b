package resume

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"medharvest-backend/lib/blobstore"
	"medharvest-backend/lib/checksum"
	"medharvest-backend/services/tenantstore"
	"medharvest-backend/services/tenantstore/registrydb"
	"time"
)

// JobFingerprint hashes the parameters that define a job, independent of
// field ordering, so a rerun with the same parameters maps onto the prior
// attempt's checkpoint.
func JobFingerprint(tenant, contentFilter, startDate, stopDate, mode, unitIdentifier string) string {
	return checksum.Fingerprint(map[string]string{
		"tenant":          tenantstore.SanitizeName(tenant),
		"content_filter":  contentFilter,
		"start_date":      normalizeDate(startDate),
		"stop_date":       normalizeDate(stopDate),
		"extraction_mode": mode,
		"unit_identifier": unitIdentifier,
	})
}

// normalizeDate maps every spelling of "no date was given" onto the empty
// string, so callers that format the zero time and callers that pass ""
// agree on the fingerprint.
func normalizeDate(value string) string {
	zero := time.Time{}.Format(time.DateOnly)
	if value == zero {
		return ""
	}
	return value
}

// CheckpointStore persists the per-run result set so a later process can
// plan a resume. The registry points each fingerprint at the most recent
// blob; the blob itself holds the serialized unit results.
type CheckpointStore struct {
	tenants *tenantstore.Store
	blobs   blobstore.Store
}

func NewCheckpointStore(tenants *tenantstore.Store, blobs blobstore.Store) CheckpointStore {
	return CheckpointStore{
		tenants: tenants,
		blobs:   blobs,
	}
}

// Save writes the run's results and repoints the fingerprint's checkpoint
// at them. Called after a run reaches a terminal state.
func (s CheckpointStore) Save(
	ctx context.Context,
	fingerprint string,
	tenantKey string,
	jobID string,
	results []UnitResult,
) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal unit results: %w", err)
	}

	blobKey := fingerprint + "/" + jobID
	err = s.blobs.Put(ctx, blobKey, data)
	if err != nil {
		return fmt.Errorf("store result blob: %w", err)
	}

	err = s.tenants.UpsertCheckpoint(ctx, registrydb.UpsertCheckpointParams{
		Fingerprint: fingerprint,
		TenantKey:   tenantKey,
		JobID:       jobID,
		BlobKey:     blobKey,
		UpdatedAt:   time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("update checkpoint: %w", err)
	}
	return nil
}

// Load returns the unit results of the most recent run for a fingerprint,
// or nil when no run has completed yet.
func (s CheckpointStore) Load(ctx context.Context, fingerprint string) ([]UnitResult, error) {
	checkpoint, err := s.tenants.GetCheckpoint(ctx, fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("look up checkpoint: %w", err)
	}

	data, err := s.blobs.Get(ctx, checkpoint.BlobKey)
	if err == blobstore.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read result blob: %w", err)
	}

	var results []UnitResult
	err = json.Unmarshal(data, &results)
	if err != nil {
		return nil, fmt.Errorf("unmarshal unit results: %w", err)
	}
	return results, nil
}
