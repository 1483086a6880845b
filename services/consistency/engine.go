// Package consistency decides what a newly extracted record means relative
// to a tenant's history: brand new data, a duplicate of what is already
// stored, a broader extraction superseding a narrower one, or a genuine
// disagreement that needs human review.
package consistency

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"medharvest-backend/lib/checksum"
	"medharvest-backend/services/tenantstore"
	"medharvest-backend/services/tenantstore/db"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/consistency")

type Outcome string

const (
	OutcomeNew        Outcome = "new"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeConflict   Outcome = "conflict"
	OutcomeSuperseded Outcome = "superseded"
)

// FilterAll is the wildcard content filter: it overlaps every other filter.
const FilterAll = "all"

// VolatileFields are dropped from a record before checksumming. They vary
// across portal sessions without the underlying content changing.
var VolatileFields = []string{"internal_id", "transient_id", "scraped_at"}

// Scope bounds one extraction's applicability: a date window plus a content
// filter. Date endpoints are inclusive, so two windows sharing an endpoint
// overlap.
type Scope struct {
	ContentFilter string
	StartDate     time.Time
	StopDate      time.Time
}

func (s Scope) filter() string {
	if s.ContentFilter == "" {
		return FilterAll
	}
	return s.ContentFilter
}

// Unit identifies the subject of an ingest. ExternalID is the stable key;
// TransientID is the portal's session-scoped id and is never used for joins.
type Unit struct {
	ExternalID  string
	TransientID string
	DisplayName string
	Descriptive map[string]any
}

type Result struct {
	Outcome  Outcome
	Checksum string
}

type Engine struct {
	store *tenantstore.Store
}

func NewEngine(store *tenantstore.Store) Engine {
	return Engine{store: store}
}

// Ingest commits one extracted unit record into the tenant's history. All
// writes of a single call happen in one transaction on the tenant database;
// on error nothing is observable.
func (e Engine) Ingest(
	ctx context.Context,
	tenantName string,
	unit Unit,
	jobID string,
	scope Scope,
	raw map[string]any,
) (Result, error) {
	ctx, span := tracer.Start(ctx, "Ingest")
	defer span.End()

	span.SetAttributes(
		attribute.String("unit", unit.ExternalID),
		attribute.String("job_id", jobID),
	)

	sum := checksum.Record(raw, VolatileFields...)

	tenant, err := e.store.Resolve(ctx, tenantName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	tx, err := tenant.DB.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("begin ingest transaction: %w", err)
	}
	defer tx.Rollback()
	txqry := tenant.Qry.WithTx(tx)

	outcome, err := e.ingest(ctx, txqry, unit, jobID, scope, sum, raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("commit ingest transaction: %w", err)
	}

	span.SetAttributes(attribute.String("outcome", string(outcome)))
	return Result{Outcome: outcome, Checksum: sum}, nil
}

func (e Engine) ingest(
	ctx context.Context,
	txqry *db.Queries,
	unit Unit,
	jobID string,
	scope Scope,
	sum string,
	raw map[string]any,
) (Outcome, error) {
	now := time.Now().Unix()

	descriptive, err := json.Marshal(unit.Descriptive)
	if err != nil {
		return "", fmt.Errorf("marshal unit descriptive fields: %w", err)
	}
	err = txqry.UpsertUnit(ctx, db.UpsertUnitParams{
		ExternalID:  unit.ExternalID,
		TransientID: unit.TransientID,
		DisplayName: unit.DisplayName,
		Descriptive: string(descriptive),
		FirstSeenAt: now,
		UpdatedAt:   now,
	})
	if err != nil {
		return "", fmt.Errorf("upsert unit: %w", err)
	}

	payload, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("marshal record payload: %w", err)
	}

	start := scope.StartDate.Unix()
	stop := scope.StopDate.Unix()
	filter := scope.filter()

	prior, err := txqry.GetLatestOverlappingAttempt(ctx, db.GetLatestOverlappingAttemptParams{
		UnitExternalID:  unit.ExternalID,
		StopDate:        start,
		StartDate:       stop,
		ContentFilter:   filter,
		ContentFilter_2: filter,
	})
	if errors.Is(err, sql.ErrNoRows) {
		// first extraction for this unit and scope
		_, err = txqry.CreateExtractionAttempt(ctx, db.CreateExtractionAttemptParams{
			UnitExternalID: unit.ExternalID,
			JobID:          jobID,
			ContentFilter:  filter,
			StartDate:      start,
			StopDate:       stop,
			Checksum:       sum,
			Status:         "processed",
			CreatedAt:      now,
		})
		if err != nil {
			return "", fmt.Errorf("create extraction attempt: %w", err)
		}
		_, err = txqry.CreateConsolidatedRecord(ctx, db.CreateConsolidatedRecordParams{
			UnitExternalID: unit.ExternalID,
			ContentFilter:  filter,
			StartDate:      start,
			StopDate:       stop,
			Checksum:       sum,
			RecordStatus:   "active",
			Payload:        string(payload),
			SourceJobID:    jobID,
			CreatedAt:      now,
		})
		if err != nil {
			return "", fmt.Errorf("create consolidated record: %w", err)
		}
		return OutcomeNew, nil
	}
	if err != nil {
		return "", fmt.Errorf("look up prior attempt: %w", err)
	}

	if prior.Checksum == sum {
		// nothing changed since the prior attempt, nothing to write
		return OutcomeDuplicate, nil
	}

	// the new extraction disagrees with the prior one. A strictly broader
	// window supersedes the narrower prior record; anything else is a
	// conflict that needs review.
	supersedes := start <= prior.StartDate && stop >= prior.StopDate &&
		!(start == prior.StartDate && stop == prior.StopDate)

	priorRecord, err := txqry.GetConsolidatedRecordByJob(ctx, db.GetConsolidatedRecordByJobParams{
		UnitExternalID: unit.ExternalID,
		SourceJobID:    prior.JobID,
	})
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("look up prior consolidated record: %w", err)
	}
	havePriorRecord := err == nil

	if supersedes {
		if havePriorRecord && priorRecord.RecordStatus == "active" {
			err = txqry.SetConsolidatedRecordStatus(ctx, db.SetConsolidatedRecordStatusParams{
				RecordStatus: "superseded",
				ID:           priorRecord.ID,
			})
			if err != nil {
				return "", fmt.Errorf("mark prior record superseded: %w", err)
			}
		}
		_, err = txqry.CreateExtractionAttempt(ctx, db.CreateExtractionAttemptParams{
			UnitExternalID: unit.ExternalID,
			JobID:          jobID,
			ContentFilter:  filter,
			StartDate:      start,
			StopDate:       stop,
			Checksum:       sum,
			Status:         "processed",
			CreatedAt:      now,
		})
		if err != nil {
			return "", fmt.Errorf("create extraction attempt: %w", err)
		}
		_, err = txqry.CreateConsolidatedRecord(ctx, db.CreateConsolidatedRecordParams{
			UnitExternalID: unit.ExternalID,
			ContentFilter:  filter,
			StartDate:      start,
			StopDate:       stop,
			Checksum:       sum,
			RecordStatus:   "active",
			Payload:        string(payload),
			SourceJobID:    jobID,
			CreatedAt:      now,
		})
		if err != nil {
			return "", fmt.Errorf("create consolidated record: %w", err)
		}
		return OutcomeSuperseded, nil
	}

	_, err = txqry.CreateConflict(ctx, db.CreateConflictParams{
		UnitExternalID:  unit.ExternalID,
		PriorJobID:      prior.JobID,
		CurrentJobID:    jobID,
		PriorChecksum:   prior.Checksum,
		CurrentChecksum: sum,
		Severity:        "warning",
		CreatedAt:       now,
	})
	if err != nil {
		return "", fmt.Errorf("create conflict: %w", err)
	}

	if havePriorRecord && priorRecord.RecordStatus == "active" {
		err = txqry.SetConsolidatedRecordStatus(ctx, db.SetConsolidatedRecordStatusParams{
			RecordStatus: "conflict",
			ID:           priorRecord.ID,
		})
		if err != nil {
			return "", fmt.Errorf("mark prior record conflicted: %w", err)
		}
	}
	err = txqry.SetExtractionAttemptStatus(ctx, db.SetExtractionAttemptStatusParams{
		Status: "conflict",
		ID:     prior.ID,
	})
	if err != nil {
		return "", fmt.Errorf("mark prior attempt conflicted: %w", err)
	}

	_, err = txqry.CreateExtractionAttempt(ctx, db.CreateExtractionAttemptParams{
		UnitExternalID: unit.ExternalID,
		JobID:          jobID,
		ContentFilter:  filter,
		StartDate:      start,
		StopDate:       stop,
		Checksum:       sum,
		Status:         "conflict",
		CreatedAt:      now,
	})
	if err != nil {
		return "", fmt.Errorf("create extraction attempt: %w", err)
	}
	_, err = txqry.CreateConsolidatedRecord(ctx, db.CreateConsolidatedRecordParams{
		UnitExternalID: unit.ExternalID,
		ContentFilter:  filter,
		StartDate:      start,
		StopDate:       stop,
		Checksum:       sum,
		RecordStatus:   "conflict",
		Payload:        string(payload),
		SourceJobID:    jobID,
		CreatedAt:      now,
	})
	if err != nil {
		return "", fmt.Errorf("create consolidated record: %w", err)
	}
	return OutcomeConflict, nil
}
