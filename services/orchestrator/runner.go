package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"medharvest-backend/lib/events"
	"medharvest-backend/services/consistency"
	"medharvest-backend/services/resume"
	"medharvest-backend/services/tenantstore"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("services/orchestrator")

const (
	defaultConfirmationTimeout = time.Minute * 10
	// while waiting for the human login, periodically pull the session
	// window back into the foreground
	focusInterval = time.Second * 15
)

// Runner executes a single job end to end on its own goroutine. It is the
// only writer of its job's status.
type Runner struct {
	job         *Job
	engine      Engine
	adapters    *AdapterRegistry
	ingest      consistency.Engine
	checkpoints resume.CheckpointStore
	tenants     *tenantstore.Store
	sink        events.Sink

	confirm chan struct{}
	cancel  context.CancelFunc
}

// Run drives the job's state machine to a terminal state. The session
// handle is released on every exit path.
func (r *Runner) Run(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	spec := r.job.Spec
	span.SetAttributes(
		attribute.String("job_id", spec.ID),
		attribute.String("tenant", spec.Tenant),
		attribute.String("portal", spec.Portal),
	)

	r.transition(ctx, StatusLaunchingBrowser)
	session, err := r.engine.LaunchSession(ctx, SessionConfig{
		Headful: true,
		Profile: spec.Profile,
	})
	if err != nil {
		r.failWith(ctx, span, fmt.Errorf("%w: %s", ErrLaunchFailure, err.Error()))
		return
	}
	defer session.Release()

	err = session.Navigate(ctx, spec.TargetURL)
	if err != nil {
		r.failWith(ctx, span, fmt.Errorf("%w: %s", ErrNavigationFailure, err.Error()))
		return
	}

	r.transition(ctx, StatusAwaitingUserConfirmation)
	err = r.waitForConfirmation(ctx, session)
	if err != nil {
		r.failWith(ctx, span, err)
		return
	}

	r.transition(ctx, StatusExtracting)
	adapter, err := r.adapters.Resolve(spec.Portal)
	if err != nil {
		r.failWith(ctx, span, fmt.Errorf("%w: %s", ErrAdapterFailure, err.Error()))
		return
	}

	records, err := adapter.Extract(ctx, session, AdapterConfig{
		ContentFilter:  spec.ContentFilter,
		StartDate:      spec.StartDate,
		StopDate:       spec.StopDate,
		Mode:           spec.Mode,
		UnitIdentifier: spec.UnitIdentifier,
	})
	if err != nil {
		r.failWith(ctx, span, fmt.Errorf("%w: %s", ErrAdapterFailure, err.Error()))
		return
	}
	// an empty result is indistinguishable from a broken selector and must
	// never be committed as success
	if len(records) == 0 {
		r.failWith(ctx, span, ErrEmptyResult)
		return
	}

	carried := r.seedFromCheckpoint(ctx)

	scope := consistency.Scope{
		ContentFilter: spec.ContentFilter,
		StartDate:     spec.StartDate,
		StopDate:      spec.StopDate,
	}
	for _, record := range records {
		if ctx.Err() != nil {
			r.failWith(ctx, span, fmt.Errorf("%w: %s", ErrCancelled, ctx.Err().Error()))
			return
		}
		name, _ := record[FieldName].(string)
		if carried[resume.NormalizeName(name)] {
			continue
		}
		result := r.processRecord(ctx, record, scope)
		r.job.appendResult(result)
		r.emitIngest(ctx, result)
	}

	results := r.job.Results()
	err = r.checkpoints.Save(
		ctx,
		spec.Fingerprint(),
		tenantstore.SanitizeName(spec.Tenant),
		spec.ID,
		results,
	)
	if err != nil {
		r.failWith(ctx, span, fmt.Errorf("failed to persist run results: %s", err.Error()))
		return
	}

	err = r.tenants.RecordExtraction(ctx, tenantstore.SanitizeName(spec.Tenant), int64(len(results)))
	if err != nil {
		slog.WarnContext(ctx, "failed to bump tenant counters", "job_id", spec.ID, "err", err)
	}

	r.transition(ctx, StatusCompleted)
	span.SetStatus(codes.Ok, "run completed")
}

// seedFromCheckpoint carries over the successful units of the last run with
// the same fingerprint. Returns the normalized names to skip.
func (r *Runner) seedFromCheckpoint(ctx context.Context) map[string]bool {
	if !r.job.Spec.Resume {
		return nil
	}
	previous, err := r.checkpoints.Load(ctx, r.job.Spec.Fingerprint())
	if err != nil {
		slog.WarnContext(ctx, "failed to load checkpoint, running everything", "job_id", r.job.Spec.ID, "err", err)
		return nil
	}

	carried := map[string]bool{}
	for _, prior := range previous {
		if !prior.Succeeded() {
			continue
		}
		carried[resume.NormalizeName(prior.Name)] = true
		r.job.appendResult(prior)
	}
	if len(carried) > 0 {
		slog.InfoContext(ctx, "seeded run from checkpoint", "job_id", r.job.Spec.ID, "carried", len(carried))
	}
	return carried
}

func (r *Runner) waitForConfirmation(ctx context.Context, session SessionHandle) error {
	timeout := r.job.Spec.ConfirmationTimeout
	if timeout <= 0 {
		timeout = defaultConfirmationTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	focus := time.NewTicker(focusInterval)
	defer focus.Stop()

	for {
		select {
		case <-r.confirm:
			return nil
		case <-timer.C:
			return ErrConfirmationTimeout
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", ErrCancelled, ctx.Err().Error())
		case <-focus.C:
			focuser, ok := session.(Focuser)
			if !ok {
				continue
			}
			err := focuser.Focus(ctx)
			if err != nil {
				slog.DebugContext(ctx, "failed to focus session window", "err", err)
			}
		}
	}
}

// processRecord commits a single raw unit record. A failure here is scoped
// to this record; the rest of the run continues.
func (r *Runner) processRecord(ctx context.Context, record RawRecord, scope consistency.Scope) resume.UnitResult {
	unit, result, err := unitFromRecord(record)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	ingested, err := r.ingest.Ingest(ctx, r.job.Spec.Tenant, unit, r.job.Spec.ID, scope, record)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Outcome = string(ingested.Outcome)
	result.Checksum = ingested.Checksum
	return result
}

// unitFromRecord interprets the well-known keys of a raw record. Adapters
// are third-party code, so only the bare minimum is required: something
// that identifies the unit.
func unitFromRecord(record RawRecord) (consistency.Unit, resume.UnitResult, error) {
	name, _ := record[FieldName].(string)
	externalID, _ := record[FieldExternalID].(string)
	transientID, _ := record[FieldTransientID].(string)

	items := parseItems(record[FieldItems])

	descriptive := map[string]any{}
	for key, value := range record {
		switch key {
		case FieldName, FieldExternalID, FieldTransientID, FieldItems:
		default:
			descriptive[key] = value
		}
	}

	result := resume.UnitResult{
		Name:        name,
		ExternalID:  externalID,
		Items:       items,
		Descriptive: descriptive,
	}

	if strings.TrimSpace(name) == "" && strings.TrimSpace(externalID) == "" {
		return consistency.Unit{}, result, fmt.Errorf("record has no identifying content")
	}
	if externalID == "" {
		externalID = resume.NormalizeName(name)
		result.ExternalID = externalID
	}

	unit := consistency.Unit{
		ExternalID:  externalID,
		TransientID: transientID,
		DisplayName: name,
		Descriptive: descriptive,
	}
	return unit, result, nil
}

func parseItems(value any) []resume.ContentItem {
	switch items := value.(type) {
	case []resume.ContentItem:
		return items
	case []map[string]any:
		out := make([]resume.ContentItem, 0, len(items))
		for _, item := range items {
			out = append(out, itemFromMap(item))
		}
		return out
	case []any:
		var out []resume.ContentItem
		for _, element := range items {
			item, ok := element.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, itemFromMap(item))
		}
		return out
	}
	return nil
}

func itemFromMap(m map[string]any) resume.ContentItem {
	name, _ := m["name"].(string)
	text, _ := m["text"].(string)
	return resume.ContentItem{Name: name, Text: text}
}

func (r *Runner) transition(ctx context.Context, status Status) {
	r.job.setStatus(status)
	r.emitStatus(ctx, status, "")
}

func (r *Runner) failWith(ctx context.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	slog.ErrorContext(ctx, "job failed", "job_id", r.job.Spec.ID, "err", err)

	r.job.fail(err.Error())
	r.emitStatus(ctx, StatusFailed, err.Error())
	r.sink.Publish(ctx, events.Event{
		JobID:     r.job.Spec.ID,
		Tenant:    r.job.Spec.Tenant,
		Kind:      events.KindFailure,
		Payload:   map[string]any{"error": err.Error()},
		Timestamp: time.Now(),
	})
}

func (r *Runner) emitStatus(ctx context.Context, status Status, errText string) {
	payload := map[string]any{"status": string(status)}
	if errText != "" {
		payload["error"] = errText
	}
	r.sink.Publish(ctx, events.Event{
		JobID:     r.job.Spec.ID,
		Tenant:    r.job.Spec.Tenant,
		Kind:      events.KindStatus,
		Payload:   payload,
		Timestamp: time.Now(),
	})
}

func (r *Runner) emitIngest(ctx context.Context, result resume.UnitResult) {
	payload := map[string]any{
		"unit":    result.Name,
		"outcome": result.Outcome,
	}
	if result.Error != "" {
		payload["error"] = result.Error
	}
	r.sink.Publish(ctx, events.Event{
		JobID:     r.job.Spec.ID,
		Tenant:    r.job.Spec.Tenant,
		Kind:      events.KindIngest,
		Payload:   payload,
		Timestamp: time.Now(),
	})
}
