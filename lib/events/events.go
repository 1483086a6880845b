// Package events pushes job status transitions and ingest outcomes to
// external listeners. Delivery is best-effort: a broken sink is logged and
// never stalls the job that produced the event.
package events

import (
	"context"
	"log/slog"
	"time"
)

const (
	KindStatus  = "status"
	KindIngest  = "ingest"
	KindFailure = "failure"
)

type Event struct {
	JobID     string         `json:"job_id"`
	Tenant    string         `json:"tenant"`
	Kind      string         `json:"kind"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

// Sink receives events fire-and-forget. Implementations must not block on
// slow consumers and must swallow their own delivery failures.
type Sink interface {
	Publish(ctx context.Context, event Event)
}

// SlogSink logs every event, useful as a default and in tests.
type SlogSink struct{}

func (SlogSink) Publish(ctx context.Context, event Event) {
	slog.InfoContext(
		ctx, "event",
		"job_id", event.JobID,
		"tenant", event.Tenant,
		"kind", event.Kind,
		"payload", event.Payload,
	)
}

// Fanout publishes to every child sink in order.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, event Event) {
	for _, sink := range f {
		sink.Publish(ctx, event)
	}
}

// Discard drops everything. Used by tests that don't care about events.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}
