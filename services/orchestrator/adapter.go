package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RawRecord is what adapters hand back: a loosely-typed record whose exact
// fields vary by portal. The orchestrator only interprets a small set of
// well-known keys and treats everything else as opaque descriptive data.
type RawRecord = map[string]any

// Well-known RawRecord keys.
const (
	FieldExternalID  = "external_id"
	FieldTransientID = "transient_id"
	FieldName        = "name"
	FieldItems       = "items"
)

type AdapterConfig struct {
	ContentFilter  string
	StartDate      time.Time
	StopDate       time.Time
	Mode           ExtractionMode
	UnitIdentifier string
}

// Adapter is the pluggable portal-specific extraction logic. Single-unit
// mode returns one record; all-units mode returns one record per unit.
type Adapter interface {
	Extract(ctx context.Context, session SessionHandle, config AdapterConfig) ([]RawRecord, error)
}

// AdapterFunc adapts a plain function into an Adapter.
type AdapterFunc func(ctx context.Context, session SessionHandle, config AdapterConfig) ([]RawRecord, error)

func (f AdapterFunc) Extract(ctx context.Context, session SessionHandle, config AdapterConfig) ([]RawRecord, error) {
	return f(ctx, session, config)
}

// AdapterRegistry maps portal names onto adapters.
type AdapterRegistry struct {
	mu       sync.Mutex
	adapters map[string]Adapter
}

func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		adapters: map[string]Adapter{},
	}
}

func (r *AdapterRegistry) Register(portal string, adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[portal] = adapter
}

func (r *AdapterRegistry) Resolve(portal string) (Adapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	adapter, ok := r.adapters[portal]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for portal %q", portal)
	}
	return adapter, nil
}
