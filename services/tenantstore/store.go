// Package tenantstore provisions one isolated database per tenant. Tenants
// are created lazily the first time a raw name is referenced; the registry
// database records every tenant alongside its running counters and the
// resume checkpoints of completed runs.
package tenantstore

import (
	"context"
	"database/sql"
	"fmt"
	"medharvest-backend/services/tenantstore/db"
	"medharvest-backend/services/tenantstore/registrydb"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("services/tenantstore")

type Store struct {
	registry *sql.DB
	qry      *registrydb.Queries
	// dataDir is where per-tenant database files live. Empty means
	// in-memory databases, which tests use.
	dataDir string

	mu   sync.Mutex
	open map[string]*Tenant
}

// Tenant is a handle on one tenant's isolated database.
type Tenant struct {
	Key     string
	RawName string
	DB      *sql.DB
	Qry     *db.Queries
}

func NewStore(registry *sql.DB, dataDir string) (*Store, error) {
	err := execSchema(registry, registrydb.Schema)
	if err != nil {
		return nil, fmt.Errorf("apply registry schema: %w", err)
	}
	return &Store{
		registry: registry,
		qry:      registrydb.New(registry),
		dataDir:  dataDir,
		open:     map[string]*Tenant{},
	}, nil
}

func execSchema(database *sql.DB, schema string) error {
	_, err := database.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}
	return nil
}

// SanitizeName maps a raw tenant name onto a filesystem and identifier safe
// key. It is deterministic and idempotent: the same raw name always yields
// the same key, and sanitizing a key returns it unchanged.
func SanitizeName(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))

	var out strings.Builder
	lastUnderscore := false
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			out.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			out.WriteByte('_')
			lastUnderscore = true
		}
	}

	key := strings.Trim(out.String(), "_")
	if key == "" {
		return "tenant"
	}
	return key
}

// Resolve returns the tenant handle for a raw name, creating the tenant on
// first use. Two concurrent Resolve calls for the same name converge on one
// handle.
func (s *Store) Resolve(ctx context.Context, rawName string) (*Tenant, error) {
	ctx, span := tracer.Start(ctx, "Resolve")
	defer span.End()

	key := SanitizeName(rawName)
	span.SetAttributes(attribute.String("tenant", key))

	s.mu.Lock()
	defer s.mu.Unlock()

	if tenant, ok := s.open[key]; ok {
		return tenant, nil
	}

	location := ":memory:"
	if s.dataDir != "" {
		location = filepath.Join(s.dataDir, key+".db")
	}

	tenantDB, err := sql.Open("sqlite", location)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("open tenant db: %w", err)
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	tenantDB.SetMaxOpenConns(1)
	_, err = tenantDB.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000")
	if err != nil {
		tenantDB.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("configure tenant db: %w", err)
	}
	err = execSchema(tenantDB, db.Schema)
	if err != nil {
		tenantDB.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("apply tenant schema: %w", err)
	}

	err = s.qry.CreateTenant(ctx, registrydb.CreateTenantParams{
		Key:        key,
		RawName:    rawName,
		DbLocation: location,
		CreatedAt:  time.Now().Unix(),
	})
	if err != nil {
		tenantDB.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("register tenant: %w", err)
	}

	tenant := &Tenant{
		Key:     key,
		RawName: rawName,
		DB:      tenantDB,
		Qry:     db.New(tenantDB),
	}
	s.open[key] = tenant
	return tenant, nil
}

// RecordExtraction bumps the tenant's observability counters after a run.
func (s *Store) RecordExtraction(ctx context.Context, key string, unitsSeen int64) error {
	return s.qry.IncrementTenantCounters(ctx, registrydb.IncrementTenantCountersParams{
		ExtractionCount: 1,
		UnitCount:       unitsSeen,
		Key:             key,
	})
}

func (s *Store) ListTenants(ctx context.Context) ([]registrydb.Tenant, error) {
	return s.qry.ListTenants(ctx)
}

func (s *Store) GetTenant(ctx context.Context, key string) (registrydb.Tenant, error) {
	return s.qry.GetTenant(ctx, key)
}

// UpsertCheckpoint records the blob key of the most recent result set for a
// job fingerprint, so a later process can resume from it.
func (s *Store) UpsertCheckpoint(ctx context.Context, arg registrydb.UpsertCheckpointParams) error {
	return s.qry.UpsertCheckpoint(ctx, arg)
}

func (s *Store) GetCheckpoint(ctx context.Context, fingerprint string) (registrydb.Checkpoint, error) {
	return s.qry.GetCheckpoint(ctx, fingerprint)
}

// Close closes every open tenant handle. The registry connection belongs to
// the caller.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for key, tenant := range s.open {
		err := tenant.DB.Close()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.open, key)
	}
	return firstErr
}
