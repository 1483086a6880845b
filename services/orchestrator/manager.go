package orchestrator

import (
	"context"
	"medharvest-backend/lib/events"
	"medharvest-backend/services/consistency"
	"medharvest-backend/services/resume"
	"medharvest-backend/services/tenantstore"
	"sync"

	"github.com/google/uuid"
)

// Manager owns the active job registry. Each started job runs on its own
// goroutine and deregisters itself when it reaches a terminal state, so a
// crashed or finished job can always be restarted.
type Manager struct {
	engine      Engine
	adapters    *AdapterRegistry
	ingest      consistency.Engine
	checkpoints resume.CheckpointStore
	tenants     *tenantstore.Store
	sink        events.Sink

	mu      sync.Mutex
	runners map[string]*Runner
	wg      sync.WaitGroup
}

func NewManager(
	engine Engine,
	adapters *AdapterRegistry,
	tenants *tenantstore.Store,
	checkpoints resume.CheckpointStore,
	sink events.Sink,
) *Manager {
	if sink == nil {
		sink = events.Discard{}
	}
	return &Manager{
		engine:      engine,
		adapters:    adapters,
		ingest:      consistency.NewEngine(tenants),
		checkpoints: checkpoints,
		tenants:     tenants,
		sink:        sink,
	}
}

// StartJob registers and launches a job. It returns false when a job with
// the same id is still running; the caller must wait for it to finish
// before starting another.
func (m *Manager) StartJob(ctx context.Context, spec JobSpec) (*Job, bool) {
	if spec.ID == "" {
		spec.ID = uuid.NewString()
	}

	m.mu.Lock()
	if m.runners == nil {
		m.runners = map[string]*Runner{}
	}
	if _, exists := m.runners[spec.ID]; exists {
		m.mu.Unlock()
		return nil, false
	}

	// the job must outlive the request that started it
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	runner := &Runner{
		job:         NewJob(spec),
		engine:      m.engine,
		adapters:    m.adapters,
		ingest:      m.ingest,
		checkpoints: m.checkpoints,
		tenants:     m.tenants,
		sink:        m.sink,
		confirm:     make(chan struct{}, 1),
		cancel:      cancel,
	}
	m.runners[spec.ID] = runner
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer m.deregister(spec.ID)
		defer cancel()
		runner.Run(runCtx)
	}()
	return runner.job, true
}

func (m *Manager) deregister(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runners, jobID)
}

// SignalConfirmation tells the job that the human has finished logging in.
// It returns false when the job does not exist or is not waiting for
// confirmation, so stray or repeated signals are harmless.
func (m *Manager) SignalConfirmation(jobID string) bool {
	m.mu.Lock()
	runner, ok := m.runners[jobID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	if runner.job.Status() != StatusAwaitingUserConfirmation {
		return false
	}
	select {
	case runner.confirm <- struct{}{}:
		return true
	default:
		return false
	}
}

// Cancel asks a running job to stop. The job fails with a cancellation
// error once its runner observes the signal.
func (m *Manager) Cancel(jobID string) bool {
	m.mu.Lock()
	runner, ok := m.runners[jobID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	runner.cancel()
	return true
}

// Get returns the job while it is still active.
func (m *Manager) Get(jobID string) (*Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	runner, ok := m.runners[jobID]
	if !ok {
		return nil, false
	}
	return runner.job, true
}

func (m *Manager) ListActive() []*Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	jobs := make([]*Job, 0, len(m.runners))
	for _, runner := range m.runners {
		jobs = append(jobs, runner.job)
	}
	return jobs
}

// Shutdown cancels every active job and waits for their runners to exit,
// giving up when ctx expires.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	for _, runner := range m.runners {
		runner.cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
