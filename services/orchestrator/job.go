package orchestrator

import (
	"medharvest-backend/services/resume"
	"sync"
	"time"
)

type Status string

const (
	StatusPendingLogin             Status = "PENDING_LOGIN"
	StatusLaunchingBrowser         Status = "LAUNCHING_BROWSER"
	StatusAwaitingUserConfirmation Status = "AWAITING_USER_CONFIRMATION"
	StatusExtracting               Status = "EXTRACTING"
	StatusCompleted                Status = "COMPLETED"
	StatusFailed                   Status = "FAILED"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type ExtractionMode string

const (
	ModeSingleUnit ExtractionMode = "SINGLE_UNIT"
	ModeAllUnits   ExtractionMode = "ALL_UNITS"
)

// JobSpec is everything the caller provides to request an extraction run.
type JobSpec struct {
	ID             string
	TargetURL      string
	Portal         string
	Mode           ExtractionMode
	UnitIdentifier string
	Tenant         string
	ContentFilter  string
	StartDate      time.Time
	StopDate       time.Time
	// Profile selects the session profile the engine should launch with.
	Profile string
	// Resume seeds the run from the last checkpoint with the same
	// fingerprint: units that already succeeded are carried over instead of
	// re-ingested.
	Resume bool
	// ConfirmationTimeout bounds the human login step. Zero means the
	// default ceiling of ten minutes.
	ConfirmationTimeout time.Duration
}

// Fingerprint identifies the job's defining parameters, independent of the
// job id, so reruns map onto the same checkpoint.
func (s JobSpec) Fingerprint() string {
	return resume.JobFingerprint(
		s.Tenant,
		s.ContentFilter,
		s.StartDate.Format(time.DateOnly),
		s.StopDate.Format(time.DateOnly),
		string(s.Mode),
		s.UnitIdentifier,
	)
}

// Job is one requested extraction run. Its status is written only by the
// owning runner; once terminal it never changes again.
type Job struct {
	Spec JobSpec

	mu        sync.Mutex
	status    Status
	errText   string
	results   []resume.UnitResult
	createdAt time.Time
	updatedAt time.Time
}

func NewJob(spec JobSpec) *Job {
	now := time.Now()
	return &Job{
		Spec:      spec,
		status:    StatusPendingLogin,
		createdAt: now,
		updatedAt: now,
	}
}

func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

func (j *Job) Err() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.errText
}

// Results returns a snapshot of the per-unit outcomes recorded so far.
func (j *Job) Results() []resume.UnitResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]resume.UnitResult, len(j.results))
	copy(out, j.results)
	return out
}

func (j *Job) setStatus(status Status) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return
	}
	j.status = status
	j.updatedAt = time.Now()
}

func (j *Job) fail(message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return
	}
	j.status = StatusFailed
	j.errText = message
	j.updatedAt = time.Now()
}

func (j *Job) appendResult(result resume.UnitResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.results = append(j.results, result)
}
