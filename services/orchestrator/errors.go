package orchestrator

import "errors"

// Run-level failure kinds. The job's error text always wraps one of these
// so callers can tell a timeout apart from a broken adapter and decide
// whether to retry, escalate or give up.
var (
	ErrLaunchFailure       = errors.New("failed to launch browser session")
	ErrNavigationFailure   = errors.New("failed to navigate to target url")
	ErrConfirmationTimeout = errors.New("timeout waiting for confirmation")
	ErrAdapterFailure      = errors.New("adapter failed")
	ErrEmptyResult         = errors.New("adapter returned no data")
	ErrCancelled           = errors.New("job cancelled")
)
