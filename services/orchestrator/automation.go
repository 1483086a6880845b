package orchestrator

import "context"

// Engine abstracts the browser automation runtime. The orchestrator never
// inspects the DOM itself; it only launches sessions, points them at a url
// and hands them to adapters.
type Engine interface {
	LaunchSession(ctx context.Context, config SessionConfig) (SessionHandle, error)
}

type SessionConfig struct {
	// Headful sessions show a visible window for the human login step.
	Headful bool
	Profile string
}

// SessionHandle is one live browser session. Release must be safe to call
// exactly once on every exit path.
type SessionHandle interface {
	Navigate(ctx context.Context, url string) error
	Release()
}

// Focuser is an optional capability of a session: bringing its window to
// the foreground while a human is expected to interact with it.
type Focuser interface {
	Focus(ctx context.Context) error
}

// HTMLSource is an optional capability adapters can use to read the current
// page without talking to the engine directly.
type HTMLSource interface {
	PageHTML(ctx context.Context) (string, error)
}
