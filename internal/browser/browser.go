// Package browser owns headless browser sessions: launching them, capping how
// many run at once, and releasing them on every exit path.
package browser

import "context"

// Page is the set of interactions the provisioning workflow performs.
// Implementations must honour ctx cancellation between actions.
type Page interface {
	Goto(ctx context.Context, url string) error
	Fill(ctx context.Context, target Target, value string) error
	Click(ctx context.Context, target Target) error
	Press(ctx context.Context, target Target, key string) error
	SelectOption(ctx context.Context, target Target, value string) error
	BodyText(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
}

// Session is one browser process, one isolated context and one page.
type Session interface {
	Page() Page
	Close() error
}

// Launcher starts fresh sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}
