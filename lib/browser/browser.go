// Package browser abstracts page automation behind a narrow session
// interface so the parsing and validation layers never touch a concrete
// automation technology. Two real backends exist: headless Chrome via
// chromedp and a plain-HTTP fetcher for environments without a browser
// binary. Tests use the faked session.
package browser

import (
	"context"
	"fmt"
)

// Session is one isolated browsing session. Sessions are single-use: one
// navigation, some waits, one content grab, then Close. Close must be called
// on every exit path or the backing browser process leaks.
type Session interface {
	// Navigate loads the url. No timeout is applied beyond the caller's
	// context; slow pages are tolerated, not aborted.
	Navigate(ctx context.Context, url string) error
	// WaitForSelector blocks until the selector matches in the live page.
	WaitForSelector(ctx context.Context, selector string) error
	// Content returns the full rendered markup of the current page.
	Content(ctx context.Context) (string, error)
	Close() error
}

// Launcher creates sessions. Each extraction owns exactly one session, so
// concurrent extractions never share browser state.
type Launcher interface {
	NewSession(ctx context.Context) (Session, error)
}

const (
	DriverChrome = "chrome"
	DriverStatic = "static"
)

type Options struct {
	// Driver selects the backend, DriverChrome by default.
	Driver string `json:"driver"`
	// Headed runs the chrome driver with a visible window. Headless is the
	// default.
	Headed bool `json:"headed"`
}

// NewLauncher builds a launcher for the configured driver.
func NewLauncher(opts Options) (Launcher, error) {
	switch opts.Driver {
	case "", DriverChrome:
		return &chromeLauncher{headless: !opts.Headed}, nil
	case DriverStatic:
		return newStaticLauncher(), nil
	default:
		return nil, fmt.Errorf("unknown browser driver %q", opts.Driver)
	}
}
