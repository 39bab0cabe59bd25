package browser

import (
	"context"
	"errors"
)

// FakedLauncher serves canned markup to the scraping layer in tests.
type FakedLauncher struct {
	// HTML is returned from Content on every session.
	HTML string
	// Selectors that WaitForSelector should report as present. Empty means
	// every selector is present.
	Selectors map[string]bool
	// NavigateErr, ContentEmpty simulate the two fetch-level failure modes.
	NavigateErr  error
	ContentEmpty bool

	// VisitedURLs records every navigation across sessions.
	VisitedURLs []string
	// OpenSessions tracks sessions not yet closed, for leak assertions.
	OpenSessions int
}

func (l *FakedLauncher) NewSession(ctx context.Context) (Session, error) {
	l.OpenSessions++
	return &fakedSession{launcher: l}, nil
}

type fakedSession struct {
	launcher *FakedLauncher
	closed   bool
}

func (s *fakedSession) Navigate(ctx context.Context, url string) error {
	if s.closed {
		return errors.New("navigate on closed session")
	}
	s.launcher.VisitedURLs = append(s.launcher.VisitedURLs, url)
	return s.launcher.NavigateErr
}

func (s *fakedSession) WaitForSelector(ctx context.Context, selector string) error {
	if s.launcher.Selectors == nil {
		return nil
	}
	if !s.launcher.Selectors[selector] {
		return errors.New("selector never appeared: " + selector)
	}
	return nil
}

func (s *fakedSession) Content(ctx context.Context) (string, error) {
	if s.launcher.ContentEmpty {
		return "", nil
	}
	return s.launcher.HTML, nil
}

func (s *fakedSession) Close() error {
	if !s.closed {
		s.closed = true
		s.launcher.OpenSessions--
	}
	return nil
}
