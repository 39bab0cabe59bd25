package browser

import (
	"context"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// subresources that only slow the page down. The history table itself is
// plain markup, so blocking these does not affect what gets parsed.
var blockedURLPatterns = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.svg", "*.ico",
	"*.woff", "*.woff2", "*.ttf",
	"*doubleclick*", "*adsystem*",
}

type chromeLauncher struct {
	headless bool
}

func (l *chromeLauncher) NewSession(ctx context.Context) (Session, error) {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.headless),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &chromeSession{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}
	if err := s.run(ctx, network.Enable(), network.SetBlockedURLS(blockedURLPatterns)); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

type chromeSession struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

// run executes actions against the browser while honoring the caller's
// context for cancellation. chromedp actions themselves carry no deadline.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(s.browserCtx, actions...)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *chromeSession) WaitForSelector(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (s *chromeSession) Content(ctx context.Context) (string, error) {
	var content string
	err := s.run(ctx, chromedp.OuterHTML("html", &content, chromedp.ByQuery))
	return content, err
}

func (s *chromeSession) Close() error {
	// Cancel gives the browser process a chance to exit cleanly before the
	// contexts are torn down.
	err := chromedp.Cancel(s.browserCtx)
	s.browserCancel()
	s.allocCancel()
	return err
}
