package browser

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"strings"
	"time"

	"fxhistory-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// staticLauncher serves environments without a Chrome binary. It fetches the
// page over plain HTTP; that works because the history table is
// server-rendered markup. WaitForSelector degrades to re-fetching until the
// selector matches.
type staticLauncher struct {
	client *resty.Client
}

func newStaticLauncher() *staticLauncher {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err == nil {
		client.SetCookieJar(jar)
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")

	telemetry.InstrumentResty(client, "fxhistory.lib.browser.static")

	return &staticLauncher{client: client}
}

func (l *staticLauncher) NewSession(ctx context.Context) (Session, error) {
	return &staticSession{client: l.client}, nil
}

type staticSession struct {
	client *resty.Client
	url    string
	body   string
}

func (s *staticSession) fetch(ctx context.Context) error {
	res, err := s.client.R().
		SetContext(ctx).
		Get(s.url)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("fetch %s: status %s", s.url, res.Status())
	}
	s.body = res.String()
	return nil
}

func (s *staticSession) Navigate(ctx context.Context, url string) error {
	s.url = url
	return s.fetch(ctx)
}

const (
	staticWaitAttempts = 5
	staticWaitInterval = 2 * time.Second
)

func (s *staticSession) WaitForSelector(ctx context.Context, selector string) error {
	for attempt := 0; ; attempt++ {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.body))
		if err != nil {
			return err
		}
		if doc.Find(selector).Length() > 0 {
			return nil
		}
		if attempt >= staticWaitAttempts {
			return fmt.Errorf("selector %q never appeared at %s", selector, s.url)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(staticWaitInterval):
		}
		if err := s.fetch(ctx); err != nil {
			return err
		}
	}
}

func (s *staticSession) Content(ctx context.Context) (string, error) {
	return s.body, nil
}

func (s *staticSession) Close() error {
	s.body = ""
	return nil
}
