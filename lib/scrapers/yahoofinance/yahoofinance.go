// Package yahoofinance drives a browser session to the Yahoo Finance
// currency history page and pulls the raw table text out of the rendered
// markup. It deals in text only; typed data points are the caller's job.
package yahoofinance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fxhistory-backend/lib/browser"
	"fxhistory-backend/lib/htmlutil"
	"fxhistory-backend/lib/timeutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// DefaultBaseURL is the history page URL template. period1 carries the
// older "end" date and period2 the more recent "start" date; Yahoo treats
// period2 as the upper bound of the range.
const DefaultBaseURL = "https://finance.yahoo.com/quote/%s=X/history/?period1=%d&period2=%d"

// DefaultSettleDelay is how long to sit after the landmark appears so
// client-side rendering can finish filling the table.
const DefaultSettleDelay = 5 * time.Second

const (
	selectorMainContainer  = "section.gridLayout > div.container"
	selectorTableContainer = "div.container > div.table-container"
	selectorHeaderCells    = "table thead tr th"
	selectorTableRows      = "div.table-container > table.table > tbody tr"
	selectorDateCell       = "td:nth-child(1)"
	// the 5th column is "Close" in the Date/Open/High/Low/Close/Volume
	// layout. Positional, so a site layout change breaks it; see
	// headersLookSane below for the early warning.
	selectorCloseCell = "td:nth-child(5)"
)

// NavigationError means the page never reached a scrapeable state.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %s", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ContentRetrievalError means navigation succeeded but no markup came back.
type ContentRetrievalError struct {
	URL string
	Err error
}

func (e *ContentRetrievalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to retrieve content of %s: %s", e.URL, e.Err)
	}
	return fmt.Sprintf("retrieved empty content from %s", e.URL)
}

func (e *ContentRetrievalError) Unwrap() error { return e.Err }

type Options struct {
	// BaseURL overrides DefaultBaseURL, mostly for tests.
	BaseURL string
	// SettleDelay overrides DefaultSettleDelay. Negative disables the wait.
	SettleDelay time.Duration
}

type Client struct {
	baseURL     string
	settleDelay time.Duration
}

func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:     opts.BaseURL,
		settleDelay: opts.SettleDelay,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.settleDelay == 0 {
		c.settleDelay = DefaultSettleDelay
	}
	return c
}

// HistoryRequest bounds one table scrape. Start is the chronologically
// recent bound, End the older one.
type HistoryRequest struct {
	CurrencyPair string
	Start        time.Time
	End          time.Time
}

// RawRow is the verbatim text of one retained table row.
type RawRow struct {
	DateText  string
	CloseText string
}

type History struct {
	URL     string
	Headers []string
	Rows    []RawRow
}

// HistoryURL renders the outbound URL for a request.
func (c *Client) HistoryURL(req HistoryRequest) string {
	return fmt.Sprintf(
		c.baseURL,
		req.CurrencyPair,
		timeutil.DateToUnix(req.End),
		timeutil.DateToUnix(req.Start),
	)
}

// FetchHistory navigates the session to the history page and extracts the
// header texts and every row whose date parses and falls inside
// [End, Start]. Rows that fail to parse are skipped, never fatal. The caller
// owns the session and is responsible for closing it.
func (c *Client) FetchHistory(ctx context.Context, session browser.Session, req HistoryRequest) (History, error) {
	ctx, span := tracer.Start(ctx, "client:FetchHistory")
	defer span.End()

	hist := History{URL: c.HistoryURL(req)}

	slog.InfoContext(ctx, "navigating to currency history page",
		"pair", req.CurrencyPair,
		"url", hist.URL,
	)
	if err := session.Navigate(ctx, hist.URL); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigation failed")
		return hist, &NavigationError{URL: hist.URL, Err: err}
	}

	if err := session.WaitForSelector(ctx, selectorMainContainer); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "landmark never appeared")
		return hist, &NavigationError{URL: hist.URL, Err: err}
	}
	if err := session.WaitForSelector(ctx, selectorTableContainer); err != nil {
		// the main container is the landmark; a missing table container just
		// means zero rows further down.
		slog.WarnContext(ctx, "table container not confirmed", "err", err)
	}

	if c.settleDelay > 0 {
		select {
		case <-ctx.Done():
			return hist, &NavigationError{URL: hist.URL, Err: ctx.Err()}
		case <-time.After(c.settleDelay):
		}
	}

	content, err := session.Content(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "content retrieval failed")
		return hist, &ContentRetrievalError{URL: hist.URL, Err: err}
	}
	if content == "" {
		span.SetStatus(codes.Error, "empty content")
		return hist, &ContentRetrievalError{URL: hist.URL}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return hist, &ContentRetrievalError{URL: hist.URL, Err: err}
	}

	doc.Find(selectorHeaderCells).Each(func(_ int, sel *goquery.Selection) {
		text := htmlutil.CellText(sel)
		if text != "" {
			hist.Headers = append(hist.Headers, text)
		}
	})
	if !headersLookSane(hist.Headers) {
		slog.WarnContext(ctx, "unexpected table headers, close column position may be wrong",
			"headers", hist.Headers,
		)
	}

	doc.Find(selectorTableRows).Each(func(_ int, row *goquery.Selection) {
		dateText := htmlutil.CellText(row.Find(selectorDateCell))
		closeText := htmlutil.CellText(row.Find(selectorCloseCell))
		if dateText == "" || closeText == "" {
			return
		}

		date, ok := timeutil.ParseDateString(dateText)
		if !ok {
			slog.WarnContext(ctx, "skipping row with unparsable date", "date", dateText)
			return
		}
		if date.After(req.Start) || date.Before(req.End) {
			return
		}

		hist.Rows = append(hist.Rows, RawRow{DateText: dateText, CloseText: closeText})
	})

	slog.InfoContext(ctx, "extracted history rows",
		"pair", req.CurrencyPair,
		"rows", len(hist.Rows),
		"headers", len(hist.Headers),
	)
	return hist, nil
}

// headersLookSane checks that the header row still carries a "Close" column
// where the positional cell selector expects one.
func headersLookSane(headers []string) bool {
	if len(headers) == 0 {
		// no thead at all happens on partial renders; rows decide then.
		return true
	}
	for idx, header := range headers {
		if strings.HasPrefix(strings.ToLower(header), "close") {
			return idx == 4
		}
	}
	return false
}
