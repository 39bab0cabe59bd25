// Package forex runs the end-to-end extraction pipeline: validate a request,
// scrape the history table through a browser session, normalize the raw rows
// into typed data points, and hand them to the exporter.
package forex

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"fxhistory-backend/lib/browser"
	"fxhistory-backend/lib/exporter"
	"fxhistory-backend/lib/scrapers/yahoofinance"
	"fxhistory-backend/lib/timeutil"

	"go.opentelemetry.io/otel/codes"
)

type ServiceOptions struct {
	// Launcher opens browser sessions for scraping. Required.
	Launcher browser.Launcher
	// Scraper defaults to a client with stock URL and settle delay.
	Scraper *yahoofinance.Client
	// Exporter defaults to one writing into the current directory.
	Exporter *exporter.Exporter
}

type Service struct {
	launcher browser.Launcher
	scraper  *yahoofinance.Client
	exporter *exporter.Exporter
}

func NewService(opts ServiceOptions) *Service {
	s := &Service{
		launcher: opts.Launcher,
		scraper:  opts.Scraper,
		exporter: opts.Exporter,
	}
	if s.scraper == nil {
		s.scraper = yahoofinance.NewClient(yahoofinance.Options{})
	}
	if s.exporter == nil {
		s.exporter = exporter.New(exporter.Options{OutputDir: "."})
	}
	return s
}

// Extract runs one extraction end to end. It never returns an error: any
// failure comes back as Result{Success: false} with the message filled in, so
// a caller can always render the outcome the same way.
func (s *Service) Extract(ctx context.Context, req Request) Result {
	ctx, span := tracer.Start(ctx, "forex:Extract")
	defer span.End()

	extractedAt := time.Now().UTC()
	fail := func(url string, err error) Result {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		slog.ErrorContext(ctx, "extraction failed",
			"pair", req.CurrencyPair,
			"err", err,
		)
		return Result{
			Metadata: Metadata{
				ExtractedAt:  extractedAt,
				CurrencyPair: req.CurrencyPair,
				RangeStart:   req.StartDate,
				RangeEnd:     req.EndDate,
				URL:          url,
			},
			ErrorMessage: err.Error(),
		}
	}

	scrapeReq := yahoofinance.HistoryRequest{
		CurrencyPair: req.CurrencyPair,
		Start:        req.StartDate,
		End:          req.EndDate,
	}

	session, err := s.launcher.NewSession(ctx)
	if err != nil {
		return fail(s.scraper.HistoryURL(scrapeReq), err)
	}
	defer session.Close()

	hist, err := s.scraper.FetchHistory(ctx, session, scrapeReq)
	if err != nil {
		return fail(hist.URL, err)
	}

	points := normalizeRows(ctx, hist.Rows)
	result := assembleResult(req, hist, points, extractedAt)

	if req.OutputFile != "" || len(points) > 0 {
		result.Exports = s.exporter.Export(ctx, exporter.Request{
			Filename:     req.OutputFile,
			CurrencyPair: req.CurrencyPair,
			Append:       req.AppendToFile,
			Format:       req.Format,
			ExtractedAt:  extractedAt,
		}, exportRows(result.DataPoints))
	}

	slog.InfoContext(ctx, "extraction complete",
		"pair", req.CurrencyPair,
		"points", len(result.DataPoints),
		"exports", len(result.Exports),
	)
	return result
}

// normalizeRows turns raw table text into typed data points. Rows that fail
// to parse are logged and dropped; one bad row never sinks the batch.
func normalizeRows(ctx context.Context, rows []yahoofinance.RawRow) []PriceDataPoint {
	points := make([]PriceDataPoint, 0, len(rows))
	for _, row := range rows {
		date, ok := timeutil.ParseDateString(row.DateText)
		if !ok {
			slog.WarnContext(ctx, "dropping row with unparsable date", "date", row.DateText)
			continue
		}
		point, err := NewPriceDataPoint(date, row.DateText, row.CloseText)
		if err != nil {
			slog.WarnContext(ctx, "dropping invalid data point",
				"date", row.DateText,
				"err", err,
			)
			continue
		}
		points = append(points, point)
	}
	return points
}

// assembleResult sorts the points oldest-first and recomputes the metadata
// range from the data actually extracted, which can be narrower than the
// requested range.
func assembleResult(req Request, hist yahoofinance.History, points []PriceDataPoint, extractedAt time.Time) Result {
	slices.SortFunc(points, func(a, b PriceDataPoint) int {
		return a.Date.Compare(b.Date)
	})

	meta := Metadata{
		ExtractedAt:  extractedAt,
		CurrencyPair: req.CurrencyPair,
		RangeStart:   req.StartDate,
		RangeEnd:     req.EndDate,
		Headers:      hist.Headers,
		URL:          hist.URL,
		TotalPoints:  len(points),
	}
	if len(points) > 0 {
		meta.RangeEnd = points[0].Date
		meta.RangeStart = points[len(points)-1].Date
	}

	return Result{
		DataPoints: points,
		Metadata:   meta,
		Success:    true,
	}
}

func exportRows(points []PriceDataPoint) []exporter.Row {
	rows := make([]exporter.Row, len(points))
	for i, point := range points {
		rows[i] = exporter.Row{
			Date:  point.DateString,
			Close: point.ClosePrice.String(),
		}
	}
	return rows
}
