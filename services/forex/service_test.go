package forex

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fxhistory-backend/lib/browser"
	"fxhistory-backend/lib/exporter"
	"fxhistory-backend/lib/scrapers/yahoofinance"
	"fxhistory-backend/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// historyPage carries the four interesting row shapes: in range and valid,
// unparsable date, parsable date with an unusable close, and out of range.
const historyPage = `<html><body>
<section class="gridLayout"><div class="container">
  <div class="table-container">
    <table class="table">
      <thead><tr>
        <th>Date</th><th>Open</th><th>High</th><th>Low</th>
        <th>Close</th><th>Adj Close</th><th>Volume</th>
      </tr></thead>
      <tbody>
        <tr><td>Mar 15, 2023</td><td>1.05</td><td>1.07</td><td>1.04</td><td>1.0650</td><td>1.0650</td><td>0</td></tr>
        <tr><td>Mar 14, 2023</td><td>1.06</td><td>1.08</td><td>1.05</td><td>1,071.25</td><td>1,071.25</td><td>0</td></tr>
        <tr><td>not a date</td><td>1.06</td><td>1.07</td><td>1.05</td><td>1.0700</td><td>1.0700</td><td>0</td></tr>
        <tr><td>Mar 13, 2023</td><td>1.04</td><td>1.06</td><td>1.03</td><td>n/a</td><td>n/a</td><td>0</td></tr>
        <tr><td>Dec 31, 2022</td><td>1.02</td><td>1.03</td><td>1.01</td><td>1.0210</td><td>1.0210</td><td>0</td></tr>
        <tr><td>Mar 12, 2023</td><td>1.03</td><td>1.05</td><td>1.02</td><td>1.0388</td><td>1.0388</td><td>0</td></tr>
      </tbody>
    </table>
  </div>
</div></section>
</body></html>`

func setup(t *testing.T, launcher browser.Launcher) (*Service, string, func()) {
	cleanup := telemetry.SetupForTesting(t, "test:services/forex")

	outputDir := t.TempDir()
	service := NewService(ServiceOptions{
		Launcher: launcher,
		Scraper:  yahoofinance.NewClient(yahoofinance.Options{SettleDelay: -1}),
		Exporter: exporter.New(exporter.Options{OutputDir: outputDir}),
	})
	return service, outputDir, cleanup
}

func validRequest(t *testing.T, format string) Request {
	req, err := NewRequest(RequestParams{
		CurrencyPair: "USDEUR",
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Format:       format,
		MaxStartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return req
}

func TestExtract(t *testing.T) {
	launcher := &browser.FakedLauncher{HTML: historyPage}
	service, _, cleanup := setup(t, launcher)
	defer cleanup()

	result := service.Extract(context.Background(), validRequest(t, "both"))
	require.True(t, result.Success, result.ErrorMessage)

	// unparsable date, unusable close, and out-of-range rows all dropped;
	// the rest sorted oldest-first.
	diff := cmp.Diff(
		[]PriceDataPoint{
			{
				Date:       time.Date(2023, 3, 12, 0, 0, 0, 0, time.UTC),
				ClosePrice: decimal.RequireFromString("1.0388"),
				DateString: "Mar 12, 2023",
			},
			{
				Date:       time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC),
				ClosePrice: decimal.RequireFromString("1071.25"),
				DateString: "Mar 14, 2023",
			},
			{
				Date:       time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC),
				ClosePrice: decimal.RequireFromString("1.0650"),
				DateString: "Mar 15, 2023",
			},
		},
		result.DataPoints,
		cmp.Comparer(func(a, b decimal.Decimal) bool {
			return a.Equal(b)
		}),
	)
	if diff != "" {
		t.Fatalf("unexpected data points:\n%s", diff)
	}

	// metadata range reflects the data, not the request.
	require.Equal(t, result.DataPoints[2].Date, result.Metadata.RangeStart)
	require.Equal(t, result.DataPoints[0].Date, result.Metadata.RangeEnd)
	require.Equal(t, 3, result.Metadata.TotalPoints)
	require.Equal(t, "USDEUR", result.Metadata.CurrencyPair)
	require.Len(t, result.Metadata.Headers, 7)
	require.Equal(t, []string{result.Metadata.URL}, launcher.VisitedURLs)

	require.Len(t, result.Exports, 2)
	for _, export := range result.Exports {
		require.True(t, export.Success, export.ErrorMessage)
		require.Equal(t, 3, export.RowsWritten)
	}
	require.Equal(t, "USDEUR_historical_data.csv", filepath.Base(result.Exports[0].Path))
	require.Equal(t, "USDEUR_historical_data.json", filepath.Base(result.Exports[1].Path))

	require.Equal(t, 0, launcher.OpenSessions)
}

func TestExtractNavigationFailure(t *testing.T) {
	launcher := &browser.FakedLauncher{NavigateErr: context.DeadlineExceeded}
	service, _, cleanup := setup(t, launcher)
	defer cleanup()

	result := service.Extract(context.Background(), validRequest(t, "csv"))
	require.False(t, result.Success)
	require.Contains(t, result.ErrorMessage, "navigation")
	require.Empty(t, result.DataPoints)
	require.Empty(t, result.Exports)
	require.NotEmpty(t, result.Metadata.URL)

	require.Equal(t, 0, launcher.OpenSessions)
}

func TestExtractEmptyTable(t *testing.T) {
	launcher := &browser.FakedLauncher{
		HTML: `<html><body><section class="gridLayout"><div class="container"></div></section></body></html>`,
	}
	service, _, cleanup := setup(t, launcher)
	defer cleanup()

	// no output file requested and zero points extracted: nothing to export.
	result := service.Extract(context.Background(), validRequest(t, "csv"))
	require.True(t, result.Success)
	require.Empty(t, result.DataPoints)
	require.Empty(t, result.Exports)

	// the requested range is echoed back when there is no data to narrow it.
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), result.Metadata.RangeStart)
	require.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), result.Metadata.RangeEnd)
}

func TestExtractExportsEmptyFileWhenRequested(t *testing.T) {
	launcher := &browser.FakedLauncher{
		HTML: `<html><body><section class="gridLayout"><div class="container"></div></section></body></html>`,
	}
	service, outputDir, cleanup := setup(t, launcher)
	defer cleanup()

	req := validRequest(t, "csv")
	req.OutputFile = "empty_range.csv"
	result := service.Extract(context.Background(), req)
	require.True(t, result.Success)
	require.Len(t, result.Exports, 1)
	require.True(t, result.Exports[0].Success)
	require.Equal(t, 0, result.Exports[0].RowsWritten)
	require.Equal(t, filepath.Join(outputDir, "empty_range.csv"), result.Exports[0].Path)
}

func TestResultSummary(t *testing.T) {
	launcher := &browser.FakedLauncher{HTML: historyPage}
	service, _, cleanup := setup(t, launcher)
	defer cleanup()

	result := service.Extract(context.Background(), validRequest(t, "csv"))
	require.True(t, result.Success)
	summary := result.Summary()
	require.Contains(t, summary, "3 data points")
	require.Contains(t, summary, "USDEUR")
	require.True(t, strings.Contains(summary, "Mar 12, 2023") && strings.Contains(summary, "Mar 15, 2023"))
}
