package yahoofinance

import (
	"context"
	"errors"
	"testing"
	"time"

	"fxhistory-backend/lib/browser"

	"github.com/stretchr/testify/require"
)

const fixturePage = `<html><body>
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
        <tr><td>garbage date</td><td>1.06</td><td>1.07</td><td>1.05</td><td>1.0700</td><td>1.0700</td><td>0</td></tr>
        <tr><td>Mar 13, 2023</td><td></td><td></td><td></td><td></td><td></td><td></td></tr>
        <tr><td>Dec 31, 2022</td><td>1.02</td><td>1.03</td><td>1.01</td><td>1.0210</td><td>1.0210</td><td>0</td></tr>
        <tr><td>Mar 12, 2023</td><td>1.03</td><td>1.05</td><td>1.02</td><td>1.0388</td><td>1.0388</td><td>0</td></tr>
      </tbody>
    </table>
  </div>
</div></section>
</body></html>`

func testRequest() HistoryRequest {
	return HistoryRequest{
		CurrencyPair: "USDEUR",
		Start:        time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testClient() *Client {
	return NewClient(Options{SettleDelay: -1})
}

func TestHistoryURL(t *testing.T) {
	url := testClient().HistoryURL(testRequest())
	// period1 = end (older bound), period2 = start (recent bound).
	require.Equal(
		t,
		"https://finance.yahoo.com/quote/USDEUR=X/history/?period1=1672531200&period2=1703980800",
		url,
	)
}

func TestFetchHistory(t *testing.T) {
	launcher := &browser.FakedLauncher{HTML: fixturePage}
	session, err := launcher.NewSession(context.Background())
	require.NoError(t, err)
	defer session.Close()

	hist, err := testClient().FetchHistory(context.Background(), session, testRequest())
	require.NoError(t, err)

	require.Equal(
		t,
		[]string{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"},
		hist.Headers,
	)

	// garbage date skipped, blank close skipped, out-of-range row dropped.
	require.Equal(t, []RawRow{
		{DateText: "Mar 15, 2023", CloseText: "1.0650"},
		{DateText: "Mar 14, 2023", CloseText: "1,071.25"},
		{DateText: "Mar 12, 2023", CloseText: "1.0388"},
	}, hist.Rows)

	require.Equal(t, []string{hist.URL}, launcher.VisitedURLs)
}

func TestFetchHistoryNavigationFailure(t *testing.T) {
	launcher := &browser.FakedLauncher{NavigateErr: errors.New("dns failure")}
	session, err := launcher.NewSession(context.Background())
	require.NoError(t, err)
	defer session.Close()

	_, err = testClient().FetchHistory(context.Background(), session, testRequest())
	var navErr *NavigationError
	require.ErrorAs(t, err, &navErr)
}

func TestFetchHistoryMissingLandmark(t *testing.T) {
	launcher := &browser.FakedLauncher{
		HTML: fixturePage,
		Selectors: map[string]bool{
			selectorTableContainer: true,
		},
	}
	session, err := launcher.NewSession(context.Background())
	require.NoError(t, err)
	defer session.Close()

	_, err = testClient().FetchHistory(context.Background(), session, testRequest())
	var navErr *NavigationError
	require.ErrorAs(t, err, &navErr)
}

func TestFetchHistoryEmptyContent(t *testing.T) {
	launcher := &browser.FakedLauncher{ContentEmpty: true}
	session, err := launcher.NewSession(context.Background())
	require.NoError(t, err)
	defer session.Close()

	_, err = testClient().FetchHistory(context.Background(), session, testRequest())
	var contentErr *ContentRetrievalError
	require.ErrorAs(t, err, &contentErr)
}

func TestHeadersLookSane(t *testing.T) {
	require.True(t, headersLookSane([]string{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"}))
	require.True(t, headersLookSane([]string{"Date", "Open", "High", "Low", "Close*", "Volume"}))
	require.True(t, headersLookSane(nil))
	require.False(t, headersLookSane([]string{"Date", "Close"}))
	require.False(t, headersLookSane([]string{"Date", "Open", "High", "Low", "Last", "Volume"}))
}
