package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioSentinel/internal/date"
	"PortfolioSentinel/internal/model"
	"PortfolioSentinel/internal/store"
)

// 2024-01-02 and 2024-01-03 14:30 UTC, the third bar has no close.
const chartJSON = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "AAPL", "gmtoffset": -18000},
      "timestamp": [1704205800, 1704292200, 1704378600],
      "indicators": {"quote": [{
        "open":   [187.15, 184.22, 182.15],
        "high":   [188.44, 185.88, 183.09],
        "low":    [183.89, 183.43, 180.88],
        "close":  [185.64, 184.25, null],
        "volume": [82488700, 58414500, 71983600]
      }]}
    }],
    "error": null
  }
}`

func newChartServer(t *testing.T, body string, status int, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestYahooFetcher_FetchChart(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.EscapedPath(), r.URL.RawQuery
		_, _ = w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", WithBaseURL(srv.URL), WithRateLimit(100))
	chart, err := f.FetchChart(context.Background(), "SPX500", "1d", "1mo")
	require.NoError(t, err)

	assert.Equal(t, "/%5EGSPC", gotPath)
	assert.Equal(t, "interval=1d&range=1mo", gotQuery)
	assert.Equal(t, "SPX500", chart.Symbol)
	assert.Equal(t, -18000, chart.GMTOffset)
	require.Len(t, chart.Timestamps, 3)
	require.Len(t, chart.Close, 3)
	assert.InDelta(t, 185.64, *chart.Close[0], 1e-9)
	assert.Nil(t, chart.Close[2])
}

func TestYahooFetcher_Errors(t *testing.T) {
	srv := newChartServer(t, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, http.StatusOK, nil)
	_, err := NewYahooFetcher("", WithBaseURL(srv.URL)).FetchChart(context.Background(), "NOPE", "1d", "1mo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")

	srv = newChartServer(t, "too many requests", http.StatusTooManyRequests, nil)
	_, err = NewYahooFetcher("", WithBaseURL(srv.URL)).FetchChart(context.Background(), "AAPL", "1d", "1mo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestRapidAPIFetcher_SendsKey(t *testing.T) {
	var key, host, sym string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("x-rapidapi-key")
		host = r.Header.Get("x-rapidapi-host")
		sym = r.URL.Query().Get("symbol")
		assert.Equal(t, "/stock/v2/get-chart", r.URL.Path)
		_, _ = w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	f := NewRapidAPIFetcher("secret", "", WithBaseURL(srv.URL))
	chart, err := f.FetchChart(context.Background(), "AAPL", "1d", "1y")
	require.NoError(t, err)
	assert.Equal(t, "secret", key)
	assert.Equal(t, rapidAPIHost, host)
	assert.Equal(t, "AAPL", sym)
	assert.Len(t, chart.Timestamps, 3)
}

func TestChartToQuotes_MissingValues(t *testing.T) {
	v := 10.0
	c := &model.Chart{
		Symbol:     "AAA",
		Timestamps: []int64{1704205800, 1704292200},
		Close:      []*float64{&v},
	}
	quotes := ChartToQuotes(c)
	require.Len(t, quotes, 2)
	assert.True(t, quotes[0].Close.Valid)
	assert.False(t, quotes[0].Open.Valid)
	assert.False(t, quotes[1].Close.Valid, "short array reads as missing")
	assert.Nil(t, ChartToQuotes(nil))
}

func TestCollect_IngestsAndIsIdempotent(t *testing.T) {
	var hits int32
	srv := newChartServer(t, chartJSON, http.StatusOK, &hits)
	st := store.New(nil, nil)
	c := NewCollector(NewYahooFetcher("", WithBaseURL(srv.URL), WithRateLimit(100)), st, nil)

	res, err := c.Collect(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", res.Symbol)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Rejected)

	res, err = c.Collect(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 2, res.Duplicates)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))

	pts := st.Query("AAPL", nil)
	require.Len(t, pts, 2)
	assert.Equal(t, date.New(2024, 1, 2), pts[0].Date)
	assert.Equal(t, "185.64", pts[0].Close.String())
}

func TestCollect_UpstreamFailure(t *testing.T) {
	st := store.New(nil, nil)
	c := NewCollector(&MockFetcher{Err: errors.New("connection refused")}, st, nil)

	_, err := c.Collect(context.Background(), "AAA")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)

	var ue *model.UpstreamUnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "mock", ue.Source)
	assert.Empty(t, st.Query("AAA", nil))
}

func TestCollectAll_ContinuesPastFailures(t *testing.T) {
	st := store.New(nil, nil)
	good := &MockFetcher{Price: 100, Days: 5}
	c := NewCollector(good, st, nil)
	c.Concurrency = 1

	results, err := c.CollectAll(context.Background(), []string{"AAA", "BBB"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 5, results[0].Inserted)
	assert.Equal(t, 5, results[1].Inserted)

	c.Fetcher = &MockFetcher{Err: errors.New("down")}
	_, err = c.CollectAll(context.Background(), []string{"AAA", "BBB"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "AAA") && strings.Contains(err.Error(), "BBB"))
	assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)
}
