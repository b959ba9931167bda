package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"PortfolioSentinel/internal/model"
)

// Fetcher retrieves a chart of daily bars from a market-data provider.
type Fetcher interface {
	// FetchChart requests symbol's bars sampled at interval ("1d", "1wk", ...)
	// over rng ("1mo", "1y", "max", ...).
	FetchChart(ctx context.Context, symbol, interval, rng string) (*model.Chart, error)
	Name() string
}

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 2 // requests per second
)

// httpSource carries what every HTTP-backed fetcher needs.
type httpSource struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

// Option configures an HTTP-backed fetcher.
type Option func(*httpSource)

// WithBaseURL overrides the provider endpoint, mostly for tests.
func WithBaseURL(u string) Option {
	return func(s *httpSource) { s.baseURL = u }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(requestsPerSecond int) Option {
	return func(s *httpSource) {
		s.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), max(requestsPerSecond, 1))
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *httpSource) { s.client = c }
}

func newHTTPSource(baseURL, proxyURL string, opts []Option) httpSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	s := httpSource{
		client: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// get performs a rate-limited GET and returns the body of a 200 response.
func (s *httpSource) get(ctx context.Context, endpoint string, header http.Header) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// chartResponse is the chart document returned by both the public Yahoo
// endpoint and its RapidAPI mirror.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func decodeChart(body []byte, symbol string) (*model.Chart, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("api error %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart returned for %s", symbol)
	}

	result := resp.Chart.Result[0]
	chart := &model.Chart{
		Symbol:     symbol,
		GMTOffset:  result.Meta.GMTOffset,
		Timestamps: result.Timestamp,
	}
	if len(result.Indicators.Quote) > 0 {
		q := result.Indicators.Quote[0]
		chart.Open, chart.High, chart.Low, chart.Close, chart.Volume = q.Open, q.High, q.Low, q.Close, q.Volume
	}
	return chart, nil
}
