package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"PortfolioSentinel/internal/model"
)

const (
	rapidAPIHost    = "apidojo-yahoo-finance-v1.p.rapidapi.com"
	rapidAPIBaseURL = "https://" + rapidAPIHost
)

// RapidAPIFetcher implements Fetcher using the RapidAPI Yahoo Finance mirror,
// which needs an API key and answers with the same chart document.
type RapidAPIFetcher struct {
	httpSource
	APIKey string
	Region string
}

// NewRapidAPIFetcher creates a fetcher authenticated with apiKey.
func NewRapidAPIFetcher(apiKey, proxyURL string, opts ...Option) *RapidAPIFetcher {
	return &RapidAPIFetcher{
		httpSource: newHTTPSource(rapidAPIBaseURL, proxyURL, opts),
		APIKey:     apiKey,
		Region:     "US",
	}
}

func (f *RapidAPIFetcher) Name() string { return "rapidapi" }

func (f *RapidAPIFetcher) FetchChart(ctx context.Context, symbol, interval, rng string) (*model.Chart, error) {
	q := url.Values{}
	q.Set("interval", interval)
	q.Set("symbol", symbol)
	q.Set("range", rng)
	q.Set("region", f.Region)
	endpoint := f.baseURL + "/stock/v2/get-chart?" + q.Encode()

	header := http.Header{}
	header.Set("x-rapidapi-host", rapidAPIHost)
	header.Set("x-rapidapi-key", f.APIKey)

	body, err := f.get(ctx, endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("rapidapi %s: %w", symbol, err)
	}
	chart, err := decodeChart(body, symbol)
	if err != nil {
		return nil, fmt.Errorf("rapidapi %s: %w", symbol, err)
	}
	return chart, nil
}
