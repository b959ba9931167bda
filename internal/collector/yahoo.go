package collector

import (
	"context"
	"fmt"
	"net/url"

	"PortfolioSentinel/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooFetcher implements Fetcher using the public Yahoo Finance chart API.
type YahooFetcher struct {
	httpSource
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a Yahoo Finance fetcher with optional proxy support.
func NewYahooFetcher(proxyURL string, opts ...Option) *YahooFetcher {
	return &YahooFetcher{
		httpSource: newHTTPSource(yahooBaseURL, proxyURL, opts),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

func (f *YahooFetcher) FetchChart(ctx context.Context, symbol, interval, rng string) (*model.Chart, error) {
	u := fmt.Sprintf("%s/%s?interval=%s&range=%s",
		f.baseURL, url.PathEscape(f.yahooSymbol(symbol)), url.QueryEscape(interval), url.QueryEscape(rng))

	body, err := f.get(ctx, u, map[string][]string{"User-Agent": {"Mozilla/5.0"}})
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	chart, err := decodeChart(body, symbol)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	return chart, nil
}
