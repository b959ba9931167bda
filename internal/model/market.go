package model

import (
	"strings"

	"github.com/shopspring/decimal"

	"PortfolioSentinel/internal/date"
)

// PricePoint is one trading day's quote for a symbol. (Symbol, Date) is its identity.
type PricePoint struct {
	Symbol string          `json:"symbol"`
	Date   date.Date       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// RawQuote is an un-normalized price record as delivered by a feed or a bulk
// file. Timestamp, when non-zero, takes precedence over Date and is read at
// UTCOffset seconds from UTC.
type RawQuote struct {
	Symbol    string
	Date      string
	Timestamp int64
	UTCOffset int
	Open      decimal.NullDecimal
	High      decimal.NullDecimal
	Low       decimal.NullDecimal
	Close     decimal.NullDecimal
	Volume    decimal.NullDecimal
}

// Chart is the market-data feed's response: parallel arrays indexed like
// Timestamps. Missing values are nil.
type Chart struct {
	Symbol     string
	GMTOffset  int
	Timestamps []int64
	Open       []*float64
	High       []*float64
	Low        []*float64
	Close      []*float64
	Volume     []*float64
}

// NormalizeSymbol is the canonical form of a ticker used as a store key.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
