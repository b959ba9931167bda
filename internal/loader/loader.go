// Package loader reads bulk price history and purchase files.
package loader

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"PortfolioSentinel/internal/date"
	"PortfolioSentinel/internal/model"
)

// priceRecord is one element of a bulk price file.
type priceRecord struct {
	Symbol string      `json:"Symbol"`
	Date   string      `json:"Date"`
	Open   flexDecimal `json:"Open"`
	High   flexDecimal `json:"High"`
	Low    flexDecimal `json:"Low"`
	Close  flexDecimal `json:"Close"`
	Volume flexDecimal `json:"Volume"`
}

// flexDecimal accepts a JSON number, a numeric string or a placeholder such
// as null, "" or "-" for a missing value.
type flexDecimal struct {
	decimal.NullDecimal
}

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if s, err := strconv.Unquote(string(b)); err == nil {
		b = []byte(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	}
	switch string(b) {
	case "", "null", "-":
		f.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	f.NullDecimal = decimal.NewNullDecimal(d)
	return nil
}

// LoadPrices decodes a JSON array of daily records and groups them into raw
// quotes by normalized symbol, keeping file order within each symbol.
// Validation of individual records is left to the store.
func LoadPrices(r io.Reader) (map[string][]model.RawQuote, error) {
	var records []priceRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}

	out := make(map[string][]model.RawQuote)
	for _, rec := range records {
		sym := model.NormalizeSymbol(rec.Symbol)
		out[sym] = append(out[sym], model.RawQuote{
			Symbol: sym,
			Date:   rec.Date,
			Open:   rec.Open.NullDecimal,
			High:   rec.High.NullDecimal,
			Low:    rec.Low.NullDecimal,
			Close:  rec.Close.NullDecimal,
			Volume: rec.Volume.NullDecimal,
		})
	}
	return out, nil
}

// Purchase file columns, matched case-insensitively in any order.
const (
	colSymbol        = "SYMBOL"
	colShares        = "NO_SHARES"
	colPurchasePrice = "PURCHASE_PRICE"
	colCurrentValue  = "CURRENT_VALUE"
	colPurchaseDate  = "PURCHASE_DATE"
)

var requiredColumns = []string{colSymbol, colShares, colPurchasePrice, colCurrentValue, colPurchaseDate}

// RowError reports a purchase row that could not be loaded. Line is the
// 1-based line in the file.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// LoadPurchases reads a purchase CSV for investorID. Rows that fail to parse
// or validate are returned as RowErrors and skipped; the remaining rows are
// loaded. A missing column or unreadable header fails the whole file.
func LoadPurchases(r io.Reader, investorID string) ([]model.PurchaseRecord, []*RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, nil, fmt.Errorf("missing column %s", col)
		}
	}

	var (
		purchases []model.PurchaseRecord
		rowErrs   []*RowError
	)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				rowErrs = append(rowErrs, &RowError{Line: pe.Line, Err: pe.Err})
				continue
			}
			return purchases, rowErrs, fmt.Errorf("read purchases: %w", err)
		}
		if isBlank(row) {
			continue
		}
		line, _ := cr.FieldPos(0)
		p, err := parsePurchase(row, idx, investorID)
		if err != nil {
			rowErrs = append(rowErrs, &RowError{Line: line, Err: err})
			continue
		}
		purchases = append(purchases, *p)
	}
	return purchases, rowErrs, nil
}

func parsePurchase(row []string, idx map[string]int, investorID string) (*model.PurchaseRecord, error) {
	field := func(col string) (string, error) {
		i := idx[col]
		if i >= len(row) {
			return "", fmt.Errorf("missing %s", col)
		}
		return strings.TrimSpace(row[i]), nil
	}
	num := func(col string) (decimal.Decimal, error) {
		s, err := field(col)
		if err != nil {
			return decimal.Zero, err
		}
		d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", ""))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s: %q is not a number", col, s)
		}
		return d, nil
	}

	symbol, err := field(colSymbol)
	if err != nil {
		return nil, err
	}
	rawDate, err := field(colPurchaseDate)
	if err != nil {
		return nil, err
	}
	purchaseDate, err := date.Parse(rawDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", colPurchaseDate, err)
	}
	shares, err := num(colShares)
	if err != nil {
		return nil, err
	}
	price, err := num(colPurchasePrice)
	if err != nil {
		return nil, err
	}
	current, err := num(colCurrentValue)
	if err != nil {
		return nil, err
	}
	return model.NewPurchase(investorID, symbol, purchaseDate, shares, price, current)
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
