package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"PortfolioSentinel/internal/date"
	"PortfolioSentinel/internal/model"
)

// ErrMalformedRecord matches any MalformedRecordError via errors.Is.
var ErrMalformedRecord = errors.New("malformed price record")

// MalformedRecordError rejects a single record of an ingestion batch.
type MalformedRecordError struct {
	Index  int // position in the batch
	Symbol string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("record %d (%s): %s", e.Index, e.Symbol, e.Reason)
}

func (e *MalformedRecordError) Is(target error) bool { return target == ErrMalformedRecord }

// IngestResult summarizes one Ingest call. Duplicates are not errors.
type IngestResult struct {
	Symbol     string
	Inserted   int
	Duplicates int
	Rejected   int
	Errors     []error // one MalformedRecordError per rejected record
}

// Ingest adds every well-formed quote whose date is not yet present for
// symbol. Malformed quotes are rejected individually; already known dates
// (including repeats within the batch, first one wins) are skipped. Calling
// Ingest again with the same quotes inserts nothing.
//
// Accepted points are written to the backend before they become visible. If
// the backend fails the batch is not published and an
// UpstreamUnavailableError is returned.
func (s *Store) Ingest(ctx context.Context, symbol string, quotes []model.RawQuote) (IngestResult, error) {
	symbol = model.NormalizeSymbol(symbol)
	res := IngestResult{Symbol: symbol}
	if symbol == "" {
		return res, errors.New("ingest: empty symbol")
	}

	p := s.partition(symbol, true)
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[date.Date]struct{}, len(quotes))
	fresh := make([]model.PricePoint, 0, len(quotes))
	for i, q := range quotes {
		pt, err := normalize(symbol, i, q)
		if err != nil {
			res.Rejected++
			res.Errors = append(res.Errors, err)
			continue
		}
		if _, dup := p.dates[pt.Date]; dup {
			res.Duplicates++
			continue
		}
		if _, dup := seen[pt.Date]; dup {
			res.Duplicates++
			continue
		}
		seen[pt.Date] = struct{}{}
		fresh = append(fresh, pt)
	}

	if len(fresh) > 0 {
		slices.SortFunc(fresh, func(a, b model.PricePoint) int { return a.Date.Compare(b.Date) })
		written, err := s.backend.SavePricePoints(ctx, fresh)
		if err != nil {
			return res, model.Upstream("price storage", err)
		}
		if written < len(fresh) {
			s.logger.Debug().Str("symbol", symbol).Int("written", written).Int("accepted", len(fresh)).
				Msg("backend already held some points")
		}
		p.publish(fresh)
		res.Inserted = len(fresh)
	}

	s.logger.Info().
		Str("symbol", symbol).
		Int("inserted", res.Inserted).
		Int("duplicates", res.Duplicates).
		Int("rejected", res.Rejected).
		Msg("ingest")
	return res, nil
}

func normalize(symbol string, index int, q model.RawQuote) (model.PricePoint, error) {
	reject := func(format string, args ...any) (model.PricePoint, error) {
		return model.PricePoint{}, &MalformedRecordError{Index: index, Symbol: symbol, Reason: fmt.Sprintf(format, args...)}
	}

	if q.Symbol != "" && model.NormalizeSymbol(q.Symbol) != symbol {
		return reject("symbol %q does not belong to this batch", q.Symbol)
	}

	var d date.Date
	if q.Timestamp != 0 {
		d = date.FromUnix(q.Timestamp, q.UTCOffset)
	} else {
		parsed, err := date.Parse(q.Date)
		if err != nil {
			return reject("%v", err)
		}
		d = parsed
	}

	if !q.Close.Valid {
		return reject("missing close price on %s", d)
	}
	if q.Close.Decimal.IsNegative() {
		return reject("negative close price %s on %s", q.Close.Decimal, d)
	}

	return model.PricePoint{
		Symbol: symbol,
		Date:   d,
		Open:   q.Open.Decimal,
		High:   q.High.Decimal,
		Low:    q.Low.Decimal,
		Close:  q.Close.Decimal,
		Volume: q.Volume.Decimal,
	}, nil
}
