// Package store holds the canonical, deduplicated daily price history per symbol.
//
// Each symbol lives in its own partition. Writers to a partition are serialized
// by that partition's mutex; readers load an immutable Series published with an
// atomic swap, so a valuation or fit started against a symbol keeps seeing the
// same version even while ingestion for that symbol appends.
package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"PortfolioSentinel/internal/date"
	"PortfolioSentinel/internal/logging"
	"PortfolioSentinel/internal/model"
	"PortfolioSentinel/internal/recorder"
)

// Series is an immutable, date-ascending view of one symbol's history.
type Series struct {
	Symbol  string
	Version uint64
	points  []model.PricePoint
}

// Points returns the series' points. The slice is shared; do not modify it.
func (s Series) Points() []model.PricePoint { return s.points }

func (s Series) Len() int { return len(s.points) }

// Since returns the suffix of points dated on or after d.
func (s Series) Since(d date.Date) []model.PricePoint {
	i := sort.Search(len(s.points), func(i int) bool { return !s.points[i].Date.Before(d) })
	return s.points[i:]
}

type partition struct {
	mu     sync.Mutex // serializes writers
	dates  map[date.Date]struct{}
	series atomic.Pointer[Series]
}

func newPartition(symbol string) *partition {
	p := &partition{dates: make(map[date.Date]struct{})}
	p.series.Store(&Series{Symbol: symbol})
	return p
}

// publish merges sorted fresh points into the current series and swaps it in.
// Caller holds p.mu.
func (p *partition) publish(fresh []model.PricePoint) {
	cur := p.series.Load()
	merged := make([]model.PricePoint, 0, len(cur.points)+len(fresh))
	merged = append(merged, cur.points...)
	merged = append(merged, fresh...)
	slices.SortStableFunc(merged, func(a, b model.PricePoint) int { return a.Date.Compare(b.Date) })
	for _, pt := range fresh {
		p.dates[pt.Date] = struct{}{}
	}
	p.series.Store(&Series{Symbol: cur.Symbol, Version: cur.Version + 1, points: merged})
}

// Store is the PriceSeriesStore. Construct it with New and pass it explicitly
// to the components that need it.
type Store struct {
	mu         sync.RWMutex // guards partitions map only
	partitions map[string]*partition
	backend    recorder.PriceRecorder
	logger     *logging.Logger
}

// New creates an empty store persisting through backend.
func New(backend recorder.PriceRecorder, logger *logging.Logger) *Store {
	if backend == nil {
		backend = recorder.NewNoopRecorder()
	}
	if logger == nil {
		logger = logging.NewSilentLogger()
	}
	return &Store{
		partitions: make(map[string]*partition),
		backend:    backend,
		logger:     logger.With("store"),
	}
}

func (s *Store) partition(symbol string, create bool) *partition {
	s.mu.RLock()
	p, ok := s.partitions[symbol]
	s.mu.RUnlock()
	if ok || !create {
		return p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok = s.partitions[symbol]; !ok {
		p = newPartition(symbol)
		s.partitions[symbol] = p
	}
	return p
}

// Snapshot returns the current immutable series for symbol. Unknown symbols
// yield an empty series.
func (s *Store) Snapshot(symbol string) Series {
	symbol = model.NormalizeSymbol(symbol)
	p := s.partition(symbol, false)
	if p == nil {
		return Series{Symbol: symbol}
	}
	return *p.series.Load()
}

// Query returns a copy of symbol's points in ascending date order, restricted
// to dates on or after since when since is non-nil.
func (s *Store) Query(symbol string, since *date.Date) []model.PricePoint {
	snap := s.Snapshot(symbol)
	pts := snap.Points()
	if since != nil {
		pts = snap.Since(*since)
	}
	return slices.Clone(pts)
}

// Symbols returns every symbol with a partition, sorted.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.partitions))
	for sym := range s.partitions {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Restore loads every persisted point from the backend into memory without
// writing it back.
func (s *Store) Restore(ctx context.Context) error {
	points, err := s.backend.LoadPricePoints(ctx, "")
	if err != nil {
		return model.Upstream("price storage", err)
	}

	bySymbol := make(map[string][]model.PricePoint)
	for _, pt := range points {
		bySymbol[pt.Symbol] = append(bySymbol[pt.Symbol], pt)
	}
	for sym, pts := range bySymbol {
		p := s.partition(sym, true)
		p.mu.Lock()
		fresh := pts[:0]
		for _, pt := range pts {
			if _, dup := p.dates[pt.Date]; !dup {
				p.dates[pt.Date] = struct{}{}
				fresh = append(fresh, pt)
			}
		}
		p.publish(fresh)
		p.mu.Unlock()
	}
	s.logger.Info().Int("points", len(points)).Int("symbols", len(bySymbol)).Msg("price history restored")
	return nil
}
