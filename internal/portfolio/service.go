// Package portfolio ties investors and their purchases to the price store.
package portfolio

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"PortfolioSentinel/internal/logging"
	"PortfolioSentinel/internal/model"
	"PortfolioSentinel/internal/recorder"
	"PortfolioSentinel/internal/store"
	"PortfolioSentinel/internal/valuation"
)

// Holding is one purchase with its value curve and latest valuation.
type Holding struct {
	Purchase model.PurchaseRecord
	Curve    model.ValueCurve
	// Latest is the last curve value, zero when the curve is empty.
	Latest decimal.Decimal
	// Gain is Latest minus cost, zero when the curve is empty.
	Gain decimal.Decimal
}

// Report is an investor's holdings valued against the store.
type Report struct {
	Investor  model.Investor
	Holdings  []Holding
	TotalCost decimal.Decimal
	// TotalValue sums the latest value of the holdings that have one.
	TotalValue decimal.Decimal
}

// Curves returns the value curve of every holding, in purchase order.
func (r *Report) Curves() []model.ValueCurve {
	out := make([]model.ValueCurve, len(r.Holdings))
	for i, h := range r.Holdings {
		out[i] = h.Curve
	}
	return out
}

// Service manages investors and values their purchases.
type Service struct {
	recorder recorder.PortfolioRecorder
	store    *store.Store
	logger   *logging.Logger
}

// NewService creates a portfolio service.
func NewService(rec recorder.PortfolioRecorder, st *store.Store, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewSilentLogger()
	}
	return &Service{recorder: rec, store: st, logger: logger.With("portfolio")}
}

// AddInvestor creates and persists an investor.
func (s *Service) AddInvestor(ctx context.Context, firstName, lastName, address, phone string) (*model.Investor, error) {
	inv, err := model.NewInvestor(firstName, lastName, address, phone)
	if err != nil {
		return nil, err
	}
	if err := s.recorder.SaveInvestor(ctx, inv); err != nil {
		return nil, fmt.Errorf("save investor: %w", err)
	}
	s.logger.Info().Str("investor", inv.ID).Str("name", inv.FullName()).Msg("investor added")
	return inv, nil
}

// AddPurchases persists purchases after checking that each one belongs to an
// existing investor.
func (s *Service) AddPurchases(ctx context.Context, purchases []model.PurchaseRecord) error {
	known := make(map[string]bool)
	for _, p := range purchases {
		if known[p.InvestorID] {
			continue
		}
		if _, err := s.recorder.GetInvestor(ctx, p.InvestorID); err != nil {
			return fmt.Errorf("purchase %s: investor %s: %w", p.ID, p.InvestorID, err)
		}
		known[p.InvestorID] = true
	}
	if err := s.recorder.SavePurchases(ctx, purchases); err != nil {
		return fmt.Errorf("save purchases: %w", err)
	}
	s.logger.Info().Int("purchases", len(purchases)).Msg("purchases added")
	return nil
}

// Curves values every purchase of investorID against the current store
// snapshots. Purchases are valued in parallel; the result keeps purchase order.
func (s *Service) Curves(ctx context.Context, investorID string) ([]model.ValueCurve, error) {
	rep, err := s.Report(ctx, investorID)
	if err != nil {
		return nil, err
	}
	return rep.Curves(), nil
}

// Report loads investorID and values its purchases.
func (s *Service) Report(ctx context.Context, investorID string) (*Report, error) {
	inv, err := s.recorder.GetInvestor(ctx, investorID)
	if err != nil {
		return nil, fmt.Errorf("investor %s: %w", investorID, err)
	}
	purchases, err := s.recorder.ListPurchases(ctx, investorID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}

	holdings := make([]Holding, len(purchases))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range purchases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			series := s.store.Snapshot(p.Symbol).Points()
			curve := valuation.ValueOverTime(p, series)
			h := Holding{Purchase: p, Curve: curve}
			if last, ok := curve.Last(); ok {
				h.Latest = last.Value
				h.Gain = last.Value.Sub(p.Cost())
			}
			holdings[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{Investor: *inv, Holdings: holdings}
	for _, h := range holdings {
		rep.TotalCost = rep.TotalCost.Add(h.Purchase.Cost())
		rep.TotalValue = rep.TotalValue.Add(h.Latest)
	}
	s.logger.Debug().Str("investor", investorID).Int("holdings", len(holdings)).Msg("valued")
	return rep, nil
}
