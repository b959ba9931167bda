package recorder

import (
	"context"

	"PortfolioSentinel/internal/model"
)

// NoopRecorder discards everything. Used when no database is configured, and
// gives a purely in-memory price store.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) SavePricePoints(_ context.Context, points []model.PricePoint) (int, error) {
	return len(points), nil
}

func (n *NoopRecorder) LoadPricePoints(context.Context, string) ([]model.PricePoint, error) {
	return nil, nil
}

func (n *NoopRecorder) SaveInvestor(context.Context, *model.Investor) error { return nil }

func (n *NoopRecorder) GetInvestor(context.Context, string) (*model.Investor, error) {
	return nil, ErrNotFound
}

func (n *NoopRecorder) ListInvestors(context.Context) ([]model.Investor, error) { return nil, nil }

func (n *NoopRecorder) SavePurchases(context.Context, []model.PurchaseRecord) error { return nil }

func (n *NoopRecorder) ListPurchases(context.Context, string) ([]model.PurchaseRecord, error) {
	return nil, nil
}

func (n *NoopRecorder) Close() error { return nil }
