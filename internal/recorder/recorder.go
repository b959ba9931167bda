// Package recorder is the persistence layer for price points, investors and
// purchases.
package recorder

import (
	"context"
	"errors"

	"PortfolioSentinel/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// PriceRecorder persists daily price points.
type PriceRecorder interface {
	// SavePricePoints inserts points whose (symbol, date) is absent and
	// returns how many rows were written.
	SavePricePoints(ctx context.Context, points []model.PricePoint) (int, error)
	// LoadPricePoints returns stored points for symbol, or for every symbol
	// when symbol is empty, ordered by symbol then date.
	LoadPricePoints(ctx context.Context, symbol string) ([]model.PricePoint, error)
}

// PortfolioRecorder persists investors and their purchases.
type PortfolioRecorder interface {
	SaveInvestor(ctx context.Context, inv *model.Investor) error
	GetInvestor(ctx context.Context, id string) (*model.Investor, error)
	ListInvestors(ctx context.Context) ([]model.Investor, error)
	SavePurchases(ctx context.Context, purchases []model.PurchaseRecord) error
	ListPurchases(ctx context.Context, investorID string) ([]model.PurchaseRecord, error)
}

// Recorder is the full persistence collaborator.
type Recorder interface {
	PriceRecorder
	PortfolioRecorder
	Close() error
}
