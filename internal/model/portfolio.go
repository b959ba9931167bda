package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"PortfolioSentinel/internal/date"
)

// Investor owns a set of purchases.
type Investor struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
}

// NewInvestor builds an investor with a fresh ID. It does not persist anything.
func NewInvestor(firstName, lastName, address, phone string) (*Investor, error) {
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if firstName == "" && lastName == "" {
		return nil, errors.New("investor needs a first or last name")
	}
	return &Investor{
		ID:        uuid.NewString(),
		FirstName: firstName,
		LastName:  lastName,
		Address:   strings.TrimSpace(address),
		Phone:     strings.TrimSpace(phone),
	}, nil
}

// FullName returns "First Last" without stray spaces.
func (i *Investor) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// PurchaseRecord is one acquisition of shares. Treat as immutable.
type PurchaseRecord struct {
	ID                   string          `json:"id"`
	InvestorID           string          `json:"investor_id"`
	Symbol               string          `json:"symbol"`
	PurchaseDate         date.Date       `json:"purchase_date"`
	Shares               decimal.Decimal `json:"shares"`
	PurchasePrice        decimal.Decimal `json:"purchase_price"`
	RecordedCurrentValue decimal.Decimal `json:"recorded_current_value"` // as supplied at entry, informational
}

// NewPurchase validates the fields and builds a purchase with a fresh ID.
// It does not persist anything.
func NewPurchase(investorID, symbol string, purchaseDate date.Date, shares, price, currentValue decimal.Decimal) (*PurchaseRecord, error) {
	symbol = NormalizeSymbol(symbol)
	switch {
	case investorID == "":
		return nil, errors.New("purchase needs an investor id")
	case symbol == "":
		return nil, errors.New("purchase needs a symbol")
	case purchaseDate.IsZero():
		return nil, errors.New("purchase needs a date")
	case !shares.IsPositive():
		return nil, fmt.Errorf("share count must be positive, got %s", shares)
	case price.IsNegative():
		return nil, fmt.Errorf("purchase price cannot be negative, got %s", price)
	}
	return &PurchaseRecord{
		ID:                   uuid.NewString(),
		InvestorID:           investorID,
		Symbol:               symbol,
		PurchaseDate:         purchaseDate,
		Shares:               shares,
		PurchasePrice:        price,
		RecordedCurrentValue: currentValue,
	}, nil
}

// Cost is shares times purchase price.
func (p *PurchaseRecord) Cost() decimal.Decimal {
	return p.Shares.Mul(p.PurchasePrice)
}

// ValuePoint is the market value of a holding on one trading day.
type ValuePoint struct {
	Date  date.Date       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// ValueCurve traces one purchase's market value over the available trading days.
type ValueCurve struct {
	PurchaseID string       `json:"purchase_id"`
	InvestorID string       `json:"investor_id"`
	Symbol     string       `json:"symbol"`
	Points     []ValuePoint `json:"points"`
}

// Last returns the most recent point, if any.
func (c *ValueCurve) Last() (ValuePoint, bool) {
	if len(c.Points) == 0 {
		return ValuePoint{}, false
	}
	return c.Points[len(c.Points)-1], true
}
