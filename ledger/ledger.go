// Package ledger tracks cash, share position and aggregate cost basis using
// weighted-average cost accounting.
//
// A Ledger is a value. Every operation returns the updated ledger and leaves
// the receiver untouched, so callers can compute a new state and commit it
// only when the whole operation succeeds.
//
// Cash settles in whole fen: every amount that moves cash is rounded to two
// places and the sum is taken in decimal, so debiting and crediting the same
// amount restores the balance exactly.
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
)

// Ledger is the account state of a single-instrument session.
type Ledger struct {
	Cash      float64
	Shares    int64
	CostBasis float64 // total cost, fees included, of the held shares
}

// New returns a ledger holding only cash.
func New(cash float64) Ledger {
	return Ledger{Cash: Cents(cash)}
}

// Cents rounds a cash amount to the fen it settles as.
func Cents(amount float64) float64 {
	return cents(amount).InexactFloat64()
}

func cents(x float64) decimal.Decimal {
	return decimal.NewFromFloat(x).Round(2)
}

func (l Ledger) add(amount decimal.Decimal) Ledger {
	l.Cash = cents(l.Cash).Add(amount).InexactFloat64()
	return l
}

// AvgCost is the cost basis per held share, 0 when flat.
func (l Ledger) AvgCost() float64 {
	if l.Shares <= 0 {
		return 0
	}
	return l.CostBasis / float64(l.Shares)
}

// Debit removes amount from cash without a funds check.
func (l Ledger) Debit(amount float64) Ledger {
	return l.add(cents(amount).Neg())
}

// Credit adds amount to cash.
func (l Ledger) Credit(amount float64) Ledger {
	return l.add(cents(amount))
}

// Escrow removes amount from cash, failing when the cash is not there.
func (l Ledger) Escrow(amount float64) (Ledger, error) {
	if cents(amount).GreaterThan(cents(l.Cash)) {
		return l, fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientFunds, amount, l.Cash)
	}
	return l.Debit(amount), nil
}

// AddShares books a buy of qty shares whose total cost, fees included, is
// cost. Cash is not touched; buys are paid for through Escrow or Debit.
func (l Ledger) AddShares(qty int64, cost float64) Ledger {
	l.Shares += qty
	l.CostBasis += cost
	return l
}

// RemoveShares books a sell of qty shares that raised proceeds (net of
// fees). The cost basis shrinks by the average cost of the sold shares, so
// the average cost of what remains is unchanged. It returns the cost
// attributed to the sold shares.
func (l Ledger) RemoveShares(qty int64, proceeds float64) (Ledger, float64, error) {
	if qty > l.Shares {
		return l, 0, fmt.Errorf("%w: selling %d, holding %d", ErrInsufficientShares, qty, l.Shares)
	}
	soldCost := l.AvgCost() * float64(qty)

	l = l.Credit(proceeds)
	l.Shares -= qty
	l.CostBasis -= soldCost
	if l.Shares == 0 || l.CostBasis < 0 {
		l.CostBasis = 0
	}
	return l, soldCost, nil
}

// MarketValue is the value of the position at price.
func (l Ledger) MarketValue(price float64) float64 {
	return float64(l.Shares) * price
}

// TotalAssets is cash plus the position marked at price.
func (l Ledger) TotalAssets(price float64) float64 {
	return l.Cash + l.MarketValue(price)
}

func (l Ledger) UnrealizedPnL(price float64) float64 {
	return l.MarketValue(price) - l.CostBasis
}

// UnrealizedPnLPercent is UnrealizedPnL relative to the cost basis, 0 when
// there is no cost basis.
func (l Ledger) UnrealizedPnLPercent(price float64) float64 {
	if l.CostBasis == 0 {
		return 0
	}
	return l.UnrealizedPnL(price) / l.CostBasis * 100
}
