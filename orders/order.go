// Package orders owns the order lifecycle of a session: placement with
// escrow, cancellation with refund, and matching pending orders against a
// bar.
package orders

import (
	"errors"
	"time"

	"github.com/rustyeddy/papertrader/fees"
	"github.com/rustyeddy/papertrader/market"
)

var (
	ErrInvalidOrder    = errors.New("invalid order parameters")
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotPending = errors.New("order not pending")
)

type Status string

const (
	Pending   Status = "pending"
	Filled    Status = "filled"
	Cancelled Status = "cancelled"
)

// Order is a limit order. Filled and Cancelled are terminal.
type Order struct {
	ID             string
	Side           market.Side
	LimitPrice     float64
	Quantity       int64
	FilledQuantity int64
	Status         Status
	BarIndex       int       // bar index at placement
	Time           time.Time // bar time at placement

	// Escrow is the cash taken from the ledger when a buy was placed.
	Escrow float64
}

// Remaining is the unfilled quantity.
func (o Order) Remaining() int64 {
	return o.Quantity - o.FilledQuantity
}

func (o Order) IsPending() bool { return o.Status == Pending }

// Eligible reports whether the order would fill against close. Buys fill
// when the limit is at or above the close, sells when it is at or below.
func (o Order) Eligible(close float64) bool {
	switch o.Side {
	case market.Buy:
		return o.LimitPrice >= close
	case market.Sell:
		return o.LimitPrice <= close
	}
	return false
}

// Trade is an executed fill. Trades are never modified once recorded.
type Trade struct {
	ID       string
	OrderID  string
	Side     market.Side
	Price    float64 // execution price
	Quantity int64
	Gross    float64 // Price*Quantity, fees excluded
	Fees     fees.Breakdown

	// RealizedPnL is gross minus the average cost of the sold shares. It
	// is informational and only set on sells.
	RealizedPnL float64

	BarIndex int
	Time     time.Time
}

// TotalFees is the sum of all fee items charged on the trade.
func (t Trade) TotalFees() float64 { return t.Fees.Total() }
