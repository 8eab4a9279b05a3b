// Package journal persists fills, equity snapshots and session results.
package journal

import (
	"errors"
	"time"

	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/orders"
	"github.com/rustyeddy/papertrader/scoring"
)

var ErrNotFound = errors.New("not found")

// FillRecord is one executed order.
type FillRecord struct {
	TradeID     string
	OrderID     string
	SessionID   string
	Instrument  string
	Side        market.Side
	Price       float64
	Quantity    int64
	Gross       float64
	Fees        float64
	RealizedPnL float64
	BarIndex    int
	Time        time.Time
}

func NewFillRecord(sessionID, instrument string, t orders.Trade) FillRecord {
	return FillRecord{
		TradeID:     t.ID,
		OrderID:     t.OrderID,
		SessionID:   sessionID,
		Instrument:  instrument,
		Side:        t.Side,
		Price:       t.Price,
		Quantity:    t.Quantity,
		Gross:       t.Gross,
		Fees:        t.TotalFees(),
		RealizedPnL: t.RealizedPnL,
		BarIndex:    t.BarIndex,
		Time:        t.Time,
	}
}

// EquitySnapshot is the account marked at one bar's close.
type EquitySnapshot struct {
	SessionID   string
	BarIndex    int
	Time        time.Time
	Cash        float64
	FrozenCash  float64
	Shares      int64
	Price       float64
	TotalAssets float64
}

// ResultRecord is the scorecard of a finished session.
type ResultRecord struct {
	SessionID      string
	Instrument     string
	Start          time.Time
	End            time.Time
	InitialBalance float64
	Created        time.Time

	scoring.Result
}

type Journal interface {
	RecordFill(FillRecord) error
	RecordEquity(EquitySnapshot) error
	RecordResult(ResultRecord) error
	Close() error
}
