package sim

import (
	"time"

	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/orders"
	"github.com/rustyeddy/papertrader/scoring"
)

// Snapshot is a point-in-time view of a session's account and progress.
type Snapshot struct {
	SessionID  string
	State      State
	Instrument market.Instrument
	Time       time.Time // bar the account is marked at
	Index      int
	Length     int
	Progress   float64 // percent
	Remaining  int
	Speed      int

	Price                float64
	Cash                 float64
	Shares               int64
	CostBasis            float64
	AvgCost              float64
	TotalAssets          float64
	UnrealizedPnL        float64
	UnrealizedPnLPercent float64

	AvailableCash   float64
	FrozenCash      float64
	AvailableShares int64
	FrozenShares    int64
	PendingOrders   int
}

func (s *Session) snapshot() Snapshot {
	price := s.markBar().Close
	frozen := s.book.FrozenShares()
	return Snapshot{
		SessionID:  s.id,
		State:      s.state,
		Instrument: s.instrument,
		Time:       s.markBar().Time,
		Index:      s.index,
		Length:     len(s.bars),
		Progress:   s.progress(),
		Remaining:  s.remaining(),
		Speed:      s.speed,

		Price:                price,
		Cash:                 s.ledger.Cash,
		Shares:               s.ledger.Shares,
		CostBasis:            s.ledger.CostBasis,
		AvgCost:              s.ledger.AvgCost(),
		TotalAssets:          s.ledger.TotalAssets(price),
		UnrealizedPnL:        s.ledger.UnrealizedPnL(price),
		UnrealizedPnLPercent: s.ledger.UnrealizedPnLPercent(price),

		AvailableCash:   s.ledger.Cash,
		FrozenCash:      s.book.FrozenCash(),
		AvailableShares: s.ledger.Shares - frozen,
		FrozenShares:    frozen,
		PendingOrders:   len(s.book.Pending()),
	}
}

func (s *Session) progress() float64 {
	if len(s.bars) == 0 {
		return 0
	}
	return float64(s.index) / float64(len(s.bars)) * 100
}

func (s *Session) remaining() int {
	return len(s.bars) - s.index
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsOver reports whether the session has ended.
func (s *Session) IsOver() bool {
	return s.State() == Ended
}

func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress()
}

func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining()
}

// Result returns the score once the session has ended.
func (s *Session) Result() (scoring.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return scoring.Result{}, false
	}
	return *s.result, true
}

// Orders returns every order of the session in placement order.
func (s *Session) Orders() []orders.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Orders()
}

// Trades returns the trade log.
func (s *Session) Trades() []orders.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]orders.Trade(nil), s.trades...)
}

// CurrentBar returns the bar at the session's index, if there is one.
func (s *Session) CurrentBar() (market.Bar, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index < len(s.bars) {
		return s.bars[s.index], true
	}
	return market.Bar{}, false
}

// Bars returns the session window up to and including the current bar.
func (s *Session) Bars() []market.Bar {
	s.mu.Lock()
	defer s.mu.Unlock()
	end := min(s.index+1, len(s.bars))
	return append([]market.Bar(nil), s.bars[:end]...)
}
