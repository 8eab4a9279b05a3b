package journal

import (
	"sync"
	"time"

	"github.com/rustyeddy/papertrader/sim"
)

// Observer writes session events to a journal: every fill, one equity
// snapshot per bar and the final result.
type Observer struct {
	J              Journal
	InitialBalance float64

	// OnError is told about write failures. The session is never
	// interrupted by them.
	OnError func(error)

	// Now stamps results. Defaults to time.Now.
	Now func() time.Time

	mu    sync.Mutex
	start time.Time
}

func NewObserver(j Journal, initialBalance float64) *Observer {
	return &Observer{J: j, InitialBalance: initialBalance}
}

func (o *Observer) Observe(e sim.Event) {
	s := e.Snapshot
	var err error

	switch e.Kind {
	case sim.EventStart:
		o.mu.Lock()
		o.start = s.Time
		o.mu.Unlock()
		err = o.J.RecordEquity(equity(e))

	case sim.EventFill:
		err = o.J.RecordFill(NewFillRecord(e.SessionID, s.Instrument.Code, *e.Trade))

	case sim.EventAdvance:
		if s.Index < s.Length {
			err = o.J.RecordEquity(equity(e))
		}

	case sim.EventEnd:
		now := time.Now
		if o.Now != nil {
			now = o.Now
		}
		o.mu.Lock()
		start := o.start
		o.mu.Unlock()
		err = o.J.RecordResult(ResultRecord{
			SessionID:      e.SessionID,
			Instrument:     s.Instrument.Code,
			Start:          start,
			End:            s.Time,
			InitialBalance: o.InitialBalance,
			Created:        now().UTC(),
			Result:         *e.Result,
		})
	}

	if err != nil && o.OnError != nil {
		o.OnError(err)
	}
}

func equity(e sim.Event) EquitySnapshot {
	s := e.Snapshot
	return EquitySnapshot{
		SessionID:   e.SessionID,
		BarIndex:    s.Index,
		Time:        s.Time,
		Cash:        s.Cash,
		FrozenCash:  s.FrozenCash,
		Shares:      s.Shares,
		Price:       s.Price,
		TotalAssets: s.TotalAssets,
	}
}
