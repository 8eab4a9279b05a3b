// Package sim drives a single-player paper trading session: it steps
// through a fixed window of daily bars, routes player orders to the order
// book and scores the session when it runs out of bars.
package sim

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rustyeddy/papertrader/fees"
	"github.com/rustyeddy/papertrader/internal/id"
	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/orders"
	"github.com/rustyeddy/papertrader/scoring"
)

var (
	ErrNoActiveSession = errors.New("no active session")
	ErrInvalidSession  = errors.New("invalid session")
	ErrInvalidSpeed    = errors.New("invalid speed")

	ErrInsufficientFunds  = ledger.ErrInsufficientFunds
	ErrInsufficientShares = ledger.ErrInsufficientShares
	ErrInvalidOrder       = orders.ErrInvalidOrder
	ErrOrderNotFound      = orders.ErrOrderNotFound
	ErrOrderNotPending    = orders.ErrOrderNotPending
)

type State string

const (
	Idle    State = "idle"
	Running State = "running"
	Paused  State = "paused"
	Ended   State = "ended"
)

// Config holds the per-session settings.
type Config struct {
	InitialBalance float64
	Fees           fees.Schedule
	RefundSurplus  bool
	Speeds         []int

	// NewID mints session, order and trade ids. Defaults to ULIDs.
	NewID func() string
}

func DefaultConfig() Config {
	return Config{
		InitialBalance: 100000,
		Fees:           fees.Default(),
		Speeds:         []int{1, 2, 4},
	}
}

// Session is the whole state of one game. It is safe for concurrent use;
// every method serializes on one mutex. Notifications and observer events
// are delivered after the mutex is released.
type Session struct {
	mu  sync.Mutex
	cfg Config

	id         string
	state      State
	instrument market.Instrument
	bars       []market.Bar
	index      int
	speed      int

	ledger ledger.Ledger
	book   *orders.Book
	trades []orders.Trade
	result *scoring.Result

	notifier  Notifier
	observers []Observer
}

// New returns an idle session. n may be nil.
func New(cfg Config, n Notifier, obs ...Observer) *Session {
	if cfg.NewID == nil {
		cfg.NewID = id.New
	}
	if len(cfg.Speeds) == 0 {
		cfg.Speeds = []int{1}
	}
	s := &Session{cfg: cfg, notifier: n, observers: obs}
	s.clear()
	return s
}

// AddObserver attaches another observer.
func (s *Session) AddObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Session) clear() {
	s.id = ""
	s.state = Idle
	s.instrument = market.Instrument{}
	s.bars = nil
	s.index = 0
	s.speed = 1
	s.ledger = ledger.New(s.cfg.InitialBalance)
	s.book = orders.NewBook(orders.Options{
		Fees:          s.cfg.Fees,
		RefundSurplus: s.cfg.RefundSurplus,
		NewID:         s.cfg.NewID,
	})
	s.trades = nil
	s.result = nil
}

// pending collects what must be delivered once the lock is gone.
type pending struct {
	events        []Event
	notifications []Notification
}

func (s *Session) event(p *pending, kind EventKind) *Event {
	p.events = append(p.events, Event{Kind: kind, SessionID: s.id, Snapshot: s.snapshot()})
	return &p.events[len(p.events)-1]
}

func (s *Session) deliver(p pending) {
	s.mu.Lock()
	obs := slices.Clone(s.observers)
	n := s.notifier
	s.mu.Unlock()

	for _, e := range p.events {
		for _, o := range obs {
			o.Observe(e)
		}
	}
	if n == nil {
		return
	}
	for _, msg := range p.notifications {
		n.Notify(msg)
	}
}

// Start begins a new session over bars at startIndex, discarding whatever
// the session held before.
func (s *Session) Start(inst market.Instrument, bars []market.Bar, startIndex int) error {
	if len(bars) == 0 {
		return fmt.Errorf("%w: no bars for %s", ErrInvalidSession, inst.Code)
	}
	if startIndex < 0 || startIndex >= len(bars) {
		return fmt.Errorf("%w: start index %d outside [0, %d)", ErrInvalidSession, startIndex, len(bars))
	}

	var p pending
	s.mu.Lock()
	s.clear()
	s.id = s.cfg.NewID()
	s.instrument = inst
	s.bars = slices.Clone(bars)
	s.index = startIndex
	s.state = Running
	s.event(&p, EventStart)
	s.mu.Unlock()

	s.deliver(p)
	return nil
}

func (s *Session) active() bool {
	return (s.state == Running || s.state == Paused) && len(s.bars) > 0
}

// Pause stops the clock. Orders can still be placed and cancelled.
func (s *Session) Pause() error {
	return s.toggle(Running, Paused, EventPause)
}

// Resume restarts the clock after Pause.
func (s *Session) Resume() error {
	return s.toggle(Paused, Running, EventResume)
}

func (s *Session) toggle(from, to State, kind EventKind) error {
	var p pending
	s.mu.Lock()
	if !s.active() {
		s.mu.Unlock()
		return ErrNoActiveSession
	}
	if s.state == from {
		s.state = to
		s.event(&p, kind)
	}
	s.mu.Unlock()

	s.deliver(p)
	return nil
}

// SetSpeed changes the playback speed multiplier.
func (s *Session) SetSpeed(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSpeed, n)
	}
	var p pending
	s.mu.Lock()
	s.speed = n
	s.event(&p, EventSpeed)
	s.mu.Unlock()

	s.deliver(p)
	return nil
}

// CycleSpeed moves to the next configured speed and returns it.
func (s *Session) CycleSpeed() int {
	s.mu.Lock()
	next := s.cfg.Speeds[0]
	if i := slices.Index(s.cfg.Speeds, s.speed); i >= 0 {
		next = s.cfg.Speeds[(i+1)%len(s.cfg.Speeds)]
	}
	s.mu.Unlock()

	_ = s.SetSpeed(next)
	return next
}

func (s *Session) Speed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

// Interval is the wall time between two bars at the current speed.
func (s *Session) Interval() time.Duration {
	return time.Second / time.Duration(s.Speed())
}

// Advance moves to the next bar, matches pending orders against it and
// returns the resulting fills. When the bars run out the session ends and
// is scored. Advance does nothing unless the session is running.
func (s *Session) Advance() []orders.Trade {
	var p pending
	s.mu.Lock()
	if s.state != Running || s.index >= len(s.bars) {
		s.mu.Unlock()
		return nil
	}

	s.index++
	var fills []orders.Trade
	if s.index < len(s.bars) {
		res := s.book.Match(s.ledger, s.bars[s.index], s.index)
		s.ledger = res.Ledger
		s.trades = append(s.trades, res.Trades...)
		fills = res.Trades

		for _, t := range res.Trades {
			o, _ := s.book.Get(t.OrderID)
			e := s.event(&p, EventFill)
			e.Trade, e.Order = &t, &o
			p.notifications = append(p.notifications, fillNotification(o, t))
		}
		for _, oid := range res.Skipped {
			o, _ := s.book.Get(oid)
			s.event(&p, EventSkipped).Order = &o
		}
	}
	s.event(&p, EventAdvance)

	if s.index >= len(s.bars) {
		s.end(&p)
	}
	s.mu.Unlock()

	s.deliver(p)
	return fills
}

// End finishes a running or paused session early and scores it at the
// current bar.
func (s *Session) End() (scoring.Result, error) {
	var p pending
	s.mu.Lock()
	if !s.active() {
		s.mu.Unlock()
		return scoring.Result{}, ErrNoActiveSession
	}
	s.end(&p)
	r := *s.result
	s.mu.Unlock()

	s.deliver(p)
	return r, nil
}

func (s *Session) end(p *pending) {
	s.state = Ended
	r := scoring.Score(scoring.Input{
		Bars:           s.bars,
		Trades:         s.trades,
		InitialBalance: s.cfg.InitialBalance,
		FinalIndex:     s.index,
		FinalBalance:   s.ledger.TotalAssets(s.markBar().Close),
	})
	s.result = &r
	s.event(p, EventEnd).Result = &r
}

// Reset discards the session and returns to Idle.
func (s *Session) Reset() {
	var p pending
	s.mu.Lock()
	s.clear()
	s.event(&p, EventReset)
	s.mu.Unlock()

	s.deliver(p)
}

// Place submits a limit order at the current bar and returns its id.
func (s *Session) Place(side market.Side, price float64, qty int64) (string, error) {
	var p pending
	s.mu.Lock()
	if !s.active() {
		s.mu.Unlock()
		return "", ErrNoActiveSession
	}

	next, o, err := s.book.Place(s.ledger, side, price, qty, s.index, s.currentBar().Time)
	if err != nil {
		s.event(&p, EventRejected).Err = err
		s.mu.Unlock()
		s.deliver(p)
		return "", err
	}
	s.ledger = next
	s.event(&p, EventPlaced).Order = &o
	s.mu.Unlock()

	s.deliver(p)
	return o.ID, nil
}

// Cancel withdraws a pending order. A buy's escrow is refunded.
func (s *Session) Cancel(orderID string) error {
	var p pending
	s.mu.Lock()
	if !s.active() {
		s.mu.Unlock()
		return ErrNoActiveSession
	}

	next, o, err := s.book.Cancel(s.ledger, orderID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.ledger = next
	s.event(&p, EventCancelled).Order = &o
	s.mu.Unlock()

	s.deliver(p)
	return nil
}

func (s *Session) currentBar() market.Bar {
	if s.index < len(s.bars) {
		return s.bars[s.index]
	}
	return market.Bar{}
}

// markBar is the bar positions are valued at. Once the window is
// exhausted the last bar is used.
func (s *Session) markBar() market.Bar {
	if s.index < len(s.bars) {
		return s.bars[s.index]
	}
	if n := len(s.bars); n > 0 {
		return s.bars[n-1]
	}
	return market.Bar{}
}
