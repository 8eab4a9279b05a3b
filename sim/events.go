package sim

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/orders"
	"github.com/rustyeddy/papertrader/scoring"
)

// Notification is a fire-and-forget message for the player, e.g. a toast.
type Notification struct {
	Kind    string
	Title   string
	Message string
	TTL     time.Duration
}

// Notifier receives notifications. Implementations must not call back into
// the session synchronously expecting the state to be locked; deliveries
// happen after the session lock is released.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

const fillTTL = 500 * time.Millisecond

func fillNotification(o orders.Order, t orders.Trade) Notification {
	title := "Buy order filled"
	if t.Side == market.Sell {
		title = "Sell order filled"
	}
	return Notification{
		Kind:    "success",
		Title:   title,
		Message: fmt.Sprintf("limit %.3f, filled %.3f, quantity %d", o.LimitPrice, t.Price, t.Quantity),
		TTL:     fillTTL,
	}
}

type EventKind string

const (
	EventStart     EventKind = "start"
	EventPlaced    EventKind = "placed"
	EventRejected  EventKind = "rejected"
	EventCancelled EventKind = "cancelled"
	EventFill      EventKind = "fill"
	EventSkipped   EventKind = "skipped"
	EventAdvance   EventKind = "advance"
	EventPause     EventKind = "pause"
	EventResume    EventKind = "resume"
	EventSpeed     EventKind = "speed"
	EventEnd       EventKind = "end"
	EventReset     EventKind = "reset"
)

// Event describes something that happened to a session. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind      EventKind
	SessionID string
	Snapshot  Snapshot

	Order  *orders.Order
	Trade  *orders.Trade
	Result *scoring.Result
	Err    error
}

// Observer receives session events for telemetry and journaling. The
// session never depends on an observer for correctness.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// LogObserver logs events through slog.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) Observe(e Event) {
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}
	s := e.Snapshot
	attrs := []any{"session", e.SessionID, "bar", s.Index}

	switch e.Kind {
	case EventPlaced, EventCancelled, EventSkipped:
		log.Info("order "+string(e.Kind), append(attrs,
			"order", e.Order.ID, "side", e.Order.Side,
			"limit", e.Order.LimitPrice, "quantity", e.Order.Quantity,
			"cash", s.Cash, "frozen_shares", s.FrozenShares)...)
	case EventRejected:
		log.Warn("order rejected", append(attrs, "err", e.Err)...)
	case EventFill:
		log.Info("order filled", append(attrs,
			"order", e.Trade.OrderID, "side", e.Trade.Side,
			"price", e.Trade.Price, "quantity", e.Trade.Quantity,
			"fees", e.Trade.TotalFees(), "realized_pnl", e.Trade.RealizedPnL,
			"cash", s.Cash, "shares", s.Shares, "avg_cost", s.AvgCost)...)
	case EventAdvance:
		log.Debug("advance", append(attrs,
			"close", s.Price, "assets", s.TotalAssets, "remaining", s.Remaining)...)
	case EventEnd:
		log.Info("session ended", append(attrs,
			"final_balance", e.Result.FinalBalance, "return_rate", e.Result.ReturnRate,
			"max_drawdown", e.Result.MaxDrawdown, "score", e.Result.Score)...)
	default:
		log.Info("session "+string(e.Kind), append(attrs, "state", s.State, "speed", s.Speed)...)
	}
}
