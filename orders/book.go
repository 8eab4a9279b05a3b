package orders

import (
	"fmt"
	"slices"
	"time"

	"github.com/rustyeddy/papertrader/fees"
	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/market"
)

// Options tune how the book prices and settles orders.
type Options struct {
	Fees fees.Schedule

	// RefundSurplus credits a filled buy's unused escrow back to cash. The
	// escrow is priced at the limit while the fill is priced at the close,
	// so the surplus is never negative.
	RefundSurplus bool

	// NewID mints order and trade ids.
	NewID func() string
}

// Book is the order collection of one session. It is not safe for
// concurrent use; the session serializes access.
type Book struct {
	opts   Options
	orders []Order
}

func NewBook(opts Options) *Book {
	return &Book{opts: opts}
}

// Place validates and records a new pending order. Buys escrow their
// estimated total cost from l; sells only need enough unfrozen shares. The
// updated ledger is returned; on error l is returned unchanged and no order
// is recorded.
func (b *Book) Place(l ledger.Ledger, side market.Side, price float64, qty int64, barIndex int, at time.Time) (ledger.Ledger, Order, error) {
	if !side.Valid() || price <= 0 || qty <= 0 {
		return l, Order{}, fmt.Errorf("%w: side=%q price=%v quantity=%d", ErrInvalidOrder, side, price, qty)
	}

	o := Order{
		Side:       side,
		LimitPrice: price,
		Quantity:   qty,
		Status:     Pending,
		BarIndex:   barIndex,
		Time:       at,
	}

	switch side {
	case market.Buy:
		cost := ledger.Cents(b.opts.Fees.BuyCost(price, qty))
		next, err := l.Escrow(cost)
		if err != nil {
			return l, Order{}, fmt.Errorf("place buy: %w", err)
		}
		o.Escrow = cost
		l = next

	case market.Sell:
		if avail := l.Shares - b.FrozenShares(); qty > avail {
			return l, Order{}, fmt.Errorf("place sell: %w: want %d, available %d",
				ledger.ErrInsufficientShares, qty, avail)
		}
	}

	o.ID = b.opts.NewID()
	b.orders = append(b.orders, o)
	return l, o, nil
}

// Cancel marks a pending order cancelled. A buy's escrow is returned to the
// ledger; a sell releases its frozen shares simply by no longer being
// pending.
func (b *Book) Cancel(l ledger.Ledger, id string) (ledger.Ledger, Order, error) {
	i := b.index(id)
	if i < 0 {
		return l, Order{}, fmt.Errorf("cancel %q: %w", id, ErrOrderNotFound)
	}
	o := b.orders[i]
	if !o.IsPending() {
		return l, o, fmt.Errorf("cancel %q (%s): %w", id, o.Status, ErrOrderNotPending)
	}

	if o.Side == market.Buy {
		l = l.Credit(o.Escrow)
	}
	o.Status = Cancelled
	b.orders[i] = o
	return l, o, nil
}

// Match runs one matching pass against bar and commits the result.
func (b *Book) Match(l ledger.Ledger, bar market.Bar, barIndex int) Result {
	res := Match(b.orders, l, bar, barIndex, b.opts)
	b.orders = res.Orders
	return res
}

// Get returns the order with the given id.
func (b *Book) Get(id string) (Order, bool) {
	i := b.index(id)
	if i < 0 {
		return Order{}, false
	}
	return b.orders[i], true
}

// Orders returns a copy of every order in placement order.
func (b *Book) Orders() []Order {
	return slices.Clone(b.orders)
}

// Pending returns the orders still waiting to fill.
func (b *Book) Pending() []Order {
	var out []Order
	for _, o := range b.orders {
		if o.IsPending() {
			out = append(out, o)
		}
	}
	return out
}

// FrozenShares is the quantity reserved by pending sells.
func (b *Book) FrozenShares() int64 {
	return frozenShares(b.orders)
}

// FrozenCash is the escrow held by pending buys.
func (b *Book) FrozenCash() float64 {
	var sum float64
	for _, o := range b.orders {
		if o.IsPending() && o.Side == market.Buy {
			sum += o.Escrow
		}
	}
	return sum
}

func (b *Book) index(id string) int {
	return slices.IndexFunc(b.orders, func(o Order) bool { return o.ID == id })
}

func frozenShares(orders []Order) int64 {
	var n int64
	for _, o := range orders {
		if o.IsPending() && o.Side == market.Sell {
			n += o.Remaining()
		}
	}
	return n
}
