package orders

import (
	"slices"

	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/market"
)

// Result is the outcome of one matching pass.
type Result struct {
	Orders []Order
	Ledger ledger.Ledger
	Trades []Trade

	// Skipped holds sells that were eligible but could not be covered by
	// the shares left after the other pending sells. They stay pending.
	Skipped []string
}

// Match folds the pending orders over bar and returns the new order list,
// ledger and trades. The inputs are not modified.
//
// Orders execute at the bar close, not at their limit, and fill their whole
// remaining quantity or not at all. Buys were paid for at placement, so a
// buy fill only books shares and cost. A bar without a positive close
// matches nothing.
func Match(orders []Order, l ledger.Ledger, bar market.Bar, barIndex int, opts Options) Result {
	res := Result{Orders: slices.Clone(orders), Ledger: l}
	price := bar.Close
	if price <= 0 {
		return res
	}

	for i, o := range res.Orders {
		if !o.IsPending() || !o.Eligible(price) {
			continue
		}
		qty := o.Remaining()

		t := Trade{
			OrderID:  o.ID,
			Side:     o.Side,
			Price:    price,
			Quantity: qty,
			Gross:    price * float64(qty),
			BarIndex: barIndex,
			Time:     bar.Time,
		}

		switch o.Side {
		case market.Buy:
			t.Fees = opts.Fees.Buy(t.Gross)
			res.Ledger = res.Ledger.AddShares(qty, t.Fees.Net())
			if opts.RefundSurplus {
				if surplus := o.Escrow - t.Fees.Net(); surplus > 0 {
					res.Ledger = res.Ledger.Credit(surplus)
				}
			}

		case market.Sell:
			others := frozenShares(res.Orders) - qty
			if res.Ledger.Shares-others < qty {
				res.Skipped = append(res.Skipped, o.ID)
				continue
			}
			t.Fees = opts.Fees.Sell(t.Gross)
			next, soldCost, err := res.Ledger.RemoveShares(qty, t.Fees.Net())
			if err != nil {
				res.Skipped = append(res.Skipped, o.ID)
				continue
			}
			res.Ledger = next
			t.RealizedPnL = t.Gross - soldCost
		}

		o.FilledQuantity = o.Quantity
		o.Status = Filled
		res.Orders[i] = o

		t.ID = opts.NewID()
		res.Trades = append(res.Trades, t)
	}
	return res
}
