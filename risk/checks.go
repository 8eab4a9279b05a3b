package risk

import (
	"fmt"

	"github.com/rustyeddy/papertrader/fees"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/sim"
)

type Violation struct {
	Code string
	Msg  string
}

// Estimate previews an order against a session snapshot without placing
// it.
type Estimate struct {
	Allowed    bool
	Violations []Violation

	Fees        fees.Breakdown
	Total       float64 // buy: cash needed; sell: net proceeds
	MaxQuantity int64
}

func (e *Estimate) add(code, msg string) {
	e.Violations = append(e.Violations, Violation{Code: code, Msg: msg})
	e.Allowed = false
}

// Evaluate prices an order at its limit and reports the reasons the order
// book would reject it. A clean estimate does not guarantee a fill.
func Evaluate(s fees.Schedule, side market.Side, price float64, qty int64, snap sim.Snapshot, lot int64) Estimate {
	e := Estimate{Allowed: true}

	if !side.Valid() {
		e.add("BAD_SIDE", fmt.Sprintf("unknown side %q", side))
		return e
	}
	if price <= 0 {
		e.add("BAD_PRICE", "limit price must be positive")
		return e
	}
	if qty <= 0 {
		e.add("NO_QUANTITY", "quantity must be positive")
		return e
	}
	if lot > 1 && qty%lot != 0 {
		e.add("ODD_LOT", fmt.Sprintf("quantity %d is not a multiple of %d", qty, lot))
	}

	e.Fees = s.For(side, price, qty)
	e.Total = e.Fees.Net()

	switch side {
	case market.Buy:
		e.MaxQuantity = MaxBuyQuantity(snap.AvailableCash, price, s, lot)
		if e.Total > snap.AvailableCash {
			e.add("INSUFFICIENT_FUNDS",
				fmt.Sprintf("needs %.2f, available %.2f", e.Total, snap.AvailableCash))
		}
	case market.Sell:
		e.MaxQuantity = MaxSellQuantity(snap)
		if qty > e.MaxQuantity {
			e.add("INSUFFICIENT_SHARES",
				fmt.Sprintf("wants %d, available %d", qty, e.MaxQuantity))
		}
	}
	return e
}
