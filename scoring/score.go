// Package scoring turns a finished session into its final result by
// replaying the trade log over the bar history.
package scoring

import (
	"math"

	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/orders"
)

// Result is the scorecard of a finished session.
type Result struct {
	FinalBalance float64 `json:"final_balance"`
	TotalReturn  float64 `json:"total_return"`
	ReturnRate   float64 `json:"return_rate"`  // percent
	MaxDrawdown  float64 `json:"max_drawdown"` // percent
	TradeCount   int     `json:"trade_count"`
	WinRate      float64 `json:"win_rate"` // percent
	Score        int     `json:"score"`
	Duration     int     `json:"duration"` // final bar index
}

// Input is everything the scorer needs from a session.
type Input struct {
	Bars           []market.Bar
	Trades         []orders.Trade
	InitialBalance float64
	FinalIndex     int

	// FinalBalance is the total assets reported by the live ledger at the
	// end of the session.
	FinalBalance float64
}

// Score computes the result. It is deterministic and does not modify in.
func Score(in Input) Result {
	curve := EquityCurve(in.Bars, in.Trades, in.InitialBalance, in.FinalIndex)
	dd := MaxDrawdown(curve, in.InitialBalance)
	wr := WinRate(in.Trades)

	r := Result{
		FinalBalance: in.FinalBalance,
		TotalReturn:  in.FinalBalance - in.InitialBalance,
		MaxDrawdown:  dd,
		TradeCount:   len(in.Trades),
		WinRate:      wr,
		Duration:     in.FinalIndex,
	}
	if in.InitialBalance != 0 {
		r.ReturnRate = r.TotalReturn / in.InitialBalance * 100
	}
	r.Score = int(math.Round(math.Max(0, r.ReturnRate-dd)*10 + wr*2))
	return r
}

// EquityCurve replays trades bar by bar from index 0 through finalIndex
// (clamped to the bars available) and returns total assets marked at each
// bar's close. Each trade is applied once, on its own bar, with the same
// cash and cost-basis rules the live ledger uses, except that buys are
// debited at their actual cost rather than their escrow.
func EquityCurve(bars []market.Bar, trades []orders.Trade, initial float64, finalIndex int) []float64 {
	last := min(finalIndex, len(bars)-1)
	if last < 0 {
		return nil
	}

	byBar := make(map[int][]orders.Trade, len(trades))
	for _, t := range trades {
		byBar[t.BarIndex] = append(byBar[t.BarIndex], t)
	}

	l := ledger.New(initial)
	curve := make([]float64, 0, last+1)
	for i := 0; i <= last; i++ {
		for _, t := range byBar[i] {
			l = apply(l, t)
		}
		curve = append(curve, l.TotalAssets(bars[i].Close))
	}
	return curve
}

func apply(l ledger.Ledger, t orders.Trade) ledger.Ledger {
	switch t.Side {
	case market.Buy:
		cost := t.Gross + t.TotalFees()
		return l.Debit(cost).AddShares(t.Quantity, cost)
	case market.Sell:
		next, _, err := l.RemoveShares(t.Quantity, t.Gross-t.TotalFees())
		if err != nil {
			return l
		}
		return next
	}
	return l
}

// MaxDrawdown is the largest percentage fall of the curve below its running
// peak. The peak starts at initial.
func MaxDrawdown(curve []float64, initial float64) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak := initial
	var maxDD float64
	for _, v := range curve {
		peak = math.Max(peak, v)
		if peak <= 0 {
			continue
		}
		maxDD = math.Max(maxDD, (peak-v)/peak*100)
	}
	return maxDD
}

// WinRate pairs every sell with the first buy in the log that happened
// strictly earlier and was at least as large, and counts the sell as a win
// when it executed above that buy. The pairing ignores lots: one buy can
// back several sells. Sells without a qualifying buy count as losses.
func WinRate(trades []orders.Trade) float64 {
	var sells, wins int
	for _, s := range trades {
		if s.Side != market.Sell {
			continue
		}
		sells++
		for _, b := range trades {
			if b.Side == market.Buy && b.Time.Before(s.Time) && b.Quantity >= s.Quantity {
				if s.Price > b.Price {
					wins++
				}
				break
			}
		}
	}
	if sells == 0 {
		return 0
	}
	return float64(wins) / float64(sells) * 100
}
