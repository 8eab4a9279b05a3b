// Package risk holds order sizing helpers used before an order is placed.
package risk

import (
	"math"

	"github.com/rustyeddy/papertrader/fees"
	"github.com/rustyeddy/papertrader/sim"
)

// MaxBuyQuantity is the largest multiple of lot whose total buy cost,
// fees included, fits in cash.
func MaxBuyQuantity(cash, price float64, s fees.Schedule, lot int64) int64 {
	if lot <= 0 {
		lot = 1
	}
	if cash <= 0 || price <= 0 {
		return 0
	}

	q := roundLot(int64(math.Floor(cash/price)), lot)
	for q > 0 && s.BuyCost(price, q) > cash {
		q -= lot
	}
	return q
}

// QuantityForPercent sizes an order at pct (0..1) of max.
func QuantityForPercent(max int64, pct float64, lot int64) int64 {
	if lot <= 0 {
		lot = 1
	}
	if max <= 0 || pct <= 0 {
		return 0
	}
	pct = math.Min(pct, 1)
	return roundLot(int64(math.Floor(float64(max)*pct)), lot)
}

// MaxSellQuantity is what can still be sold given the pending sells.
func MaxSellQuantity(snap sim.Snapshot) int64 {
	return max(snap.AvailableShares, 0)
}

func roundLot(q, lot int64) int64 {
	return q - q%lot
}
