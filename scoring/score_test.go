package scoring

import (
	"testing"
	"time"

	"github.com/rustyeddy/papertrader/fees"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(i int) time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i) }

func bars(closes ...float64) []market.Bar {
	out := make([]market.Bar, len(closes))
	for i, c := range closes {
		out[i] = market.Bar{Time: day(i), Open: c, High: c, Low: c, Close: c}
	}
	return out
}

func trade(side market.Side, price float64, qty int64, idx int) orders.Trade {
	gross := price * float64(qty)
	return orders.Trade{
		Side:     side,
		Price:    price,
		Quantity: qty,
		Gross:    gross,
		Fees:     fees.Default().For(side, price, qty),
		BarIndex: idx,
		Time:     day(idx),
	}
}

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 25.0, MaxDrawdown([]float64{100000, 120000, 90000, 110000}, 100000), 1e-9)
	assert.Zero(t, MaxDrawdown([]float64{100, 110, 120}, 100))
	assert.Zero(t, MaxDrawdown(nil, 100000))
	assert.InDelta(t, 50.0, MaxDrawdown([]float64{100, 50, 200, 150}, 100), 1e-9)
	// a curve that opens below the starting balance is already in drawdown
	assert.InDelta(t, 10.0, MaxDrawdown([]float64{90000, 100000}, 100000), 1e-9)
}

func TestEquityCurveAppliesTradesOnce(t *testing.T) {
	t.Parallel()

	b := bars(10, 10, 11, 12)
	trades := []orders.Trade{trade(market.Buy, 10, 1000, 1)}

	curve := EquityCurve(b, trades, 100000, 4)
	require.Len(t, curve, 4)
	assert.InDelta(t, 100000.0, curve[0], 1e-9)
	assert.InDelta(t, 100000.0-6, curve[1], 1e-9)
	assert.InDelta(t, 89994.0+11000, curve[2], 1e-9)
	assert.InDelta(t, 89994.0+12000, curve[3], 1e-9)
}

func TestEquityCurveClampsIndex(t *testing.T) {
	t.Parallel()

	assert.Len(t, EquityCurve(bars(1, 2, 3), nil, 10, 99), 3)
	assert.Len(t, EquityCurve(bars(1, 2, 3), nil, 10, 1), 2)
	assert.Nil(t, EquityCurve(nil, nil, 10, 5))
}

func TestWinRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		trades []orders.Trade
		want   float64
	}{
		{"no trades", nil, 0},
		{"only buys", []orders.Trade{trade(market.Buy, 10, 100, 1)}, 0},
		{
			"one win",
			[]orders.Trade{trade(market.Buy, 10, 100, 1), trade(market.Sell, 11, 100, 2)},
			100,
		},
		{
			"one loss",
			[]orders.Trade{trade(market.Buy, 10, 100, 1), trade(market.Sell, 9, 100, 2)},
			0,
		},
		{
			"same bar is not earlier",
			[]orders.Trade{trade(market.Buy, 10, 100, 2), trade(market.Sell, 11, 100, 2)},
			0,
		},
		{
			"first qualifying buy is used",
			[]orders.Trade{
				trade(market.Buy, 12, 50, 1),  // too small
				trade(market.Buy, 10, 200, 2), // matched
				trade(market.Buy, 5, 200, 3),
				trade(market.Sell, 11, 100, 4),
				trade(market.Sell, 9, 100, 5),
			},
			50,
		},
		{
			"one buy backs several sells",
			[]orders.Trade{
				trade(market.Buy, 10, 100, 1),
				trade(market.Sell, 11, 100, 2),
				trade(market.Sell, 12, 100, 3),
			},
			100,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, WinRate(tt.trades), 1e-9)
		})
	}
}

func TestScoreRoundTrip(t *testing.T) {
	t.Parallel()

	b := bars(10, 10, 10, 11, 11)
	trades := []orders.Trade{
		trade(market.Buy, 10, 1000, 1),
		trade(market.Sell, 11, 1000, 3),
	}
	final := 100000 - 10006 + 10983.0

	r := Score(Input{
		Bars:           b,
		Trades:         trades,
		InitialBalance: 100000,
		FinalIndex:     5,
		FinalBalance:   final,
	})

	assert.InDelta(t, final, r.FinalBalance, 1e-9)
	assert.InDelta(t, 977.0, r.TotalReturn, 1e-9)
	assert.InDelta(t, 0.977, r.ReturnRate, 1e-9)
	// The only dip is the 6.00 of buy fees on bar 1.
	assert.InDelta(t, 0.006, r.MaxDrawdown, 1e-9)
	assert.Equal(t, 2, r.TradeCount)
	assert.InDelta(t, 100.0, r.WinRate, 1e-9)
	assert.Equal(t, 5, r.Duration)
	// round((0.977-0.006)*10 + 200) = round(209.71)
	assert.Equal(t, 210, r.Score)
}

func TestScoreFloorsNegativeEdge(t *testing.T) {
	t.Parallel()

	b := bars(10, 10, 8)
	trades := []orders.Trade{trade(market.Buy, 10, 1000, 1)}
	final := 100000 - 10006 + 8000.0

	r := Score(Input{Bars: b, Trades: trades, InitialBalance: 100000, FinalIndex: 3, FinalBalance: final})
	assert.Less(t, r.ReturnRate, 0.0)
	assert.Zero(t, r.WinRate)
	assert.Equal(t, 0, r.Score)
}
