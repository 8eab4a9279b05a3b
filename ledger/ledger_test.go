package ledger

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscrow(t *testing.T) {
	t.Parallel()

	l := New(100)
	got, err := l.Escrow(60)
	require.NoError(t, err)
	assert.InDelta(t, 40.0, got.Cash, 1e-9)
	assert.InDelta(t, 100.0, l.Cash, 1e-9, "receiver must not change")

	_, err = got.Escrow(40.01)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	got, err = got.Escrow(40)
	require.NoError(t, err)
	assert.Zero(t, got.Cash)
}

func TestCashSettlesInCents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cash   float64
		amount float64
		want   float64
	}{
		{12345.67, 459.5523, 11886.12},
		{12345.67, 705.9381, 11639.73},
		{0.3, 0.1, 0.2},
		{100000, 10006, 89994},
	}
	for _, tt := range tests {
		l := New(tt.cash)
		got := l.Debit(tt.amount)
		assert.Equal(t, tt.want, got.Cash, "debit %v from %v", tt.amount, tt.cash)
		assert.Equal(t, l.Cash, got.Credit(tt.amount).Cash, "round trip of %v", tt.amount)
	}
	assert.Equal(t, 100.01, New(100.005).Cash)
}

func TestBuyThenSellScenario(t *testing.T) {
	t.Parallel()

	l := New(100000)
	l, err := l.Escrow(10006)
	require.NoError(t, err)
	l = l.AddShares(1000, 10006)

	assert.InDelta(t, 89994.0, l.Cash, 1e-9)
	assert.Equal(t, int64(1000), l.Shares)
	assert.InDelta(t, 10006.0, l.CostBasis, 1e-9)
	assert.InDelta(t, 10.006, l.AvgCost(), 1e-12)

	l, sold, err := l.RemoveShares(1000, 10983)
	require.NoError(t, err)
	assert.InDelta(t, 10006.0, sold, 1e-9)
	assert.InDelta(t, 89994.0+10983.0, l.Cash, 1e-9)
	assert.Zero(t, l.Shares)
	assert.Zero(t, l.CostBasis)
}

func TestSellKeepsAverageCost(t *testing.T) {
	t.Parallel()

	l := New(0).AddShares(300, 3000).AddShares(700, 7700)
	before := l.AvgCost()

	l, sold, err := l.RemoveShares(400, 5000)
	require.NoError(t, err)
	assert.InDelta(t, before*400, sold, 1e-9)
	assert.InDelta(t, before, l.AvgCost(), 1e-12)
}

func TestRemoveTooManyShares(t *testing.T) {
	t.Parallel()

	l := New(0).AddShares(10, 100)
	got, _, err := l.RemoveShares(11, 0)
	assert.ErrorIs(t, err, ErrInsufficientShares)
	assert.Equal(t, l, got)
}

func TestCostBasisNeverNegative(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(7))
	l := New(1e9)
	for i := 0; i < 2000; i++ {
		price := 1 + r.Float64()*50
		if r.Intn(2) == 0 || l.Shares == 0 {
			qty := int64(1 + r.Intn(1000))
			cost := price*float64(qty) + r.Float64()*10
			l = l.Debit(cost).AddShares(qty, cost)
		} else {
			qty := int64(1 + r.Int63n(l.Shares))
			var err error
			l, _, err = l.RemoveShares(qty, price*float64(qty))
			require.NoError(t, err)
		}
		require.GreaterOrEqual(t, l.Shares, int64(0))
		require.GreaterOrEqual(t, l.CostBasis, 0.0)
		if l.Shares == 0 {
			require.Zero(t, l.CostBasis)
		}
	}
}

func TestValuation(t *testing.T) {
	t.Parallel()

	l := Ledger{Cash: 89994, Shares: 1000, CostBasis: 10006}

	assert.InDelta(t, 100994.0, l.TotalAssets(11), 1e-9)
	assert.InDelta(t, 994.0, l.UnrealizedPnL(11), 1e-9)
	assert.InDelta(t, 994.0/10006*100, l.UnrealizedPnLPercent(11), 1e-9)

	flat := New(5)
	assert.Zero(t, flat.UnrealizedPnLPercent(11))
	assert.Zero(t, flat.AvgCost())
	assert.InDelta(t, 5.0, flat.TotalAssets(11), 1e-9)
}
