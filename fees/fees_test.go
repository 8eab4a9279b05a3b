package fees

import (
	"testing"

	"github.com/rustyeddy/papertrader/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuyScenario(t *testing.T) {
	t.Parallel()

	b := Default().For(market.Buy, 10.00, 1000)

	assert.InDelta(t, 10000.0, b.Gross, 1e-9)
	assert.InDelta(t, 5.0, b.Commission, 1e-9)
	assert.InDelta(t, 1.0, b.TransferFee, 1e-9)
	assert.Zero(t, b.StampTax)
	assert.InDelta(t, 6.0, b.Total(), 1e-9)
	assert.InDelta(t, 10006.0, b.Net(), 1e-9)
}

func TestSellScenario(t *testing.T) {
	t.Parallel()

	b := Default().For(market.Sell, 11.00, 1000)

	assert.InDelta(t, 11000.0, b.Gross, 1e-9)
	assert.InDelta(t, 5.0, b.Commission, 1e-9)
	assert.InDelta(t, 11.0, b.StampTax, 1e-9)
	assert.InDelta(t, 1.0, b.TransferFee, 1e-9)
	assert.InDelta(t, 17.0, b.Total(), 1e-9)
	assert.InDelta(t, 10983.0, b.Net(), 1e-9)
}

func TestFeeFloors(t *testing.T) {
	t.Parallel()

	s := Default()
	// Below 5/0.0003 ≈ 16666.67 the commission floor applies.
	for _, a := range []float64{0.01, 100, 5000, 16666} {
		assert.Equal(t, s.MinCommission, s.Buy(a).Commission, "amount %v", a)
		assert.Equal(t, s.MinCommission, s.Sell(a).Commission, "amount %v", a)
		assert.Equal(t, s.MinTransferFee, s.Buy(a).TransferFee, "amount %v", a)
	}

	big := s.Buy(1_000_000)
	assert.InDelta(t, 300.0, big.Commission, 1e-9)
	assert.InDelta(t, 10.0, big.TransferFee, 1e-9)
}

func TestStampTaxSellOnly(t *testing.T) {
	t.Parallel()

	s := Default()
	assert.Zero(t, s.Buy(50_000).StampTax)
	assert.InDelta(t, 50.0, s.Sell(50_000).StampTax, 1e-9)
}

func TestBuyCost(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 10006.0, Default().BuyCost(10, 1000), 1e-9)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Default().Validate())
	require.NoError(t, Schedule{}.Validate())

	bad := Default()
	bad.StampTaxRate = -0.1
	assert.Error(t, bad.Validate())

	bad = Default()
	bad.MinCommission = -1
	assert.Error(t, bad.Validate())

	bad = Default()
	bad.TransferFeeRate = -1
	assert.Error(t, bad.Validate())
}
