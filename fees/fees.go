// Package fees implements the A-share fee model: commission and transfer fee
// on both sides with minimums, stamp tax on sells only.
package fees

import (
	"errors"
	"math"

	"github.com/rustyeddy/papertrader/market"
)

// Schedule holds the rates and floors used to price a trade.
type Schedule struct {
	CommissionRate  float64 `json:"commission_rate" yaml:"commission_rate"`
	MinCommission   float64 `json:"min_commission" yaml:"min_commission"`
	StampTaxRate    float64 `json:"stamp_tax_rate" yaml:"stamp_tax_rate"`
	TransferFeeRate float64 `json:"transfer_fee_rate" yaml:"transfer_fee_rate"`
	MinTransferFee  float64 `json:"min_transfer_fee" yaml:"min_transfer_fee"`
}

// Default returns the standard retail schedule.
func Default() Schedule {
	return Schedule{
		CommissionRate:  0.0003,
		MinCommission:   5,
		StampTaxRate:    0.001,
		TransferFeeRate: 0.00001,
		MinTransferFee:  1,
	}
}

func (s Schedule) Validate() error {
	if s.CommissionRate < 0 || s.MinCommission < 0 {
		return errors.New("fees: commission rate and minimum must be non-negative")
	}
	if s.StampTaxRate < 0 {
		return errors.New("fees: stamp tax rate must be non-negative")
	}
	if s.TransferFeeRate < 0 || s.MinTransferFee < 0 {
		return errors.New("fees: transfer fee rate and minimum must be non-negative")
	}
	return nil
}

// Breakdown itemizes the fees charged on a gross trade amount.
type Breakdown struct {
	Side        market.Side
	Gross       float64
	Commission  float64
	StampTax    float64
	TransferFee float64
}

// Total is the sum of all fee items.
func (b Breakdown) Total() float64 {
	return b.Commission + b.StampTax + b.TransferFee
}

// Net is the cash effect of the trade: the total cost for a buy, the proceeds
// for a sell.
func (b Breakdown) Net() float64 {
	if b.Side == market.Sell {
		return b.Gross - b.Total()
	}
	return b.Gross + b.Total()
}

// Buy prices a buy of gross amount a.
func (s Schedule) Buy(a float64) Breakdown {
	return Breakdown{
		Side:        market.Buy,
		Gross:       a,
		Commission:  math.Max(a*s.CommissionRate, s.MinCommission),
		TransferFee: math.Max(a*s.TransferFeeRate, s.MinTransferFee),
	}
}

// Sell prices a sell of gross amount a.
func (s Schedule) Sell(a float64) Breakdown {
	return Breakdown{
		Side:        market.Sell,
		Gross:       a,
		Commission:  math.Max(a*s.CommissionRate, s.MinCommission),
		StampTax:    a * s.StampTaxRate,
		TransferFee: math.Max(a*s.TransferFeeRate, s.MinTransferFee),
	}
}

// For prices quantity shares at price on the given side.
func (s Schedule) For(side market.Side, price float64, quantity int64) Breakdown {
	gross := price * float64(quantity)
	if side == market.Sell {
		return s.Sell(gross)
	}
	return s.Buy(gross)
}

// BuyCost is the cash needed to buy quantity shares at price, fees included.
func (s Schedule) BuyCost(price float64, quantity int64) float64 {
	return s.For(market.Buy, price, quantity).Net()
}
