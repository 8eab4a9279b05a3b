package market

import "fmt"

// Instrument identifies a listed stock.
type Instrument struct {
	Code   string `json:"code" yaml:"code"`
	Name   string `json:"name" yaml:"name"`
	Market string `json:"market" yaml:"market"`
}

var exchanges = map[string]string{
	"sh": "Shanghai Stock Exchange",
	"sz": "Shenzhen Stock Exchange",
}

// ExchangeName returns the full name of the instrument's exchange.
func (i Instrument) ExchangeName() string {
	if n, ok := exchanges[i.Market]; ok {
		return n
	}
	return "Unknown Exchange"
}

// String renders "Name (code.market)".
func (i Instrument) String() string {
	if i.Market == "" {
		return fmt.Sprintf("%s (%s)", i.Name, i.Code)
	}
	return fmt.Sprintf("%s (%s.%s)", i.Name, i.Code, i.Market)
}
