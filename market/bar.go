package market

import "time"

// Bar is one day of OHLCV price data.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Date returns the bar time formatted as YYYY-MM-DD.
func (b Bar) Date() string {
	return b.Time.Format(DateLayout)
}

// DateLayout is the layout used by stock data files and order timestamps.
const DateLayout = "2006-01-02"

// Between returns the bars whose time falls within [from, to]. A zero from or
// to leaves that side open.
func Between(bars []Bar, from, to time.Time) []Bar {
	out := make([]Bar, 0, len(bars))
	for _, b := range bars {
		if !from.IsZero() && b.Time.Before(from) {
			continue
		}
		if !to.IsZero() && b.Time.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out
}
