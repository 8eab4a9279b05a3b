package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money formats x to cents with thousands separators, e.g. -1,234.50.
func Money(x float64) string {
	s := decimal.NewFromFloat(x).Round(2).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if sign == "-" && strings.Trim(whole+frac, "0") == "" {
		sign = ""
	}
	return sign + b.String() + "." + frac
}

// Signed is Money with an explicit plus sign for gains.
func Signed(x float64) string {
	m := Money(x)
	if !strings.HasPrefix(m, "-") && m != "0.00" {
		return "+" + m
	}
	return m
}

// Percent formats a percentage value to two places.
func Percent(x float64) string {
	return decimal.NewFromFloat(x).Round(2).StringFixed(2) + "%"
}

// Price formats a share price to three places.
func Price(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(3)
}
