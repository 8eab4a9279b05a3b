package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rustyeddy/papertrader/market"
)

var csvHeader = []string{"time", "open", "high", "low", "close", "volume"}

// ReadCSV parses time,open,high,low,close,volume rows. A header row is
// optional. Invalid bars are dropped.
func ReadCSV(r io.Reader) ([]market.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)
	cr.TrimLeadingSpace = true

	var bars []market.Bar
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && strings.EqualFold(rec[0], "time") {
			continue
		}

		b, err := parseCSVBar(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if ValidBar(b) {
			bars = append(bars, b)
		}
	}
	return Normalize(bars), nil
}

func parseCSVBar(rec []string) (market.Bar, error) {
	t, err := ParseTime(rec[0])
	if err != nil {
		return market.Bar{}, err
	}
	var v [5]float64
	for i := range v {
		v[i], err = strconv.ParseFloat(rec[i+1], 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("%s: %w", csvHeader[i+1], err)
		}
	}
	return market.Bar{Time: t, Open: v[0], High: v[1], Low: v[2], Close: v[3], Volume: v[4]}, nil
}

// WriteCSV writes bars with a header row.
func WriteCSV(w io.Writer, bars []market.Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	f := func(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }
	for _, b := range bars {
		if err := cw.Write([]string{b.Date(), f(b.Open), f(b.High), f(b.Low), f(b.Close), f(b.Volume)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
