// Package data loads daily bar histories and picks session windows from
// them.
package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/rustyeddy/papertrader/market"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrNotFound         = errors.New("not found")
)

// BarRecord is one row of a stock file. Time is a trading date.
type BarRecord struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// StockFile is the on-disk history of one instrument.
type StockFile struct {
	Code       string      `json:"code"`
	Name       string      `json:"name"`
	Market     string      `json:"market"`
	Data       []BarRecord `json:"data"`
	UpdateTime string      `json:"update_time,omitempty"`
	DataCount  int         `json:"data_count"`
}

// StockList indexes the instruments available in a catalog.
type StockList struct {
	Stocks     []market.Instrument `json:"stocks"`
	UpdateTime string              `json:"update_time,omitempty"`
	DataSource string              `json:"data_source,omitempty"`
	TotalCount int                 `json:"total_count"`
}

func (f StockFile) Instrument() market.Instrument {
	return market.Instrument{Code: f.Code, Name: f.Name, Market: f.Market}
}

// Bars converts the records, dropping rows that fail ValidBar, sorted by
// time with duplicate dates removed.
func (f StockFile) Bars() ([]market.Bar, error) {
	out := make([]market.Bar, 0, len(f.Data))
	for i, r := range f.Data {
		t, err := ParseTime(r.Time)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", f.Code, i, err)
		}
		b := market.Bar{Time: t, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume}
		if ValidBar(b) {
			out = append(out, b)
		}
	}
	return Normalize(out), nil
}

// NewStockFile builds a stock file for inst from bars.
func NewStockFile(inst market.Instrument, bars []market.Bar, updated time.Time) StockFile {
	f := StockFile{
		Code:      inst.Code,
		Name:      inst.Name,
		Market:    inst.Market,
		Data:      make([]BarRecord, len(bars)),
		DataCount: len(bars),
	}
	if !updated.IsZero() {
		f.UpdateTime = updated.Format(time.RFC3339)
	}
	for i, b := range bars {
		f.Data[i] = BarRecord{Time: b.Date(), Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
	}
	return f
}

func DecodeStockFile(r io.Reader) (StockFile, error) {
	var f StockFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return StockFile{}, fmt.Errorf("decode stock file: %w", err)
	}
	return f, nil
}

func EncodeStockFile(w io.Writer, f StockFile) error {
	return encodeJSON(w, f)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func DecodeStockList(r io.Reader) (StockList, error) {
	var l StockList
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return StockList{}, fmt.Errorf("decode stock list: %w", err)
	}
	return l, nil
}

// ParseTime accepts a plain date, YYYYMMDD, or RFC 3339.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range []string{market.DateLayout, "20060102", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

// ValidBar reports whether a bar has positive prices and a consistent
// high/low range.
func ValidBar(b market.Bar) bool {
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return false
	}
	return b.High >= b.Low &&
		b.High >= b.Open && b.High >= b.Close &&
		b.Low <= b.Open && b.Low <= b.Close
}

// Normalize sorts bars by time and keeps the last bar of any repeated
// timestamp.
func Normalize(bars []market.Bar) []market.Bar {
	slices.SortStableFunc(bars, func(a, b market.Bar) int { return a.Time.Compare(b.Time) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
