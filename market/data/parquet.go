package data

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/rustyeddy/papertrader/market"
)

// ParquetRecord is the on-disk schema of one daily bar.
type ParquetRecord struct {
	Code      string  `parquet:"code"`
	Name      string  `parquet:"name"`
	Market    string  `parquet:"market"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// ParquetStore keeps one Parquet file per instrument at
// <Dir>/<code>.parquet.
type ParquetStore struct {
	Dir string
}

func NewParquetStore(dir string) *ParquetStore {
	return &ParquetStore{Dir: dir}
}

func (s *ParquetStore) path(code string) string {
	return filepath.Join(s.Dir, code+".parquet")
}

// Write replaces the history of inst.
func (s *ParquetStore) Write(_ context.Context, inst market.Instrument, bars []market.Bar) error {
	records := make([]ParquetRecord, len(bars))
	for i, b := range bars {
		records[i] = ParquetRecord{
			Code:      inst.Code,
			Name:      inst.Name,
			Market:    inst.Market,
			Timestamp: b.Time.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	if err := parquet.WriteFile(s.path(inst.Code), records); err != nil {
		return fmt.Errorf("write parquet %s: %w", inst.Code, err)
	}
	return nil
}

func (s *ParquetStore) read(code string) ([]ParquetRecord, error) {
	if _, err := os.Stat(s.path(code)); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stock %s: %w", code, ErrNotFound)
	}
	rows, err := parquet.ReadFile[ParquetRecord](s.path(code))
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", code, err)
	}
	return rows, nil
}

func (s *ParquetStore) Bars(_ context.Context, code string, from, to time.Time) ([]market.Bar, error) {
	rows, err := s.read(code)
	if err != nil {
		return nil, err
	}
	bars := make([]market.Bar, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, market.Bar{
			Time:   time.UnixMilli(r.Timestamp).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	return market.Between(Normalize(bars), from, to), nil
}

// Instruments lists the stored files. Names come from the first row of
// each file.
func (s *ParquetStore) Instruments(_ context.Context) ([]market.Instrument, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []market.Instrument
	for _, e := range entries {
		code, ok := strings.CutSuffix(e.Name(), ".parquet")
		if e.IsDir() || !ok {
			continue
		}
		inst := market.Instrument{Code: code}
		if rows, err := s.read(code); err == nil && len(rows) > 0 {
			inst.Name, inst.Market = rows[0].Name, rows[0].Market
		}
		out = append(out, inst)
	}
	slices.SortFunc(out, func(a, b market.Instrument) int { return strings.Compare(a.Code, b.Code) })
	return out, nil
}
