package data

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rustyeddy/papertrader/market"
)

// Catalog lists instruments and serves their bar histories.
type Catalog interface {
	Instruments(ctx context.Context) ([]market.Instrument, error)
	Bars(ctx context.Context, code string, from, to time.Time) ([]market.Bar, error)
}

// Fallback is used when a catalog has no stock list.
var Fallback = []market.Instrument{
	{Code: "600519", Name: "贵州茅台", Market: "sh"},
	{Code: "000001", Name: "平安银行", Market: "sz"},
	{Code: "002594", Name: "比亚迪", Market: "sz"},
	{Code: "300750", Name: "宁德时代", Market: "sz"},
	{Code: "601318", Name: "中国平安", Market: "sh"},
	{Code: "600036", Name: "招商银行", Market: "sh"},
	{Code: "000858", Name: "五粮液", Market: "sz"},
	{Code: "002415", Name: "海康威视", Market: "sz"},
}

const (
	listFile  = "stock-list.json"
	stocksDir = "stocks"
)

// DirCatalog reads a directory laid out as
//
//	<dir>/stock-list.json
//	<dir>/stocks/<code>.json
type DirCatalog struct {
	Dir string
}

func NewDirCatalog(dir string) *DirCatalog {
	return &DirCatalog{Dir: dir}
}

func (c *DirCatalog) Instruments(_ context.Context) ([]market.Instrument, error) {
	f, err := os.Open(filepath.Join(c.Dir, listFile))
	if errors.Is(err, fs.ErrNotExist) {
		return append([]market.Instrument(nil), Fallback...), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	l, err := DecodeStockList(f)
	if err != nil {
		return nil, err
	}
	if len(l.Stocks) == 0 {
		return append([]market.Instrument(nil), Fallback...), nil
	}
	return l.Stocks, nil
}

// Load reads the full stock file for code.
func (c *DirCatalog) Load(_ context.Context, code string) (StockFile, error) {
	f, err := os.Open(c.stockPath(code))
	if errors.Is(err, fs.ErrNotExist) {
		return StockFile{}, fmt.Errorf("stock %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return StockFile{}, err
	}
	defer f.Close()
	return DecodeStockFile(f)
}

func (c *DirCatalog) Bars(ctx context.Context, code string, from, to time.Time) ([]market.Bar, error) {
	sf, err := c.Load(ctx, code)
	if err != nil {
		return nil, err
	}
	bars, err := sf.Bars()
	if err != nil {
		return nil, err
	}
	return market.Between(bars, from, to), nil
}

// Save writes a stock file and adds it to the stock list.
func (c *DirCatalog) Save(ctx context.Context, sf StockFile) error {
	if err := os.MkdirAll(filepath.Join(c.Dir, stocksDir), 0o755); err != nil {
		return err
	}
	if err := writeJSON(c.stockPath(sf.Code), func(f *os.File) error { return EncodeStockFile(f, sf) }); err != nil {
		return fmt.Errorf("save %s: %w", sf.Code, err)
	}

	var list StockList
	if lf, err := os.Open(filepath.Join(c.Dir, listFile)); err == nil {
		list, err = DecodeStockList(lf)
		lf.Close()
		if err != nil {
			return err
		}
	}
	inst := sf.Instrument()
	found := false
	for i, s := range list.Stocks {
		if s.Code == inst.Code {
			list.Stocks[i] = inst
			found = true
		}
	}
	if !found {
		list.Stocks = append(list.Stocks, inst)
	}
	list.TotalCount = len(list.Stocks)
	list.UpdateTime = sf.UpdateTime

	return writeJSON(filepath.Join(c.Dir, listFile), func(f *os.File) error {
		return encodeJSON(f, list)
	})
}

func (c *DirCatalog) stockPath(code string) string {
	return filepath.Join(c.Dir, stocksDir, code+".json")
}

func writeJSON(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
