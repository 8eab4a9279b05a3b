package data

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rustyeddy/papertrader/market"
)

// HTTPCatalog serves the DirCatalog layout from a static web server.
type HTTPCatalog struct {
	client *resty.Client
}

func NewHTTPCatalog(baseURL string, timeout time.Duration) *HTTPCatalog {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	return &HTTPCatalog{client: client}
}

func (c *HTTPCatalog) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.client.R().SetContext(ctx).Get(path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("fetch %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d: %s", path, resp.StatusCode(), resp.String())
	}
	return resp.Body(), nil
}

// Instruments falls back to the built-in list when the server has no
// stock list.
func (c *HTTPCatalog) Instruments(ctx context.Context) ([]market.Instrument, error) {
	body, err := c.get(ctx, "/"+listFile)
	if errors.Is(err, ErrNotFound) {
		return append([]market.Instrument(nil), Fallback...), nil
	}
	if err != nil {
		return nil, err
	}
	l, err := DecodeStockList(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if len(l.Stocks) == 0 {
		return append([]market.Instrument(nil), Fallback...), nil
	}
	return l.Stocks, nil
}

func (c *HTTPCatalog) Load(ctx context.Context, code string) (StockFile, error) {
	body, err := c.get(ctx, "/"+stocksDir+"/"+code+".json")
	if err != nil {
		return StockFile{}, err
	}
	return DecodeStockFile(bytes.NewReader(body))
}

func (c *HTTPCatalog) Bars(ctx context.Context, code string, from, to time.Time) ([]market.Bar, error) {
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
