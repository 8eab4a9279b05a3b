package data

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/market"
)

var moutai = market.Instrument{Code: "600519", Name: "贵州茅台", Market: "sh"}

func day(i int) time.Time { return time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i) }

func series(n int) []market.Bar {
	out := make([]market.Bar, n)
	for i := range out {
		c := 10 + float64(i%7)
		out[i] = market.Bar{Time: day(i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return out
}

func TestStockFileBars(t *testing.T) {
	sf := StockFile{
		Code: "000001",
		Data: []BarRecord{
			{Time: "2024-01-03", Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100},
			{Time: "20240102", Open: 10, High: 10, Low: 10, Close: 10, Volume: 100},
			{Time: "2024-01-04", Open: 10, High: 9, Low: 11, Close: 10, Volume: 100}, // high < low
			{Time: "2024-01-05", Open: 0, High: 1, Low: 0, Close: 1, Volume: 100},
		},
	}
	bars, err := sf.Bars()
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "2024-01-02", bars[0].Date())
	assert.Equal(t, 10.5, bars[1].Close)

	sf.Data[0].Time = "yesterday"
	_, err = sf.Bars()
	assert.Error(t, err)
}

func TestDirCatalogFallback(t *testing.T) {
	c := NewDirCatalog(t.TempDir())
	list, err := c.Instruments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Fallback, list)

	_, err = c.Bars(context.Background(), "600519", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirCatalogSaveLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c := NewDirCatalog(dir)

	sf := NewStockFile(moutai, series(30), day(40))
	require.NoError(t, c.Save(ctx, sf))
	require.NoError(t, c.Save(ctx, NewStockFile(market.Instrument{Code: "000001", Name: "平安银行", Market: "sz"}, series(5), time.Time{})))
	require.NoError(t, c.Save(ctx, sf))

	list, err := c.Instruments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, moutai, list[0])

	raw, err := os.ReadFile(filepath.Join(dir, "stocks", "600519.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"data_count": 30`)
	assert.Contains(t, string(raw), "贵州茅台")

	bars, err := c.Bars(ctx, "600519", day(10), day(19))
	require.NoError(t, err)
	require.Len(t, bars, 10)
	assert.Equal(t, day(10), bars[0].Time)
}

func TestReadCSV(t *testing.T) {
	in := "time,open,high,low,close,volume\n" +
		"2024-01-03,10,11,9,10.5,100\n" +
		"2024-01-02,10,10,10,10,100\n" +
		"2024-01-02,10,12,10,12,200\n"
	bars, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 12.0, bars[0].Close, "later duplicate wins")

	bars, err = ReadCSV(strings.NewReader("2024-01-02,1,2,1,2,5\n"))
	require.NoError(t, err)
	assert.Len(t, bars, 1)

	_, err = ReadCSV(strings.NewReader("2024-01-02,1,x,1,2,5\n"))
	assert.ErrorContains(t, err, "high")
}

func TestCSVWriteRead(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteCSV(&sb, series(3)))
	assert.True(t, strings.HasPrefix(sb.String(), "time,open,high,low,close,volume\n2023-01-02,10,11,9,10,1000\n"))

	bars, err := ReadCSV(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, series(3), bars)
}

func TestParquetStore(t *testing.T) {
	ctx := context.Background()
	s := NewParquetStore(filepath.Join(t.TempDir(), "bars"))

	_, err := s.Bars(ctx, "600519", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Write(ctx, moutai, series(20)))
	bars, err := s.Bars(ctx, "600519", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, series(20), bars)

	list, err := s.Instruments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []market.Instrument{moutai}, list)
}

func TestHTTPCatalog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewDirCatalog(dir).Save(context.Background(), NewStockFile(moutai, series(12), time.Time{})))

	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	defer srv.Close()

	c := NewHTTPCatalog(srv.URL, 5*time.Second)
	ctx := context.Background()

	list, err := c.Instruments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []market.Instrument{moutai}, list)

	bars, err := c.Bars(ctx, "600519", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, bars, 12)

	_, err = c.Bars(ctx, "999999", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPCatalogFallback(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	list, err := NewHTTPCatalog(srv.URL, time.Second).Instruments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Fallback, list)
}

func TestHTTPCatalogInstrumentsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPCatalog(srv.URL, time.Second)
	list, err := c.Instruments(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "HTTP 502")
	assert.Nil(t, list)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Instruments(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPickerStart(t *testing.T) {
	p := NewPicker(Seeded(1))
	p.Duration = 10

	_, err := p.Start(9)
	assert.ErrorIs(t, err, ErrInsufficientData)

	start, err := p.Start(10)
	require.NoError(t, err)
	assert.Zero(t, start)

	for range 100 {
		start, err := p.Start(15)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, start, 0)
		assert.Less(t, start, 5)
	}
}

func TestPickerDeterministic(t *testing.T) {
	pick := func() []int {
		p := NewPicker(Seeded(42))
		var out []int
		for range 5 {
			s, err := p.Start(600)
			require.NoError(t, err)
			out = append(out, s)
		}
		return out
	}
	assert.Equal(t, pick(), pick())
}

func TestWindow(t *testing.T) {
	bars := series(10)
	w, err := Window(bars, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, bars[2:7], w)

	_, err = Window(bars, 6, 5)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = Window(bars, -1, 5)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestPick(t *testing.T) {
	ctx := context.Background()
	c := NewDirCatalog(t.TempDir())
	require.NoError(t, c.Save(ctx, NewStockFile(moutai, series(300), time.Time{})))

	p := NewPicker(Seeded(7))
	g, err := p.Pick(ctx, c, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, moutai, g.Instrument)
	assert.Len(t, g.Bars, DefaultDuration)
	assert.Equal(t, DefaultWarmup, g.StartIndex)

	p.Duration = 20
	p.Warmup = 50
	g, err = p.Load(ctx, c, moutai, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 19, g.StartIndex)
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	c := NewDirCatalog(t.TempDir())
	for i, n := range []int{300, 100} {
		inst := market.Instrument{Code: fmt.Sprintf("00000%d", i), Name: "s", Market: "sz"}
		require.NoError(t, c.Save(ctx, NewStockFile(inst, series(n), time.Time{})))
	}
	// listed but missing on disk
	require.NoError(t, os.Remove(filepath.Join(c.Dir, "stocks", "000001.json")))

	res, err := Check(ctx, c, DefaultDuration, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.True(t, res[0].Playable)
	assert.Equal(t, 300, res[0].Bars)
	assert.Equal(t, day(0), res[0].First)
	assert.False(t, res[1].Playable)
	assert.ErrorIs(t, res[1].Err, ErrNotFound)
}
