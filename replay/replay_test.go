package replay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/sim"
)

func bars(closes ...float64) []market.Bar {
	out := make([]market.Bar, len(closes))
	for i, c := range closes {
		out[i] = market.Bar{
			Time: time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open: c, High: c, Low: c, Close: c,
		}
	}
	return out
}

func newSession(t *testing.T, closes ...float64) *sim.Session {
	t.Helper()
	n := 0
	cfg := sim.DefaultConfig()
	cfg.NewID = func() string { n++; return fmt.Sprintf("id-%03d", n) }
	s := sim.New(cfg, nil)
	require.NoError(t, s.Start(market.Instrument{Code: "600036", Name: "招商银行", Market: "sh"}, bars(closes...), 0))
	return s
}

func parse(t *testing.T, src string) Script {
	t.Helper()
	sc, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	return sc
}

func TestParse(t *testing.T) {
	sc := parse(t, `bar,action,arg1,arg2
# buy then take profit
0,BUY,10,1000
2,sell,11,1000
2,SPEED,4
3,CANCEL,1
5,PAUSE
5,RESUME
6,END
`)
	assert.Equal(t, 7, sc.Len())
	assert.Equal(t, []int{0, 2, 3, 5, 6}, sc.Bars())

	at2 := sc.At(2)
	require.Len(t, at2, 2)
	assert.Equal(t, market.Sell, at2[0].Side)
	assert.Equal(t, int64(1000), at2[0].Quantity)
	assert.Equal(t, 4, at2[1].Speed)
	assert.Equal(t, 1, sc.At(3)[0].Ref)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"bad bar", "x,BUY,10,1\n", "bad bar"},
		{"negative bar", "-1,BUY,10,1\n", "bad bar"},
		{"short row", "1\n", "need at least"},
		{"missing qty", "1,BUY,10\n", "arg2=quantity"},
		{"bad price", "1,SELL,abc,1\n", "bad price"},
		{"bad quantity", "1,BUY,10,1.5\n", "bad quantity"},
		{"bad cancel", "1,CANCEL,0\n", "bad order number"},
		{"bad speed", "1,SPEED,fast\n", "bad multiplier"},
		{"unknown", "1,SHORT,10,1\n", "unknown action"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line 1")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseLineNumbersCountComments(t *testing.T) {
	src := `# swing trade
# two comment lines
bar,action,arg1,arg2
0,BUY,10,1000

# take profit
2,SELL,11,1000
3,SHORT,1,1
`
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 8:")

	sc := parse(t, strings.Join(strings.Split(src, "\n")[:7], "\n"))
	assert.Equal(t, 4, sc.At(0)[0].Line)
	assert.Equal(t, 7, sc.At(2)[0].Line)
}

func TestRunBuyAndSell(t *testing.T) {
	s := newSession(t, 10, 10, 11, 11, 11)
	sc := parse(t, "0,BUY,10,1000\n1,SELL,11,1000\n")

	rep, err := Run(context.Background(), s, sc, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Applied)
	assert.Zero(t, rep.Failed)
	assert.True(t, rep.Ended)
	assert.Equal(t, 2, rep.Result.TradeCount)
	assert.InDelta(t, 100977, rep.Result.FinalBalance, 1e-9)
	assert.Equal(t, []string{"id-002", "id-004"}, rep.Orders, "fills mint ids too")
}

func TestRunCountsFailures(t *testing.T) {
	s := newSession(t, 10, 10, 10)
	sc := parse(t, "0,SELL,10,100\n0,BUY,10,100000\n1,CANCEL,3\n1,SPEED,0\n")

	var seen []Failure
	rep, err := Run(context.Background(), s, sc, Options{OnFailure: func(f Failure) { seen = append(seen, f) }})
	require.NoError(t, err)
	assert.Equal(t, 4, rep.Failed)
	assert.Len(t, seen, 4)
	assert.ErrorIs(t, seen[0].Err, sim.ErrInsufficientShares)
	assert.ErrorIs(t, seen[1].Err, sim.ErrInsufficientFunds)
	assert.ErrorIs(t, seen[2].Err, sim.ErrOrderNotFound)
	assert.ErrorIs(t, seen[3].Err, sim.ErrInvalidSpeed)
	assert.Contains(t, seen[0].Error(), "line 1 bar 0 SELL 100")
	assert.True(t, rep.Ended)
}

func TestRunCancel(t *testing.T) {
	s := newSession(t, 10, 12, 12, 12)
	sc := parse(t, "0,BUY,11,100\n1,CANCEL,1\n")

	rep, err := Run(context.Background(), s, sc, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Applied)
	assert.Zero(t, rep.Result.TradeCount)
	assert.InDelta(t, 100000, rep.Result.FinalBalance, 1e-9)
}

func TestRunEndEarly(t *testing.T) {
	s := newSession(t, 10, 10, 10, 10, 10)
	sc := parse(t, "2,END\n2,BUY,10,1\n4,BUY,10,1\n")

	rep, err := Run(context.Background(), s, sc, Options{})
	require.NoError(t, err)
	assert.True(t, rep.Ended)
	assert.Equal(t, 2, rep.Result.Duration)
	assert.Equal(t, 2, rep.Unreached)
}

func TestRunPauseResume(t *testing.T) {
	s := newSession(t, 10, 10, 10)
	sc := parse(t, "1,PAUSE\n1,BUY,10,100\n1,RESUME\n")

	rep, err := Run(context.Background(), s, sc, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Applied)
	assert.True(t, rep.Ended)
}

func TestRunStalls(t *testing.T) {
	s := newSession(t, 10, 10, 10)
	sc := parse(t, "1,PAUSE\n")

	_, err := Run(context.Background(), s, sc, Options{})
	assert.ErrorIs(t, err, ErrStalled)
	assert.Equal(t, sim.Paused, s.State())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.csv")
	require.NoError(t, os.WriteFile(path, []byte("0,BUY,10,100\n"), 0o644))

	sc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, sc.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
