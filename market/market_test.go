package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func TestBetween(t *testing.T) {
	t.Parallel()

	bars := []Bar{{Time: day(1)}, {Time: day(2)}, {Time: day(3)}, {Time: day(4)}}

	got := Between(bars, day(2), day(3))
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01-02", got[0].Date())
	assert.Equal(t, "2024-01-03", got[1].Date())

	assert.Len(t, Between(bars, time.Time{}, day(2)), 2)
	assert.Len(t, Between(bars, day(4), time.Time{}), 1)
	assert.Len(t, Between(bars, time.Time{}, time.Time{}), 4)
}

func TestParseSide(t *testing.T) {
	t.Parallel()

	s, err := ParseSide(" BUY ")
	require.NoError(t, err)
	assert.Equal(t, Buy, s)

	s, err = ParseSide("sell")
	require.NoError(t, err)
	assert.Equal(t, Sell, s)

	_, err = ParseSide("short")
	assert.Error(t, err)
	assert.False(t, Side("hold").Valid())
}

func TestInstrumentString(t *testing.T) {
	t.Parallel()

	i := Instrument{Code: "600519", Name: "Kweichow Moutai", Market: "sh"}
	assert.Equal(t, "Kweichow Moutai (600519.sh)", i.String())
	assert.Equal(t, "Shanghai Stock Exchange", i.ExchangeName())
	assert.Equal(t, "Unknown Exchange", Instrument{Market: "hk"}.ExchangeName())
	assert.Equal(t, "X (1)", Instrument{Code: "1", Name: "X"}.String())
}
