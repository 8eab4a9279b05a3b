package data

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rustyeddy/papertrader/market"
)

const (
	DefaultDuration = 252 // about one trading year
	DefaultWarmup   = 26
)

// Game is a prepared session window.
type Game struct {
	Instrument market.Instrument
	Bars       []market.Bar
	StartIndex int
}

// Picker chooses a random instrument and a random window of its history.
type Picker struct {
	Rand     *rand.Rand
	Duration int
	Warmup   int
}

// NewPicker returns a picker with the default window. A nil r is seeded
// from the runtime.
func NewPicker(r *rand.Rand) *Picker {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Picker{Rand: r, Duration: DefaultDuration, Warmup: DefaultWarmup}
}

// Seeded returns a deterministic source for reproducible games.
func Seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func (p *Picker) Instrument(list []market.Instrument) (market.Instrument, error) {
	if len(list) == 0 {
		return market.Instrument{}, fmt.Errorf("pick instrument: %w", ErrNotFound)
	}
	return list[p.Rand.IntN(len(list))], nil
}

// Start picks a window start in [0, n-Duration).
func (p *Picker) Start(n int) (int, error) {
	if n < p.Duration {
		return 0, fmt.Errorf("%w: %d bars, need %d", ErrInsufficientData, n, p.Duration)
	}
	if n == p.Duration {
		return 0, nil
	}
	return p.Rand.IntN(n - p.Duration), nil
}

// Window slices duration bars starting at start.
func Window(bars []market.Bar, start, duration int) ([]market.Bar, error) {
	if start < 0 || duration <= 0 || start+duration > len(bars) {
		return nil, fmt.Errorf("%w: window [%d, %d) of %d bars", ErrInsufficientData, start, start+duration, len(bars))
	}
	return bars[start : start+duration], nil
}

// Prepare builds a game from bars of inst.
func (p *Picker) Prepare(inst market.Instrument, bars []market.Bar) (Game, error) {
	start, err := p.Start(len(bars))
	if err != nil {
		return Game{}, fmt.Errorf("%s: %w", inst.Code, err)
	}
	w, err := Window(bars, start, p.Duration)
	if err != nil {
		return Game{}, err
	}
	return Game{Instrument: inst, Bars: w, StartIndex: min(max(p.Warmup, 0), len(w)-1)}, nil
}

// Pick chooses an instrument from c, loads its history between from and to
// and prepares a game from it.
func (p *Picker) Pick(ctx context.Context, c Catalog, from, to time.Time) (Game, error) {
	list, err := c.Instruments(ctx)
	if err != nil {
		return Game{}, err
	}
	inst, err := p.Instrument(list)
	if err != nil {
		return Game{}, err
	}
	return p.Load(ctx, c, inst, from, to)
}

// Load prepares a game for a chosen instrument.
func (p *Picker) Load(ctx context.Context, c Catalog, inst market.Instrument, from, to time.Time) (Game, error) {
	bars, err := c.Bars(ctx, inst.Code, from, to)
	if err != nil {
		return Game{}, err
	}
	return p.Prepare(inst, bars)
}
