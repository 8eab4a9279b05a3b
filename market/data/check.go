package data

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/papertrader/market"
)

// CheckResult summarizes the history of one instrument.
type CheckResult struct {
	Instrument market.Instrument
	Bars       int
	First      time.Time
	Last       time.Time
	Playable   bool
	Err        error
}

// Check loads every instrument of c concurrently and reports whether each
// has at least duration bars. Load failures are reported per instrument.
func Check(ctx context.Context, c Catalog, duration, workers int) ([]CheckResult, error) {
	list, err := c.Instruments(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]CheckResult, len(list))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, inst := range list {
		g.Go(func() error {
			r := CheckResult{Instrument: inst}
			bars, err := c.Bars(gctx, inst.Code, time.Time{}, time.Time{})
			if err != nil {
				r.Err = err
				results[i] = r
				return gctx.Err()
			}
			r.Bars = len(bars)
			if len(bars) > 0 {
				r.First, r.Last = bars[0].Time, bars[len(bars)-1].Time
			}
			r.Playable = len(bars) >= duration
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
