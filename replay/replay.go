package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/papertrader/scoring"
	"github.com/rustyeddy/papertrader/sim"
)

// ErrStalled is returned when a script leaves the session paused with no
// further actions on the current bar.
var ErrStalled = errors.New("script stalled while paused")

// Options controls how a script is replayed.
type Options struct {
	// Base is the wall interval per bar at speed 1. Zero replays as fast
	// as possible.
	Base time.Duration

	// OnFailure is told about every player action the session rejected.
	OnFailure func(Failure)
}

// Failure is a scripted action the session refused.
type Failure struct {
	Action Action
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("line %d bar %d %s: %v", f.Action.Line, f.Action.Bar, f.Action, f.Err)
}

// Report summarizes a replay.
type Report struct {
	Applied   int
	Failed    int
	Unreached int
	Failures  []Failure

	// Orders maps the script's order numbers to order ids.
	Orders []string

	Ended  bool
	Result scoring.Result
}

type runner struct {
	s    *sim.Session
	sc   Script
	opts Options
	rep  Report
	last int
	left int
}

// Run plays script against a started session until the session ends or
// ctx is cancelled. Rejected actions are counted and reported, never
// fatal.
func Run(ctx context.Context, s *sim.Session, script Script, opts Options) (Report, error) {
	r := &runner{s: s, sc: script, opts: opts, last: -1, left: script.Len()}

	c := &sim.Clock{Session: s, Base: opts.Base, BeforeTick: r.tick}
	err := c.Run(ctx)

	r.rep.Unreached = r.left
	r.rep.Result, r.rep.Ended = s.Result()
	return r.rep, err
}

func (r *runner) tick(context.Context) error {
	idx := r.s.Snapshot().Index
	if idx != r.last {
		r.last = idx
		for _, a := range r.sc.At(idx) {
			r.left--
			if err := r.apply(a); err != nil {
				f := Failure{Action: a, Err: err}
				r.rep.Failed++
				r.rep.Failures = append(r.rep.Failures, f)
				if r.opts.OnFailure != nil {
					r.opts.OnFailure(f)
				}
				continue
			}
			r.rep.Applied++
			if r.s.IsOver() {
				return nil
			}
		}
	}

	if r.s.State() == sim.Paused {
		return fmt.Errorf("%w at bar %d", ErrStalled, idx)
	}
	return nil
}

func (r *runner) apply(a Action) error {
	switch a.Kind {
	case "BUY", "SELL":
		id, err := r.s.Place(a.Side, a.Price, a.Quantity)
		if err != nil {
			return err
		}
		r.rep.Orders = append(r.rep.Orders, id)
		return nil

	case "CANCEL":
		if a.Ref > len(r.rep.Orders) {
			return fmt.Errorf("%w: order #%d was never placed", sim.ErrOrderNotFound, a.Ref)
		}
		return r.s.Cancel(r.rep.Orders[a.Ref-1])

	case "SPEED":
		return r.s.SetSpeed(a.Speed)
	case "PAUSE":
		return r.s.Pause()
	case "RESUME":
		return r.s.Resume()
	case "END":
		_, err := r.s.End()
		return err
	}
	return fmt.Errorf("unknown action %q", a.Kind)
}
