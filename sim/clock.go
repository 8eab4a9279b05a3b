package sim

import (
	"context"
	"time"
)

const pausedPoll = 10 * time.Millisecond

// Clock advances a session on a timer until it ends.
type Clock struct {
	Session *Session

	// Base is the interval at speed 1. Zero advances as fast as possible.
	Base time.Duration

	// BeforeTick runs before every advance attempt, paused or not.
	BeforeTick func(ctx context.Context) error
}

// NewClock returns a clock ticking once a second at speed 1.
func NewClock(s *Session) *Clock {
	return &Clock{Session: s, Base: time.Second}
}

func (c *Clock) interval() time.Duration {
	d := c.Base / time.Duration(c.Session.Speed())
	if c.Session.State() == Paused && d < pausedPoll {
		d = pausedPoll
	}
	return d
}

// Run blocks until the session ends or ctx is cancelled. The interval is
// re-read on every tick so speed changes apply immediately.
func (c *Clock) Run(ctx context.Context) error {
	if c.Session.State() == Idle {
		return ErrNoActiveSession
	}

	for !c.Session.IsOver() {
		if c.Session.State() == Idle {
			return ErrNoActiveSession
		}
		if c.BeforeTick != nil {
			if err := c.BeforeTick(ctx); err != nil {
				return err
			}
			if c.Session.IsOver() {
				return nil
			}
		}

		if d := c.interval(); d > 0 {
			t := time.NewTimer(d)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		c.Session.Advance()
	}
	return nil
}
