package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/papertrader/fees"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/report"
	"github.com/rustyeddy/papertrader/risk"
	"github.com/rustyeddy/papertrader/sim"
)

var (
	errQuit    = errors.New("quit")
	errBlocked = errors.New("order blocked")
	errPaused  = errors.New("session is paused, resume first")
)

const consoleHelp = `Commands:
  buy <price|market> <qty|max|NN%>   place a limit buy
  sell <price|market> <qty|max|NN%>  place a limit sell
  quote <buy|sell> <price> <qty>     preview fees and checks
  max                                largest buy and sell at the close
  cancel <id|#n>                     cancel a pending order
  next [n]                           advance n bars (default 1)
  run                                let the clock play to the end
  bars [n]                           last n bars (default 5)
  status | orders | trades
  speed [n]                          cycle or set the playback speed
  pause | resume | end | quit`

// console is the interactive prompt of play -i.
type console struct {
	s    *sim.Session
	p    report.Printer
	in   *bufio.Scanner
	out  io.Writer
	base time.Duration
	lot  int64
	fees fees.Schedule
}

func newConsole(s *sim.Session, p report.Printer, in io.Reader, out io.Writer) *console {
	return &console{s: s, p: p, in: bufio.NewScanner(in), out: out, lot: 1, fees: fees.Default()}
}

// Run reads commands until the session ends, input runs out or quit.
func (c *console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, `Type "help" for commands.`)
	for !c.s.IsOver() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(c.out, "> ")
		if !c.in.Scan() {
			return c.in.Err()
		}
		err := c.exec(ctx, c.in.Text())
		switch {
		case errors.Is(err, errQuit):
			return nil
		case err != nil:
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
	return nil
}

func (c *console) exec(ctx context.Context, line string) error {
	f := strings.Fields(line)
	if len(f) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(f[0]), f[1:]

	switch cmd {
	case "help", "?":
		fmt.Fprintln(c.out, consoleHelp)
	case "buy", "sell":
		return c.place(market.Side(cmd), args)
	case "quote":
		return c.quote(args)
	case "max":
		c.max()
	case "cancel":
		return c.cancel(args)
	case "next", "n":
		return c.next(args)
	case "run":
		if c.s.State() == sim.Paused {
			return errPaused
		}
		clock := sim.NewClock(c.s)
		clock.Base = c.base
		return clock.Run(ctx)
	case "bars":
		return c.bars(args)
	case "status", "s":
		c.p.PrintSnapshot(c.s.Snapshot())
	case "orders":
		c.p.PrintOrders(c.s.Orders())
	case "trades":
		c.p.PrintTrades(c.s.Trades())
	case "speed":
		return c.speed(args)
	case "pause":
		return c.s.Pause()
	case "resume":
		return c.s.Resume()
	case "end":
		_, err := c.s.End()
		return err
	case "quit", "exit", "q":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (c *console) price(arg string) (float64, error) {
	if arg == "market" || arg == "m" {
		b, ok := c.s.CurrentBar()
		if !ok {
			return 0, sim.ErrNoActiveSession
		}
		return b.Close, nil
	}
	p, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("bad price %q", arg)
	}
	return p, nil
}

func (c *console) maxQuantity(side market.Side, price float64, snap sim.Snapshot) int64 {
	if side == market.Buy {
		return risk.MaxBuyQuantity(snap.AvailableCash, price, c.fees, c.lot)
	}
	return risk.MaxSellQuantity(snap)
}

// parseQuantity accepts a share count, "max" or a percentage of max.
func parseQuantity(arg string, maxQty, lot int64) (int64, error) {
	switch {
	case arg == "max" || arg == "all":
		return maxQty, nil
	case strings.HasSuffix(arg, "%"):
		pct, err := strconv.ParseFloat(strings.TrimSuffix(arg, "%"), 64)
		if err != nil || pct <= 0 {
			return 0, fmt.Errorf("bad percentage %q", arg)
		}
		return risk.QuantityForPercent(maxQty, pct/100, lot), nil
	}
	q, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad quantity %q", arg)
	}
	return q, nil
}

func (c *console) order(side market.Side, args []string) (float64, int64, risk.Estimate, error) {
	if len(args) != 2 {
		return 0, 0, risk.Estimate{}, fmt.Errorf("usage: %s <price> <qty>", side)
	}
	price, err := c.price(args[0])
	if err != nil {
		return 0, 0, risk.Estimate{}, err
	}
	snap := c.s.Snapshot()
	qty, err := parseQuantity(args[1], c.maxQuantity(side, price, snap), c.lot)
	if err != nil {
		return 0, 0, risk.Estimate{}, err
	}
	return price, qty, risk.Evaluate(c.fees, side, price, qty, snap, c.lot), nil
}

func (c *console) place(side market.Side, args []string) error {
	price, qty, est, err := c.order(side, args)
	if err != nil {
		return err
	}
	if !est.Allowed {
		c.violations(est)
		return errBlocked
	}
	id, err := c.s.Place(side, price, qty)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "placed %s: %s %d @ %s, fees %s, total %s\n",
		id, side, qty, report.Price(price), report.Money(est.Fees.Total()), report.Money(est.Total))
	return nil
}

func (c *console) quote(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: quote <buy|sell> <price> <qty>")
	}
	side, err := market.ParseSide(args[0])
	if err != nil {
		return err
	}
	_, qty, est, err := c.order(side, args[1:])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s %d: fees %s, total %s, max %d\n",
		side, qty, report.Money(est.Fees.Total()), report.Money(est.Total), est.MaxQuantity)
	c.violations(est)
	return nil
}

func (c *console) violations(est risk.Estimate) {
	for _, v := range est.Violations {
		fmt.Fprintf(c.out, "  %s: %s\n", v.Code, v.Msg)
	}
}

func (c *console) max() {
	snap := c.s.Snapshot()
	fmt.Fprintf(c.out, "at %s: buy %d, sell %d\n", report.Price(snap.Price),
		c.maxQuantity(market.Buy, snap.Price, snap), c.maxQuantity(market.Sell, snap.Price, snap))
}

// cancel takes an order id or its #n position in the orders table.
func (c *console) cancel(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: cancel <id|#n>")
	}
	id := args[0]
	if n, ok := strings.CutPrefix(id, "#"); ok {
		i, err := strconv.Atoi(n)
		os := c.s.Orders()
		if err != nil || i < 1 || i > len(os) {
			return fmt.Errorf("no order %s", id)
		}
		id = os[i-1].ID
	}
	if err := c.s.Cancel(id); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "cancelled %s\n", id)
	return nil
}

func (c *console) next(args []string) error {
	n := 1
	if len(args) > 0 {
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil || n < 1 {
			return fmt.Errorf("bad count %q", args[0])
		}
	}
	for i := 0; i < n && !c.s.IsOver(); i++ {
		c.s.Advance()
	}
	if b, ok := c.s.CurrentBar(); ok && !c.s.IsOver() {
		snap := c.s.Snapshot()
		fmt.Fprintf(c.out, "%s close %s, assets %s, %d left\n",
			b.Date(), report.Price(b.Close), report.Money(snap.TotalAssets), snap.Remaining)
	}
	return nil
}

func (c *console) bars(args []string) error {
	n := 5
	if len(args) > 0 {
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil || n < 1 {
			return fmt.Errorf("bad count %q", args[0])
		}
	}
	bs := c.s.Bars()
	if len(bs) > n {
		bs = bs[len(bs)-n:]
	}
	fmt.Fprintf(c.out, "%-10s %10s %10s %10s %10s %12s\n", "DATE", "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME")
	for _, b := range bs {
		fmt.Fprintf(c.out, "%-10s %10s %10s %10s %10s %12.0f\n",
			b.Date(), report.Price(b.Open), report.Price(b.High), report.Price(b.Low), report.Price(b.Close), b.Volume)
	}
	return nil
}

func (c *console) speed(args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(c.out, "speed %dx\n", c.s.CycleSpeed())
		return nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad speed %q", args[0])
	}
	if err := c.s.SetSpeed(n); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "speed %dx\n", n)
	return nil
}
