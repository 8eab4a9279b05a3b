// Package report renders session state and results for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/orders"
	"github.com/rustyeddy/papertrader/scoring"
	"github.com/rustyeddy/papertrader/sim"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	gainStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	lossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)
)

// Printer writes reports to W. With Color off the output is plain text.
type Printer struct {
	W     io.Writer
	Color bool
}

func (p Printer) render(s lipgloss.Style, str string) string {
	if !p.Color {
		return str
	}
	return s.Render(str)
}

// signed colours a value the way the A-share market does: gains red,
// losses green.
func (p Printer) signed(x float64, str string) string {
	switch {
	case x > 0:
		return p.render(gainStyle, str)
	case x < 0:
		return p.render(lossStyle, str)
	}
	return str
}

type row struct{ label, value string }

func (p Printer) card(title string, rows []row) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r.label))
	}

	var b strings.Builder
	b.WriteString(p.render(titleStyle, title))
	b.WriteString("\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "\n%s  %s", p.render(labelStyle, r.label+strings.Repeat(" ", width-len(r.label))), r.value)
	}

	if p.Color {
		fmt.Fprintln(p.W, cardStyle.Render(b.String()))
		return
	}
	rule := strings.Repeat("=", 50)
	fmt.Fprintln(p.W, rule)
	fmt.Fprintln(p.W, b.String())
	fmt.Fprintln(p.W, rule)
}

// PrintResult renders the end-of-session scorecard.
func (p Printer) PrintResult(inst market.Instrument, r scoring.Result) {
	p.card("Session Result: "+inst.String(), []row{
		{"Final balance", Money(r.FinalBalance)},
		{"Total return", p.signed(r.TotalReturn, Signed(r.TotalReturn))},
		{"Return rate", p.signed(r.ReturnRate, Percent(r.ReturnRate))},
		{"Max drawdown", Percent(r.MaxDrawdown)},
		{"Trades", fmt.Sprintf("%d", r.TradeCount)},
		{"Win rate", Percent(r.WinRate)},
		{"Bars played", fmt.Sprintf("%d", r.Duration)},
		{"Score", p.render(scoreStyle, fmt.Sprintf("%d", r.Score))},
	})
}

// PrintResult is a convenience for Printer{W: w}.PrintResult.
func PrintResult(w io.Writer, inst market.Instrument, r scoring.Result) {
	Printer{W: w}.PrintResult(inst, r)
}

// PrintSnapshot renders the account panel.
func (p Printer) PrintSnapshot(s sim.Snapshot) {
	date := "-"
	if !s.Time.IsZero() {
		date = s.Time.Format(market.DateLayout)
	}
	p.card(fmt.Sprintf("%s  %s  day %d/%d", s.Instrument, date, s.Index, s.Length), []row{
		{"Price", Price(s.Price)},
		{"Total assets", Money(s.TotalAssets)},
		{"Cash", Money(s.Cash)},
		{"Frozen cash", Money(s.FrozenCash)},
		{"Shares", fmt.Sprintf("%d (%d frozen)", s.Shares, s.FrozenShares)},
		{"Avg cost", Price(s.AvgCost)},
		{"Unrealized", p.signed(s.UnrealizedPnL, Signed(s.UnrealizedPnL)+" ("+Percent(s.UnrealizedPnLPercent)+")")},
		{"Progress", fmt.Sprintf("%s, %d bars left, %dx", Percent(s.Progress), s.Remaining, s.Speed)},
	})
}

// PrintOrders lists orders as a table.
func (p Printer) PrintOrders(os []orders.Order) {
	if len(os) == 0 {
		fmt.Fprintln(p.W, "no orders")
		return
	}
	fmt.Fprintf(p.W, "%-4s %-26s %-4s %10s %8s %-9s %s\n", "#", "ID", "SIDE", "LIMIT", "QTY", "STATUS", "BAR")
	for i, o := range os {
		fmt.Fprintf(p.W, "%-4d %-26s %-4s %10s %8d %-9s %d\n",
			i+1, o.ID, o.Side, Price(o.LimitPrice), o.Quantity, o.Status, o.BarIndex)
	}
}

// PrintTrades lists fills as a table.
func (p Printer) PrintTrades(ts []orders.Trade) {
	if len(ts) == 0 {
		fmt.Fprintln(p.W, "no trades")
		return
	}
	fmt.Fprintf(p.W, "%-10s %-4s %10s %8s %12s %8s %12s\n", "DATE", "SIDE", "PRICE", "QTY", "GROSS", "FEES", "REALIZED")
	for _, t := range ts {
		fmt.Fprintf(p.W, "%-10s %-4s %10s %8d %12s %8s %12s\n",
			t.Time.Format(market.DateLayout), t.Side, Price(t.Price), t.Quantity,
			Money(t.Gross), Money(t.TotalFees()), p.signed(t.RealizedPnL, Signed(t.RealizedPnL)))
	}
}
