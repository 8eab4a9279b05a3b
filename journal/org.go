package journal

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/rustyeddy/papertrader/market"
)

// FormatFillOrg renders a fill as an Org-mode block suitable for pasting
// into a trading diary. Structured facts go in a PROPERTIES drawer.
func FormatFillOrg(r FillRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** %s %s %d @ %.3f (%s)\n", strings.ToUpper(string(r.Side)), r.Instrument, r.Quantity, r.Price, shortID(r.TradeID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", r.TradeID)
	fmt.Fprintf(&b, ":ORDER_ID: %s\n", r.OrderID)
	fmt.Fprintf(&b, ":SESSION_ID: %s\n", r.SessionID)
	fmt.Fprintf(&b, ":INSTRUMENT: %s\n", r.Instrument)
	fmt.Fprintf(&b, ":SIDE: %s\n", r.Side)
	fmt.Fprintf(&b, ":PRICE: %.3f\n", r.Price)
	fmt.Fprintf(&b, ":QUANTITY: %d\n", r.Quantity)
	fmt.Fprintf(&b, ":GROSS: %.2f\n", r.Gross)
	fmt.Fprintf(&b, ":FEES: %.2f\n", r.Fees)
	fmt.Fprintf(&b, ":REALIZED_PNL: %.2f\n", r.RealizedPnL)
	fmt.Fprintf(&b, ":BAR: %d\n", r.BarIndex)
	fmt.Fprintf(&b, ":DATE: %s\n", r.Time.UTC().Format("2006-01-02"))
	b.WriteString(":END:\n")
	b.WriteString("\n*** Thesis\n- \n\n*** Review\n- \n")
	return b.String()
}

// FormatFillsOrg renders multiple fills separated by blank lines.
func FormatFillsOrg(fills []FillRecord) string {
	var b strings.Builder
	for i, r := range fills {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatFillOrg(r))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}

var resultOrgFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "(date?)"
		}
		return t.UTC().Format("2006-01-02")
	},
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"upper": func(s any) string { return strings.ToUpper(fmt.Sprint(s)) },
}

var resultOrg = template.Must(template.New("result").Funcs(resultOrgFuncs).Parse(ResultOrgTemplate))

type resultView struct {
	ResultRecord
	Fills []FillRecord
	Wins  int
	Sells int
}

// FormatResultOrg renders a session result and its fills as an Org-mode
// entry.
func FormatResultOrg(r ResultRecord, fills []FillRecord) (string, error) {
	v := resultView{ResultRecord: r, Fills: fills}
	for _, f := range fills {
		if f.Side == market.Sell {
			v.Sells++
			if f.RealizedPnL > 0 {
				v.Wins++
			}
		}
	}

	var buf bytes.Buffer
	if err := resultOrg.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render result %s: %w", r.SessionID, err)
	}
	return buf.String(), nil
}

const ResultOrgTemplate = `* SESSION: {{.Instrument}} {{date .Start}} .. {{date .End}}
:PROPERTIES:
:SESSION_ID:   {{if .SessionID}}{{.SessionID}}{{else}}(session-id?){{end}}
:INSTRUMENT:   {{.Instrument}}
:START_DATE:   {{date .Start}}
:END_DATE:     {{date .End}}
:START_BAL:    {{printf "%.2f" .InitialBalance}}
:FINAL_BAL:    {{printf "%.2f" .FinalBalance}}
:NET_PL:       {{printf "%.2f" .TotalReturn}}
:RETURN_PCT:   {{printf "%.2f" .ReturnRate}}
:MAX_DD_PCT:   {{printf "%.2f" .MaxDrawdown}}
:TRADES:       {{.TradeCount}}
:WIN_RATE:     {{printf "%.2f" .WinRate}}
:SCORE:        {{.Score}}
:BARS:         {{.Duration}}
:CREATED:      [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Final balance:  *{{printf "%.2f" .FinalBalance}}*
- Return:         *{{printf "%.2f" .ReturnRate}}%*
- Max drawdown:   *{{printf "%.2f" .MaxDrawdown}}%*
- Win rate:       *{{printf "%.2f" .WinRate}}%*
- Score:          *{{.Score}}*

** Fills
{{- if .Fills }}
| Date | Side | Qty | Price | Fees | Realized |
|------+------+-----+-------+------+----------|
{{- range .Fills }}
| {{date .Time}} | {{upper .Side}} | {{.Quantity}} | {{printf "%.3f" .Price}} | {{printf "%.2f" .Fees}} | {{printf "%.2f" .RealizedPnL}} |
{{- end }}
{{- else }}
# no fills
{{- end }}

** Trade Distribution
| Outcome        | Count |
|----------------+-------|
| Profitable sells | {{.Wins}} |
| Sells          | {{.Sells}} |
| Fills          | {{len .Fills}} |

** Review
- 
`
