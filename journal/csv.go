package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var (
	fillHeader   = []string{"trade_id", "order_id", "session_id", "instrument", "side", "price", "quantity", "gross", "fees", "realized_pnl", "bar_index", "time"}
	equityHeader = []string{"session_id", "bar_index", "time", "cash", "frozen_cash", "shares", "price", "total_assets"}
	resultHeader = []string{"session_id", "instrument", "start", "end", "initial_balance", "final_balance", "total_return", "return_rate", "max_drawdown", "trade_count", "win_rate", "score", "duration"}
)

// CSVJournal writes fills.csv, equity.csv and results.csv into a
// directory.
type CSVJournal struct {
	writers [3]*csv.Writer
	files   [3]*os.File
}

const (
	csvFills = iota
	csvEquity
	csvResults
)

func NewCSV(dir string) (*CSVJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	j := &CSVJournal{}
	names := [3]string{"fills.csv", "equity.csv", "results.csv"}
	headers := [3][]string{fillHeader, equityHeader, resultHeader}
	for i := range names {
		f, err := os.Create(filepath.Join(dir, names[i]))
		if err != nil {
			j.Close()
			return nil, err
		}
		j.files[i] = f
		j.writers[i] = csv.NewWriter(f)
		if err := j.write(i, headers[i]); err != nil {
			j.Close()
			return nil, err
		}
	}
	return j, nil
}

func (j *CSVJournal) write(i int, rec []string) error {
	w := j.writers[i]
	if err := w.Write(rec); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSVJournal) RecordFill(r FillRecord) error {
	return j.write(csvFills, []string{
		r.TradeID,
		r.OrderID,
		r.SessionID,
		r.Instrument,
		string(r.Side),
		f(r.Price),
		strconv.FormatInt(r.Quantity, 10),
		f(r.Gross),
		f(r.Fees),
		f(r.RealizedPnL),
		strconv.Itoa(r.BarIndex),
		r.Time.Format(time.RFC3339),
	})
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	return j.write(csvEquity, []string{
		e.SessionID,
		strconv.Itoa(e.BarIndex),
		e.Time.Format(time.RFC3339),
		f(e.Cash),
		f(e.FrozenCash),
		strconv.FormatInt(e.Shares, 10),
		f(e.Price),
		f(e.TotalAssets),
	})
}

func (j *CSVJournal) RecordResult(r ResultRecord) error {
	return j.write(csvResults, []string{
		r.SessionID,
		r.Instrument,
		r.Start.Format(time.RFC3339),
		r.End.Format(time.RFC3339),
		f(r.InitialBalance),
		f(r.FinalBalance),
		f(r.TotalReturn),
		f(r.ReturnRate),
		f(r.MaxDrawdown),
		strconv.Itoa(r.TradeCount),
		f(r.WinRate),
		strconv.Itoa(r.Score),
		strconv.Itoa(r.Duration),
	})
}

func (j *CSVJournal) Close() error {
	var first error
	for i := range j.files {
		if j.writers[i] != nil {
			j.writers[i].Flush()
			if err := j.writers[i].Error(); err != nil && first == nil {
				first = err
			}
		}
		if j.files[i] != nil {
			if err := j.files[i].Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
