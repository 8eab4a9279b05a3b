package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordFill(f FillRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO fills
		(trade_id, order_id, session_id, instrument, side, price, quantity, gross, fees, realized_pnl, bar_index, time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.TradeID, f.OrderID, f.SessionID, f.Instrument, string(f.Side), f.Price,
		f.Quantity, f.Gross, f.Fees, f.RealizedPnL, f.BarIndex, f.Time,
	)
	return err
}

// RecordEquity keeps the last snapshot per session and bar.
func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO equity
		(session_id, bar_index, time, cash, frozen_cash, shares, price, total_assets)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.BarIndex, e.Time, e.Cash, e.FrozenCash, e.Shares, e.Price, e.TotalAssets,
	)
	return err
}

func (j *SQLite) RecordResult(r ResultRecord) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO results
		(session_id, instrument, start_time, end_time, initial_balance, final_balance, total_return,
		 return_rate, max_drawdown, trade_count, win_rate, score, duration, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.Instrument, r.Start, r.End, r.InitialBalance, r.FinalBalance, r.TotalReturn,
		r.ReturnRate, r.MaxDrawdown, r.TradeCount, r.WinRate, r.Score, r.Duration, r.Created,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
