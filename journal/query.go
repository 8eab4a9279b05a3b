package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const fillColumns = `trade_id, order_id, session_id, instrument, side, price, quantity, gross, fees, realized_pnl, bar_index, time`

type scanner interface {
	Scan(dest ...any) error
}

func scanFill(s scanner) (FillRecord, error) {
	var f FillRecord
	err := s.Scan(
		&f.TradeID,
		&f.OrderID,
		&f.SessionID,
		&f.Instrument,
		&f.Side,
		&f.Price,
		&f.Quantity,
		&f.Gross,
		&f.Fees,
		&f.RealizedPnL,
		&f.BarIndex,
		&f.Time,
	)
	return f, err
}

// GetFill returns a single fill by trade id.
func (j *SQLite) GetFill(ctx context.Context, tradeID string) (FillRecord, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+fillColumns+` FROM fills WHERE trade_id = ?`, tradeID)
	f, err := scanFill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return FillRecord{}, fmt.Errorf("fill %q: %w", tradeID, ErrNotFound)
	}
	return f, err
}

// ListFillsBySession returns the fills of a session in execution order.
func (j *SQLite) ListFillsBySession(ctx context.Context, sessionID string) ([]FillRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+fillColumns+`
		FROM fills
		WHERE session_id = ?
		ORDER BY bar_index ASC, trade_id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FillRecord
	for rows.Next() {
		f, err := scanFill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquityBySession returns the equity curve of a session.
func (j *SQLite) ListEquityBySession(ctx context.Context, sessionID string) ([]EquitySnapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT session_id, bar_index, time, cash, frozen_cash, shares, price, total_assets
		FROM equity
		WHERE session_id = ?
		ORDER BY bar_index ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(
			&e.SessionID,
			&e.BarIndex,
			&e.Time,
			&e.Cash,
			&e.FrozenCash,
			&e.Shares,
			&e.Price,
			&e.TotalAssets,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

const resultColumns = `session_id, instrument, start_time, end_time, initial_balance, final_balance, total_return,
	return_rate, max_drawdown, trade_count, win_rate, score, duration, created`

func scanResult(s scanner) (ResultRecord, error) {
	var r ResultRecord
	err := s.Scan(
		&r.SessionID,
		&r.Instrument,
		&r.Start,
		&r.End,
		&r.InitialBalance,
		&r.FinalBalance,
		&r.TotalReturn,
		&r.ReturnRate,
		&r.MaxDrawdown,
		&r.TradeCount,
		&r.WinRate,
		&r.Score,
		&r.Duration,
		&r.Created,
	)
	return r, err
}

func (j *SQLite) GetResult(ctx context.Context, sessionID string) (ResultRecord, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM results WHERE session_id = ?`, sessionID)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ResultRecord{}, fmt.Errorf("result %q: %w", sessionID, ErrNotFound)
	}
	return r, err
}

// ListResults returns the most recent results first. limit <= 0 means all.
func (j *SQLite) ListResults(ctx context.Context, limit int) ([]ResultRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+resultColumns+`
		FROM results
		ORDER BY created DESC, session_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ResultRecord
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
