package journal

const Schema = `
CREATE TABLE IF NOT EXISTS fills (
	trade_id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL,
	session_id TEXT NOT NULL,
	instrument TEXT NOT NULL,
	side TEXT NOT NULL,
	price REAL NOT NULL,
	quantity INTEGER NOT NULL,
	gross REAL NOT NULL,
	fees REAL NOT NULL,
	realized_pnl REAL NOT NULL,
	bar_index INTEGER NOT NULL,
	time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fills_session ON fills(session_id, bar_index);

CREATE TABLE IF NOT EXISTS equity (
	session_id TEXT NOT NULL,
	bar_index INTEGER NOT NULL,
	time DATETIME NOT NULL,
	cash REAL NOT NULL,
	frozen_cash REAL NOT NULL,
	shares INTEGER NOT NULL,
	price REAL NOT NULL,
	total_assets REAL NOT NULL,
	PRIMARY KEY (session_id, bar_index)
);

CREATE TABLE IF NOT EXISTS results (
	session_id TEXT PRIMARY KEY,
	instrument TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	initial_balance REAL NOT NULL,
	final_balance REAL NOT NULL,
	total_return REAL NOT NULL,
	return_rate REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	trade_count INTEGER NOT NULL,
	win_rate REAL NOT NULL,
	score INTEGER NOT NULL,
	duration INTEGER NOT NULL,
	created DATETIME NOT NULL
);
`
