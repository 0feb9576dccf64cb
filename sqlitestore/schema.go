package sqlitestore

// Rows keep their full JSON shape in a payload column; the columns pulled
// out beside it are exactly the ones the store filters or joins on.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS budgets (
	id         TEXT PRIMARY KEY,
	program_id TEXT NOT NULL,
	data       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_budgets_program ON budgets(program_id);

CREATE TABLE IF NOT EXISTS transactions (
	id         TEXT PRIMARY KEY,
	program_id TEXT NOT NULL,
	data       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_program ON transactions(program_id);

CREATE TABLE IF NOT EXISTS cash_flows (
	id         TEXT PRIMARY KEY,
	program_id TEXT NOT NULL,
	data       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cash_flows_program ON cash_flows(program_id);

CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	program_id TEXT NOT NULL,
	data       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_program ON snapshots(program_id);

CREATE TABLE IF NOT EXISTS sequences (
	tbl  TEXT PRIMARY KEY,
	next INTEGER NOT NULL
);
`
