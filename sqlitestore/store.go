// Package sqlitestore provides a SQLite-backed implementation of the
// progfin row store.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pmtools/progfin"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Store is a persistent RowStore over a local SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

var sqlTable = map[progfin.Table]string{
	progfin.TableBudgets:      "budgets",
	progfin.TableTransactions: "transactions",
	progfin.TableCashFlows:    "cash_flows",
	progfin.TableSnapshots:    "snapshots",
}

var idPrefix = map[progfin.Table]string{
	progfin.TableBudgets:      "BUD",
	progfin.TableTransactions: "TXN",
	progfin.TableCashFlows:    "CF",
	progfin.TableSnapshots:    "SNAP",
}

// NextID returns a fresh identifier like "BUD-0007". The sequence bump is a
// single upsert, so concurrent callers never see the same id.
func (s *Store) NextID(ctx context.Context, table progfin.Table) (string, error) {
	prefix, ok := idPrefix[table]
	if !ok {
		return "", fmt.Errorf("unknown table %q", table)
	}
	var next int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sequences (tbl, next) VALUES (?, 1)
		ON CONFLICT(tbl) DO UPDATE SET next = next + 1
		RETURNING next`, string(table)).Scan(&next)
	if err != nil {
		return "", fmt.Errorf("generating id for table %q: %w", table, err)
	}
	return fmt.Sprintf("%s-%04d", prefix, next), nil
}

// get loads one row's payload and unmarshals it into out.
func (s *Store) get(ctx context.Context, table progfin.Table, id string, out any) error {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT data FROM %s WHERE id = ?", sqlTable[table]), id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return &progfin.NotFoundError{Table: table, ID: id}
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// scan loads every row's payload of a table and hands each to yield.
func (s *Store) scan(ctx context.Context, table progfin.Table, yield func(data []byte) error) error {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT data FROM %s ORDER BY id", sqlTable[table]))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return err
		}
		if err := yield(data); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) insert(ctx context.Context, table progfin.Table, id, programID string, row any) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, program_id, data) VALUES (?, ?, ?)", sqlTable[table]),
		id, programID, data)
	return err
}

func (s *Store) update(ctx context.Context, table progfin.Table, id string, row any) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET data = ? WHERE id = ?", sqlTable[table]), data, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &progfin.NotFoundError{Table: table, ID: id}
	}
	return nil
}

func (s *Store) Budget(ctx context.Context, id string) (*progfin.Budget, error) {
	var b progfin.Budget
	if err := s.get(ctx, progfin.TableBudgets, id, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) Budgets(ctx context.Context, keep func(*progfin.Budget) bool) ([]*progfin.Budget, error) {
	var out []*progfin.Budget
	err := s.scan(ctx, progfin.TableBudgets, func(data []byte) error {
		var b progfin.Budget
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		if keep == nil || keep(&b) {
			out = append(out, &b)
		}
		return nil
	})
	return out, err
}

func (s *Store) AppendBudget(ctx context.Context, b *progfin.Budget) error {
	return s.insert(ctx, progfin.TableBudgets, b.ID, b.ProgramID, b)
}

func (s *Store) UpdateBudget(ctx context.Context, b *progfin.Budget) error {
	return s.update(ctx, progfin.TableBudgets, b.ID, b)
}

func (s *Store) Transaction(ctx context.Context, id string) (*progfin.FinancialTransaction, error) {
	var t progfin.FinancialTransaction
	if err := s.get(ctx, progfin.TableTransactions, id, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) Transactions(ctx context.Context, keep func(*progfin.FinancialTransaction) bool) ([]*progfin.FinancialTransaction, error) {
	var out []*progfin.FinancialTransaction
	err := s.scan(ctx, progfin.TableTransactions, func(data []byte) error {
		var t progfin.FinancialTransaction
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		if keep == nil || keep(&t) {
			out = append(out, &t)
		}
		return nil
	})
	return out, err
}

func (s *Store) AppendTransaction(ctx context.Context, t *progfin.FinancialTransaction) error {
	return s.insert(ctx, progfin.TableTransactions, t.ID, t.ProgramID, t)
}

func (s *Store) UpdateTransaction(ctx context.Context, t *progfin.FinancialTransaction) error {
	return s.update(ctx, progfin.TableTransactions, t.ID, t)
}

func (s *Store) CashFlow(ctx context.Context, id string) (*progfin.CashFlow, error) {
	var f progfin.CashFlow
	if err := s.get(ctx, progfin.TableCashFlows, id, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) CashFlows(ctx context.Context, keep func(*progfin.CashFlow) bool) ([]*progfin.CashFlow, error) {
	var out []*progfin.CashFlow
	err := s.scan(ctx, progfin.TableCashFlows, func(data []byte) error {
		var f progfin.CashFlow
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		if keep == nil || keep(&f) {
			out = append(out, &f)
		}
		return nil
	})
	return out, err
}

func (s *Store) AppendCashFlow(ctx context.Context, f *progfin.CashFlow) error {
	return s.insert(ctx, progfin.TableCashFlows, f.ID, f.ProgramID, f)
}

func (s *Store) UpdateCashFlow(ctx context.Context, f *progfin.CashFlow) error {
	return s.update(ctx, progfin.TableCashFlows, f.ID, f)
}

func (s *Store) Snapshot(ctx context.Context, id string) (*progfin.EVMSnapshot, error) {
	var snap progfin.EVMSnapshot
	if err := s.get(ctx, progfin.TableSnapshots, id, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Store) Snapshots(ctx context.Context, keep func(*progfin.EVMSnapshot) bool) ([]*progfin.EVMSnapshot, error) {
	var out []*progfin.EVMSnapshot
	err := s.scan(ctx, progfin.TableSnapshots, func(data []byte) error {
		var snap progfin.EVMSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return err
		}
		if keep == nil || keep(&snap) {
			out = append(out, &snap)
		}
		return nil
	})
	return out, err
}

func (s *Store) AppendSnapshot(ctx context.Context, snap *progfin.EVMSnapshot) error {
	return s.insert(ctx, progfin.TableSnapshots, snap.ID, snap.ProgramID, snap)
}

func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &progfin.NotFoundError{Table: progfin.TableSnapshots, ID: id}
	}
	return nil
}

var _ progfin.RowStore = (*Store)(nil)
