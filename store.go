package progfin

import "context"

// Table names a row collection in the backing store.
type Table string

const (
	TableBudgets      Table = "Budgets"
	TableTransactions Table = "Transactions"
	TableCashFlows    Table = "CashFlows"
	TableSnapshots    Table = "EVM Snapshots"
)

// RowStore is the row-oriented persistence contract the analytics core runs
// against. Implementations back it with whatever medium they like (an
// in-memory map, SQLite, a spreadsheet export); the core only assumes
// read-by-id, list-with-filter, append, update-by-id, and next-id generation
// over named tables.
//
// Lookups of unknown ids return a *NotFoundError. A nil filter accepts every
// row. There is no multi-row transaction: read-modify-write sequences are
// only as atomic as the caller makes them.
//
// Snapshots are immutable by construction: the interface offers no snapshot
// update, only append and an explicit administrative delete.
type RowStore interface {
	// NextID returns a fresh identifier for the given table.
	NextID(ctx context.Context, table Table) (string, error)

	Budget(ctx context.Context, id string) (*Budget, error)
	Budgets(ctx context.Context, keep func(*Budget) bool) ([]*Budget, error)
	AppendBudget(ctx context.Context, b *Budget) error
	UpdateBudget(ctx context.Context, b *Budget) error

	Transaction(ctx context.Context, id string) (*FinancialTransaction, error)
	Transactions(ctx context.Context, keep func(*FinancialTransaction) bool) ([]*FinancialTransaction, error)
	AppendTransaction(ctx context.Context, t *FinancialTransaction) error
	UpdateTransaction(ctx context.Context, t *FinancialTransaction) error

	CashFlow(ctx context.Context, id string) (*CashFlow, error)
	CashFlows(ctx context.Context, keep func(*CashFlow) bool) ([]*CashFlow, error)
	AppendCashFlow(ctx context.Context, f *CashFlow) error
	UpdateCashFlow(ctx context.Context, f *CashFlow) error

	Snapshot(ctx context.Context, id string) (*EVMSnapshot, error)
	Snapshots(ctx context.Context, keep func(*EVMSnapshot) bool) ([]*EVMSnapshot, error)
	AppendSnapshot(ctx context.Context, s *EVMSnapshot) error
	DeleteSnapshot(ctx context.Context, id string) error
}

// Measures are the four base EVM measures every derived metric is computed
// from. All four share one currency.
type Measures struct {
	PV  Money `json:"pv"`  // planned value
	EV  Money `json:"ev"`  // earned value
	AC  Money `json:"ac"`  // actual cost
	BAC Money `json:"bac"` // budget at completion
}

// ProgramDataProvider supplies aggregate EVM base measures for a program as
// of a date. It abstracts the project-plan side of the system, which is
// outside this core.
type ProgramDataProvider interface {
	Aggregates(ctx context.Context, programID string, asOf Date) (Measures, error)
}
