package progfin

import (
	"context"
	"fmt"
	"sync"
)

// MemStore is an in-memory RowStore. It is the reference implementation of
// the store contract and the default test double: rows are stored by value,
// reads return copies, and ids are per-table sequences.
//
// MemStore serializes its own operations with a mutex, but offers no
// cross-call transaction, exactly like the stores it stands in for.
type MemStore struct {
	mu sync.Mutex

	budgets      map[string]Budget
	transactions map[string]FinancialTransaction
	cashflows    map[string]CashFlow
	snapshots    map[string]EVMSnapshot

	// insertion order per table, for stable listings.
	budgetOrder      []string
	transactionOrder []string
	cashflowOrder    []string
	snapshotOrder    []string

	seq map[Table]int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		budgets:      make(map[string]Budget),
		transactions: make(map[string]FinancialTransaction),
		cashflows:    make(map[string]CashFlow),
		snapshots:    make(map[string]EVMSnapshot),
		seq:          make(map[Table]int),
	}
}

var idPrefix = map[Table]string{
	TableBudgets:      "BUD",
	TableTransactions: "TXN",
	TableCashFlows:    "CF",
	TableSnapshots:    "SNAP",
}

// NextID returns a fresh identifier like "BUD-0007".
func (m *MemStore) NextID(_ context.Context, table Table) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix, ok := idPrefix[table]
	if !ok {
		return "", fmt.Errorf("unknown table %q", table)
	}
	m.seq[table]++
	return fmt.Sprintf("%s-%04d", prefix, m.seq[table]), nil
}

func (m *MemStore) Budget(_ context.Context, id string) (*Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok {
		return nil, &NotFoundError{Table: TableBudgets, ID: id}
	}
	return &b, nil
}

func (m *MemStore) Budgets(_ context.Context, keep func(*Budget) bool) ([]*Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Budget
	for _, id := range m.budgetOrder {
		b := m.budgets[id]
		if keep == nil || keep(&b) {
			row := b
			out = append(out, &row)
		}
	}
	return out, nil
}

func (m *MemStore) AppendBudget(_ context.Context, b *Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		return validationf("budget id must not be empty")
	}
	if _, exists := m.budgets[b.ID]; exists {
		return fmt.Errorf("budget %q already exists", b.ID)
	}
	m.budgets[b.ID] = *b
	m.budgetOrder = append(m.budgetOrder, b.ID)
	return nil
}

func (m *MemStore) UpdateBudget(_ context.Context, b *Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.budgets[b.ID]; !ok {
		return &NotFoundError{Table: TableBudgets, ID: b.ID}
	}
	m.budgets[b.ID] = *b
	return nil
}

func (m *MemStore) Transaction(_ context.Context, id string) (*FinancialTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, &NotFoundError{Table: TableTransactions, ID: id}
	}
	return &t, nil
}

func (m *MemStore) Transactions(_ context.Context, keep func(*FinancialTransaction) bool) ([]*FinancialTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*FinancialTransaction
	for _, id := range m.transactionOrder {
		t := m.transactions[id]
		if keep == nil || keep(&t) {
			row := t
			out = append(out, &row)
		}
	}
	return out, nil
}

func (m *MemStore) AppendTransaction(_ context.Context, t *FinancialTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		return validationf("transaction id must not be empty")
	}
	if _, exists := m.transactions[t.ID]; exists {
		return fmt.Errorf("transaction %q already exists", t.ID)
	}
	m.transactions[t.ID] = *t
	m.transactionOrder = append(m.transactionOrder, t.ID)
	return nil
}

func (m *MemStore) UpdateTransaction(_ context.Context, t *FinancialTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[t.ID]; !ok {
		return &NotFoundError{Table: TableTransactions, ID: t.ID}
	}
	m.transactions[t.ID] = *t
	return nil
}

func (m *MemStore) CashFlow(_ context.Context, id string) (*CashFlow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.cashflows[id]
	if !ok {
		return nil, &NotFoundError{Table: TableCashFlows, ID: id}
	}
	return &f, nil
}

func (m *MemStore) CashFlows(_ context.Context, keep func(*CashFlow) bool) ([]*CashFlow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*CashFlow
	for _, id := range m.cashflowOrder {
		f := m.cashflows[id]
		if keep == nil || keep(&f) {
			row := f
			out = append(out, &row)
		}
	}
	return out, nil
}

func (m *MemStore) AppendCashFlow(_ context.Context, f *CashFlow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == "" {
		return validationf("cash flow id must not be empty")
	}
	if _, exists := m.cashflows[f.ID]; exists {
		return fmt.Errorf("cash flow %q already exists", f.ID)
	}
	m.cashflows[f.ID] = *f
	m.cashflowOrder = append(m.cashflowOrder, f.ID)
	return nil
}

func (m *MemStore) UpdateCashFlow(_ context.Context, f *CashFlow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cashflows[f.ID]; !ok {
		return &NotFoundError{Table: TableCashFlows, ID: f.ID}
	}
	m.cashflows[f.ID] = *f
	return nil
}

func (m *MemStore) Snapshot(_ context.Context, id string) (*EVMSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[id]
	if !ok {
		return nil, &NotFoundError{Table: TableSnapshots, ID: id}
	}
	return &s, nil
}

func (m *MemStore) Snapshots(_ context.Context, keep func(*EVMSnapshot) bool) ([]*EVMSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*EVMSnapshot
	for _, id := range m.snapshotOrder {
		s := m.snapshots[id]
		if keep == nil || keep(&s) {
			row := s
			out = append(out, &row)
		}
	}
	return out, nil
}

func (m *MemStore) AppendSnapshot(_ context.Context, s *EVMSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		return validationf("snapshot id must not be empty")
	}
	if _, exists := m.snapshots[s.ID]; exists {
		return fmt.Errorf("snapshot %q already exists", s.ID)
	}
	m.snapshots[s.ID] = *s
	m.snapshotOrder = append(m.snapshotOrder, s.ID)
	return nil
}

func (m *MemStore) DeleteSnapshot(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snapshots[id]; !ok {
		return &NotFoundError{Table: TableSnapshots, ID: id}
	}
	delete(m.snapshots, id)
	for i, sid := range m.snapshotOrder {
		if sid == id {
			m.snapshotOrder = append(m.snapshotOrder[:i], m.snapshotOrder[i+1:]...)
			break
		}
	}
	return nil
}

var _ RowStore = (*MemStore)(nil)
