package progfin

import (
	"context"
	"testing"
	"time"
)

// usd is the test shorthand for a dollar amount.
func usd(v float64) Money { return M(v, "USD") }

// testClock is a fixed reconciliation/audit clock.
var testClock = func() time.Time {
	return time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
}

// testDay is the date of testClock.
var testDay = NewDate(2026, time.March, 15)

// fakeProvider serves canned measures; mutate Measures between calls to
// simulate moving programs.
type fakeProvider struct {
	Measures Measures
	Err      error
}

func (p *fakeProvider) Aggregates(ctx context.Context, programID string, asOf Date) (Measures, error) {
	if p.Err != nil {
		return Measures{}, p.Err
	}
	return p.Measures, nil
}

// seedBudget appends a budget and fails the test on error.
func seedBudget(t *testing.T, store RowStore, b *Budget) *Budget {
	t.Helper()
	if b.ID == "" {
		id, err := store.NextID(context.Background(), TableBudgets)
		if err != nil {
			t.Fatal(err)
		}
		b.ID = id
	}
	if err := store.AppendBudget(context.Background(), b); err != nil {
		t.Fatal(err)
	}
	return b
}

func seedTransaction(t *testing.T, store RowStore, x *FinancialTransaction) *FinancialTransaction {
	t.Helper()
	if x.ID == "" {
		id, err := store.NextID(context.Background(), TableTransactions)
		if err != nil {
			t.Fatal(err)
		}
		x.ID = id
	}
	if err := store.AppendTransaction(context.Background(), x); err != nil {
		t.Fatal(err)
	}
	return x
}

func seedCashFlow(t *testing.T, store RowStore, f *CashFlow) *CashFlow {
	t.Helper()
	if f.ID == "" {
		id, err := store.NextID(context.Background(), TableCashFlows)
		if err != nil {
			t.Fatal(err)
		}
		f.ID = id
	}
	if err := store.AppendCashFlow(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	return f
}
