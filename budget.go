package progfin

import (
	"fmt"
	"time"
)

// BudgetStatus is the lifecycle state of a budget.
type BudgetStatus int

const (
	BudgetActive BudgetStatus = iota
	BudgetClosed
)

func (s BudgetStatus) String() string {
	switch s {
	case BudgetActive:
		return "active"
	case BudgetClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ParseBudgetStatus parses a string into a BudgetStatus.
func ParseBudgetStatus(s string) (BudgetStatus, error) {
	switch s {
	case "active":
		return BudgetActive, nil
	case "closed":
		return BudgetClosed, nil
	default:
		return 0, fmt.Errorf("unknown budget status: %q", s)
	}
}

func (s BudgetStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *BudgetStatus) UnmarshalText(b []byte) error {
	v, err := ParseBudgetStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Budget is one allocation row for a program category in a fiscal year.
//
// Allocated is the only field budget-lifecycle operations mutate directly;
// Remaining and Variance are always derived. Notes is an append-only audit
// log: every mutation of Allocated appends a timestamped, attributable line.
type Budget struct {
	ID          string       `json:"budgetId"`
	ProgramID   string       `json:"programId"`
	Category    string       `json:"category"`
	Allocated   Money        `json:"allocated"`
	Committed   Money        `json:"committed"`
	Spent       Money        `json:"spent"`
	Currency    string       `json:"currency"`
	Status      BudgetStatus `json:"status"`
	Notes       string       `json:"notes,omitempty"`
	FiscalYear  int          `json:"fiscalYear"`
	PeriodStart Date         `json:"periodStart"`
	PeriodEnd   Date         `json:"periodEnd"`
}

// Remaining is the unspent part of the allocation.
func (b *Budget) Remaining() Money { return b.Allocated.Sub(b.Spent) }

// Variance is the uncommitted, unspent part of the allocation.
func (b *Budget) Variance() Money { return b.Allocated.Sub(b.Committed).Sub(b.Spent) }

// TransactionType classifies a financial transaction.
type TransactionType int

const (
	Expense TransactionType = iota
	Revenue
	Adjustment
)

func (t TransactionType) String() string {
	switch t {
	case Expense:
		return "expense"
	case Revenue:
		return "revenue"
	case Adjustment:
		return "adjustment"
	default:
		return "unknown"
	}
}

// ParseTransactionType parses a string into a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	switch s {
	case "expense":
		return Expense, nil
	case "revenue":
		return Revenue, nil
	case "adjustment":
		return Adjustment, nil
	default:
		return 0, fmt.Errorf("unknown transaction type: %q", s)
	}
}

func (t TransactionType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TransactionType) UnmarshalText(b []byte) error {
	v, err := ParseTransactionType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// FinancialTransaction is one recorded financial event, optionally linked to
// a budget and, once reconciled, to exactly one cash flow.
type FinancialTransaction struct {
	ID             string          `json:"transactionId"`
	ProgramID      string          `json:"programId"`
	Type           TransactionType `json:"type"`
	Amount         Money           `json:"amount"`
	Description    string          `json:"description,omitempty"`
	Date           Date            `json:"transactionDate"`
	BudgetID       string          `json:"budgetId,omitempty"`
	Reconciled     bool            `json:"reconciled"`
	ReconciledDate Date            `json:"reconciledDate,omitempty"`
	ReconciledBy   string          `json:"reconciledBy,omitempty"`
	Notes          string          `json:"notes,omitempty"`
}

// FlowType is the direction of a cash flow.
type FlowType int

const (
	Inflow FlowType = iota
	Outflow
)

func (t FlowType) String() string {
	switch t {
	case Inflow:
		return "inflow"
	case Outflow:
		return "outflow"
	default:
		return "unknown"
	}
}

// ParseFlowType parses a string into a FlowType.
func ParseFlowType(s string) (FlowType, error) {
	switch s {
	case "inflow":
		return Inflow, nil
	case "outflow":
		return Outflow, nil
	default:
		return 0, fmt.Errorf("unknown cash flow type: %q", s)
	}
}

func (t FlowType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *FlowType) UnmarshalText(b []byte) error {
	v, err := ParseFlowType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// FlowStatus is the lifecycle state of a cash flow.
type FlowStatus int

const (
	FlowProjected FlowStatus = iota
	FlowConfirmed
	FlowSettled
	FlowCancelled
)

func (s FlowStatus) String() string {
	switch s {
	case FlowProjected:
		return "projected"
	case FlowConfirmed:
		return "confirmed"
	case FlowSettled:
		return "settled"
	case FlowCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseFlowStatus parses a string into a FlowStatus.
func ParseFlowStatus(s string) (FlowStatus, error) {
	switch s {
	case "projected":
		return FlowProjected, nil
	case "confirmed":
		return FlowConfirmed, nil
	case "settled":
		return FlowSettled, nil
	case "cancelled":
		return FlowCancelled, nil
	default:
		return 0, fmt.Errorf("unknown cash flow status: %q", s)
	}
}

func (s FlowStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *FlowStatus) UnmarshalText(b []byte) error {
	v, err := ParseFlowStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// CashFlow is one expected or realized movement of cash for a program.
type CashFlow struct {
	ID           string     `json:"flowId"`
	ProgramID    string     `json:"programId"`
	Type         FlowType   `json:"type"`
	Amount       Money      `json:"amount"`
	ForecastDate Date       `json:"forecastDate"`
	Status       FlowStatus `json:"status"`
	Reconciled   bool       `json:"reconciled"`
	Notes        string     `json:"notes,omitempty"`
}

// appendNote appends one timestamped, attributable line to an append-only
// audit log and returns the new log. Existing content is never rewritten.
func appendNote(notes string, at time.Time, actor, msg string) string {
	line := fmt.Sprintf("%s [%s] %s", at.UTC().Format(time.RFC3339), actor, msg)
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}
