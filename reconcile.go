package progfin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Matching tolerances. Manual matching accepts anything under a dollar;
// auto-reconciliation is stricter on identity (type and date) but looser on
// amount, since fees and rounding legitimately move a few dollars.
var (
	matchTolerance    = decimal.NewFromInt(1)
	autoAmountTol     = decimal.NewFromInt(10)
	duplicateTol      = decimal.NewFromFloat(0.01)
	budgetVarianceTol = decimal.NewFromInt(1)
)

const autoDateTolDays = 3

// ReconciliationEngine cross-checks transactions against cash flows and
// budgets. All scans are sequential; batch operations collect per-item
// failures instead of aborting.
type ReconciliationEngine struct {
	Store RowStore

	// Now is the reconciliation clock; nil means time.Now.
	Now func() time.Time
}

func (e *ReconciliationEngine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// MatchResult reports the outcome of matching one transaction against one
// cash flow. Variance is always populated, matched or not.
type MatchResult struct {
	Matched  bool  `json:"matched"`
	Variance Money `json:"variance"`
}

// Match reconciles a transaction against a cash flow when their amounts
// agree within a dollar. On a match both rows flip reconciled and each
// cross-references the other in its notes. A non-match is not an error: the
// result simply carries the variance.
func (e *ReconciliationEngine) Match(ctx context.Context, transactionID, flowID, actor string) (MatchResult, error) {
	t, err := e.Store.Transaction(ctx, transactionID)
	if err != nil {
		return MatchResult{}, err
	}
	f, err := e.Store.CashFlow(ctx, flowID)
	if err != nil {
		return MatchResult{}, err
	}
	if t.Reconciled {
		return MatchResult{}, statef("transaction %q is already reconciled", transactionID)
	}
	if f.Reconciled {
		return MatchResult{}, statef("cash flow %q is already reconciled", flowID)
	}

	variance := t.Amount.Sub(f.Amount).Abs()
	if !variance.Dec().LessThan(matchTolerance) {
		return MatchResult{Matched: false, Variance: variance}, nil
	}

	now := e.now()
	t.Reconciled = true
	t.ReconciledDate = DateOf(now)
	t.ReconciledBy = actor
	t.Notes = appendNote(t.Notes, now, actor, fmt.Sprintf("reconciled against cash flow %s", f.ID))
	if err := e.Store.UpdateTransaction(ctx, t); err != nil {
		return MatchResult{}, err
	}

	f.Reconciled = true
	f.Notes = appendNote(f.Notes, now, actor, fmt.Sprintf("reconciled against transaction %s", t.ID))
	if err := e.Store.UpdateCashFlow(ctx, f); err != nil {
		return MatchResult{}, err
	}

	return MatchResult{Matched: true, Variance: variance}, nil
}

// compatible reports whether a transaction type and a flow direction can
// represent the same economic fact. Adjustments never auto-match.
func compatible(t TransactionType, f FlowType) bool {
	switch t {
	case Expense:
		return f == Outflow
	case Revenue:
		return f == Inflow
	default:
		return false
	}
}

// MatchedPair records one auto-reconciled transaction/cash-flow pair.
type MatchedPair struct {
	TransactionID string `json:"transactionId"`
	FlowID        string `json:"flowId"`
	Variance      Money  `json:"variance"`
}

// ReconciliationRun is the result of one AutoReconcile pass.
type ReconciliationRun struct {
	ID                    string        `json:"runId"`
	ProgramID             string        `json:"programId"`
	RunAt                 time.Time     `json:"runAt"`
	Matched               []MatchedPair `json:"matched,omitempty"`
	UnmatchedTransactions []string      `json:"unmatchedTransactions,omitempty"`
	UnmatchedFlows        []string      `json:"unmatchedFlows,omitempty"`
	Errors                []ItemError   `json:"-"`
	Report                string        `json:"report"`
}

// AutoReconcile greedily pairs a program's unreconciled transactions with
// its unreconciled, non-cancelled cash flows. A pair is eligible when the
// types are compatible, the dates are within 3 days, and the amounts within
// $10; the first eligible cash flow wins. The scan is greedy by design, not
// globally optimal, and continues past per-item store failures, collecting
// them on the run.
func (e *ReconciliationEngine) AutoReconcile(ctx context.Context, programID, actor string) (*ReconciliationRun, error) {
	txs, err := e.Store.Transactions(ctx, func(t *FinancialTransaction) bool {
		return t.ProgramID == programID && !t.Reconciled
	})
	if err != nil {
		return nil, err
	}
	flows, err := e.Store.CashFlows(ctx, func(f *CashFlow) bool {
		return f.ProgramID == programID && !f.Reconciled && f.Status != FlowCancelled
	})
	if err != nil {
		return nil, err
	}

	run := &ReconciliationRun{
		ID:        uuid.NewString(),
		ProgramID: programID,
		RunAt:     e.now(),
	}

	taken := make(map[string]bool)
	now := e.now()
	for _, t := range txs {
		var matched *CashFlow
		for _, f := range flows {
			if taken[f.ID] || !compatible(t.Type, f.Type) {
				continue
			}
			days := t.Date.DaysUntil(f.ForecastDate)
			if days < 0 {
				days = -days
			}
			if days > autoDateTolDays {
				continue
			}
			if t.Amount.Sub(f.Amount).Abs().Dec().GreaterThan(autoAmountTol) {
				continue
			}
			matched = f
			break
		}
		if matched == nil {
			run.UnmatchedTransactions = append(run.UnmatchedTransactions, t.ID)
			continue
		}

		t.Reconciled = true
		t.ReconciledDate = DateOf(now)
		t.ReconciledBy = actor
		t.Notes = appendNote(t.Notes, now, actor, fmt.Sprintf("reconciled against cash flow %s", matched.ID))
		if err := e.Store.UpdateTransaction(ctx, t); err != nil {
			run.Errors = append(run.Errors, ItemError{ID: t.ID, Err: err})
			run.UnmatchedTransactions = append(run.UnmatchedTransactions, t.ID)
			continue
		}
		matched.Reconciled = true
		matched.Notes = appendNote(matched.Notes, now, actor, fmt.Sprintf("reconciled against transaction %s", t.ID))
		if err := e.Store.UpdateCashFlow(ctx, matched); err != nil {
			run.Errors = append(run.Errors, ItemError{ID: matched.ID, Err: err})
		}
		taken[matched.ID] = true
		run.Matched = append(run.Matched, MatchedPair{
			TransactionID: t.ID,
			FlowID:        matched.ID,
			Variance:      t.Amount.Sub(matched.Amount).Abs().Round2(),
		})
	}

	for _, f := range flows {
		if !taken[f.ID] {
			run.UnmatchedFlows = append(run.UnmatchedFlows, f.ID)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "auto-reconcile run %s for program %s: %d matched, %d transactions and %d cash flows unmatched",
		run.ID, programID, len(run.Matched), len(run.UnmatchedTransactions), len(run.UnmatchedFlows))
	if len(run.Errors) > 0 {
		fmt.Fprintf(&b, ", %d items failed", len(run.Errors))
	}
	run.Report = b.String()

	return run, nil
}

// BudgetReconciliation cross-foots a budget's recorded spend against the
// live sum of its linked transactions.
type BudgetReconciliation struct {
	BudgetID         string `json:"budgetId"`
	RecordedSpent    Money  `json:"recordedSpent"`
	ComputedSpent    Money  `json:"computedSpent"`
	Variance         Money  `json:"variance"` // recorded minus computed
	VarianceExceeded bool   `json:"varianceExceeded"`
	OverAllocated    bool   `json:"overAllocated"`
}

// ReconcileWithBudget recomputes a budget's spend from its linked
// transactions (expenses and adjustments add, revenues subtract) and flags
// a variance beyond a dollar or a spend exceeding the allocation.
func (e *ReconciliationEngine) ReconcileWithBudget(ctx context.Context, budgetID string) (*BudgetReconciliation, error) {
	b, err := e.Store.Budget(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	txs, err := e.Store.Transactions(ctx, func(t *FinancialTransaction) bool {
		return t.BudgetID == budgetID
	})
	if err != nil {
		return nil, err
	}

	computed := M(0, b.Currency)
	for _, t := range txs {
		switch t.Type {
		case Revenue:
			computed = computed.Sub(t.Amount)
		default:
			computed = computed.Add(t.Amount)
		}
	}

	variance := b.Spent.Sub(computed)
	return &BudgetReconciliation{
		BudgetID:         budgetID,
		RecordedSpent:    b.Spent,
		ComputedSpent:    computed.Round2(),
		Variance:         variance.Round2(),
		VarianceExceeded: variance.Abs().Dec().GreaterThan(budgetVarianceTol),
		OverAllocated:    b.Spent.GreaterThan(b.Allocated),
	}, nil
}

// DuplicateTransactions is a pair of transactions that look like the same
// economic fact recorded twice.
type DuplicateTransactions struct {
	FirstID  string `json:"firstId"`
	SecondID string `json:"secondId"`
	Amount   Money  `json:"amount"`
	Date     Date   `json:"date"`
}

// OrphanedTransaction is a transaction with a missing or dangling budget
// reference.
type OrphanedTransaction struct {
	TransactionID string `json:"transactionId"`
	BudgetID      string `json:"budgetId,omitempty"` // empty when no reference at all
}

// MismatchedAmount is a reconciled transaction whose linked cash flow
// carries a materially different amount.
type MismatchedAmount struct {
	TransactionID string `json:"transactionId"`
	FlowID        string `json:"flowId"`
	Difference    Money  `json:"difference"`
}

// DiscrepancyReport is the combined output of the three discrepancy
// detectors.
type DiscrepancyReport struct {
	ProgramID  string                  `json:"programId"`
	Duplicates []DuplicateTransactions `json:"duplicates,omitempty"`
	Orphans    []OrphanedTransaction   `json:"orphans,omitempty"`
	Mismatches []MismatchedAmount      `json:"mismatches,omitempty"`
}

// Count returns the total number of detected discrepancies.
func (r *DiscrepancyReport) Count() int {
	return len(r.Duplicates) + len(r.Orphans) + len(r.Mismatches)
}

// FindDiscrepancies runs three independent detectors over a program's
// ledger: duplicate transactions (same date and description, amounts within
// a cent, found by pairwise scan), orphaned transactions (missing or
// dangling budget reference), and mismatched amounts (a reconciled
// transaction differing by more than a dollar from the cash flow whose
// notes reference it).
//
// The pairwise scan is O(n²); run it per program, and not concurrently with
// itself on the same program.
func (e *ReconciliationEngine) FindDiscrepancies(ctx context.Context, programID string) (*DiscrepancyReport, error) {
	report := &DiscrepancyReport{ProgramID: programID}

	txs, err := e.Store.Transactions(ctx, func(t *FinancialTransaction) bool {
		return t.ProgramID == programID
	})
	if err != nil {
		return nil, err
	}

	for i := 0; i < len(txs); i++ {
		for j := i + 1; j < len(txs); j++ {
			a, b := txs[i], txs[j]
			if a.Date != b.Date || a.Description != b.Description {
				continue
			}
			if a.Amount.Sub(b.Amount).Abs().Dec().GreaterThan(duplicateTol) {
				continue
			}
			report.Duplicates = append(report.Duplicates, DuplicateTransactions{
				FirstID:  a.ID,
				SecondID: b.ID,
				Amount:   a.Amount,
				Date:     a.Date,
			})
		}
	}

	for _, t := range txs {
		if t.BudgetID == "" {
			report.Orphans = append(report.Orphans, OrphanedTransaction{TransactionID: t.ID})
			continue
		}
		if _, err := e.Store.Budget(ctx, t.BudgetID); err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) {
				report.Orphans = append(report.Orphans, OrphanedTransaction{TransactionID: t.ID, BudgetID: t.BudgetID})
				continue
			}
			return nil, err
		}
	}

	// The transaction/cash-flow link lives only in the cash flow's notes, a
	// deliberately loose coupling inherited from the row layout.
	flows, err := e.Store.CashFlows(ctx, func(f *CashFlow) bool {
		return f.ProgramID == programID && f.Reconciled
	})
	if err != nil {
		return nil, err
	}
	for _, t := range txs {
		if !t.Reconciled {
			continue
		}
		for _, f := range flows {
			if !strings.Contains(f.Notes, t.ID) {
				continue
			}
			diff := t.Amount.Sub(f.Amount)
			if diff.Abs().Dec().GreaterThan(matchTolerance) {
				report.Mismatches = append(report.Mismatches, MismatchedAmount{
					TransactionID: t.ID,
					FlowID:        f.ID,
					Difference:    diff.Round2(),
				})
			}
			break
		}
	}

	return report, nil
}

// ReportStatus is the three-tier classification of a reconciliation report.
type ReportStatus int

const (
	ReportClean          ReportStatus = iota // rate >= 95% and no discrepancies
	ReportReviewNeeded                       // rate >= 80% and at most 5 discrepancies
	ReportActionRequired                     // otherwise
)

func (s ReportStatus) String() string {
	switch s {
	case ReportClean:
		return "clean"
	case ReportReviewNeeded:
		return "review_needed"
	case ReportActionRequired:
		return "action_required"
	default:
		return "unknown"
	}
}

func (s ReportStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ReconciliationReport summarizes a program's reconciliation posture over a
// date window.
type ReconciliationReport struct {
	ID                string       `json:"reportId"`
	ProgramID         string       `json:"programId"`
	From              Date         `json:"from"`
	To                Date         `json:"to"`
	TotalTransactions int          `json:"totalTransactions"`
	Reconciled        int          `json:"reconciled"`
	Rate              Percent      `json:"rate"`
	DiscrepancyCount  int          `json:"discrepancyCount"`
	Status            ReportStatus `json:"status"`
	Recommendations   []string     `json:"recommendations,omitempty"`
}

// GenerateReport computes the reconciliation rate over [from, to], counts
// discrepancies, and classifies the program: clean (>=95% reconciled, no
// discrepancies), review_needed (>=80%, at most 5), or action_required.
func (e *ReconciliationEngine) GenerateReport(ctx context.Context, programID string, from, to Date) (*ReconciliationReport, error) {
	txs, err := e.Store.Transactions(ctx, func(t *FinancialTransaction) bool {
		return t.ProgramID == programID && !t.Date.Before(from) && !t.Date.After(to)
	})
	if err != nil {
		return nil, err
	}
	disc, err := e.FindDiscrepancies(ctx, programID)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		ID:               uuid.NewString(),
		ProgramID:        programID,
		From:             from,
		To:               to,
		DiscrepancyCount: disc.Count(),
	}
	for _, t := range txs {
		report.TotalTransactions++
		if t.Reconciled {
			report.Reconciled++
		}
	}

	rate := 100.0
	if report.TotalTransactions > 0 {
		rate = 100 * float64(report.Reconciled) / float64(report.TotalTransactions)
	}
	report.Rate = Percent(rate)

	switch {
	case rate >= 95 && report.DiscrepancyCount == 0:
		report.Status = ReportClean
		report.Recommendations = append(report.Recommendations,
			"reconciliation is current; no action needed")
	case rate >= 80 && report.DiscrepancyCount <= 5:
		report.Status = ReportReviewNeeded
		if report.Reconciled < report.TotalTransactions {
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("review %d unreconciled transactions", report.TotalTransactions-report.Reconciled))
		}
		if report.DiscrepancyCount > 0 {
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("resolve %d open discrepancies", report.DiscrepancyCount))
		}
	default:
		report.Status = ReportActionRequired
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("reconciliation rate %.1f%% is below target; run auto-reconcile and review the remainder", rate),
			fmt.Sprintf("investigate %d open discrepancies before closing the period", report.DiscrepancyCount))
	}

	return report, nil
}
