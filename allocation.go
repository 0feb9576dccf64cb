package progfin

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var (
	lowUtilization = decimal.NewFromFloat(0.10)
	two            = decimal.NewFromInt(2)
)

// DefaultProgramCeiling caps the aggregate allocation of a program when the
// ledger is not configured with its own ceiling.
var DefaultProgramCeiling = M(10_000_000, "USD")

// AllocationLedger performs budget lifecycle operations over the budgets
// table. Every mutation of a budget's Allocated appends a timestamped,
// attributable audit note; notes are never rewritten.
//
// The store offers no cross-row transaction, so Reallocate is a two-step
// best-effort saga: the source is debited first, and if crediting the
// destination fails, a compensating write restores the source with a
// ROLLBACK annotation. Callers that need stronger guarantees must serialize
// per-budget access.
type AllocationLedger struct {
	Store RowStore

	// Ceiling is the program aggregate allocation ceiling; the zero Money
	// means DefaultProgramCeiling.
	Ceiling Money

	// Now is the audit clock; nil means time.Now.
	Now func() time.Time
}

func (l *AllocationLedger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *AllocationLedger) ceiling() Money {
	if l.Ceiling.IsZero() {
		return DefaultProgramCeiling
	}
	return l.Ceiling
}

// Reallocate moves amount from one budget's allocation to another's.
//
// Both budgets must be open, distinct, and the source must hold at least the
// amount in Allocated. The two writes are sequential: on a destination
// failure the source is restored to its prior allocation and the error
// surfaces as a *ConsistencyError recording whether the compensation
// succeeded.
func (l *AllocationLedger) Reallocate(ctx context.Context, fromID, toID string, amount Money, reason, approver string) (from, to *Budget, err error) {
	if !amount.IsPositive() {
		return nil, nil, validationf("reallocation amount must be positive, got %s", amount)
	}
	if fromID == toID {
		return nil, nil, validationf("cannot reallocate budget %q to itself", fromID)
	}
	if reason == "" {
		return nil, nil, validationf("reallocation requires a reason")
	}

	from, err = l.Store.Budget(ctx, fromID)
	if err != nil {
		return nil, nil, err
	}
	to, err = l.Store.Budget(ctx, toID)
	if err != nil {
		return nil, nil, err
	}
	if from.Status == BudgetClosed {
		return nil, nil, statef("source budget %q is closed", fromID)
	}
	if to.Status == BudgetClosed {
		return nil, nil, statef("destination budget %q is closed", toID)
	}
	if from.Allocated.LessThan(amount) {
		return nil, nil, validationf("source budget %q holds %s allocated, cannot debit %s", fromID, from.Allocated, amount)
	}

	now := l.now()
	priorAllocated := from.Allocated

	from.Allocated = from.Allocated.Sub(amount).Round2()
	from.Notes = appendNote(from.Notes, now, approver,
		fmt.Sprintf("reallocated %s to %s: %s", amount, toID, reason))
	if err := l.Store.UpdateBudget(ctx, from); err != nil {
		return nil, nil, fmt.Errorf("debiting source budget %q: %w", fromID, err)
	}

	to.Allocated = to.Allocated.Add(amount).Round2()
	to.Notes = appendNote(to.Notes, now, approver,
		fmt.Sprintf("received %s from %s: %s", amount, fromID, reason))
	if err := l.Store.UpdateBudget(ctx, to); err != nil {
		// Compensate: restore the source to its prior allocation. The
		// rollback is attempted and logged even though the caller sees a
		// failure either way.
		from.Allocated = priorAllocated
		from.Notes = appendNote(from.Notes, l.now(), approver,
			fmt.Sprintf("ROLLBACK: restored %s after failed credit of %s to %s", priorAllocated, amount, toID))
		rbErr := l.Store.UpdateBudget(ctx, from)
		if rbErr != nil {
			log.Printf("reallocate rollback failed from=%s to=%s amount=%s: %v", fromID, toID, amount, rbErr)
		}
		return nil, nil, &ConsistencyError{
			Msg:      fmt.Sprintf("crediting destination budget %q failed after source %q was debited", toID, fromID),
			Rollback: rbErr == nil,
			Err:      err,
		}
	}

	return from, to, nil
}

// AllocateToCategory adds amount to the program's budget for a category and
// fiscal year, creating the budget if none is open yet. The operation is
// idempotent by identity: repeated calls on the same (program, category,
// fiscalYear) accumulate on one row instead of growing duplicates. New rows
// span the US federal fiscal year, October 1 to September 30.
func (l *AllocationLedger) AllocateToCategory(ctx context.Context, programID, category string, amount Money, fiscalYear int, actor string) (*Budget, error) {
	if !amount.IsPositive() {
		return nil, validationf("allocation amount must be positive, got %s", amount)
	}
	if programID == "" || category == "" {
		return nil, validationf("program id and category must not be empty")
	}

	existing, err := l.Store.Budgets(ctx, func(b *Budget) bool {
		return b.ProgramID == programID && b.Category == category &&
			b.FiscalYear == fiscalYear && b.Status == BudgetActive
	})
	if err != nil {
		return nil, err
	}

	now := l.now()
	if len(existing) > 0 {
		b := existing[0]
		b.Allocated = b.Allocated.Add(amount).Round2()
		b.Notes = appendNote(b.Notes, now, actor, fmt.Sprintf("allocated additional %s", amount))
		if err := l.Store.UpdateBudget(ctx, b); err != nil {
			return nil, err
		}
		return b, nil
	}

	id, err := l.Store.NextID(ctx, TableBudgets)
	if err != nil {
		return nil, err
	}
	b := &Budget{
		ID:          id,
		ProgramID:   programID,
		Category:    category,
		Allocated:   amount.Round2(),
		Committed:   M(0, amount.Currency()),
		Spent:       M(0, amount.Currency()),
		Currency:    amount.Currency(),
		Status:      BudgetActive,
		Notes:       appendNote("", now, actor, fmt.Sprintf("created with %s allocated", amount)),
		FiscalYear:  fiscalYear,
		PeriodStart: FiscalYearStart(fiscalYear),
		PeriodEnd:   FiscalYearEnd(fiscalYear),
	}
	if err := l.Store.AppendBudget(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// DistributeRemaining spreads a source budget's remaining funds over the
// other open budgets of the same program and fiscal year, proportionally to
// each target's share of the total eligible variance. Each share is rounded
// to 2 decimals independently, so the delivered sum can drift from the
// source total by up to ±0.01 per target; non-positive shares are skipped.
// The source ends with zero remaining. Returns the source followed by the
// updated targets.
func (l *AllocationLedger) DistributeRemaining(ctx context.Context, sourceID, programID string, fiscalYear int, actor string) ([]*Budget, error) {
	source, err := l.Store.Budget(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source.Status == BudgetClosed {
		return nil, statef("source budget %q is closed", sourceID)
	}
	remaining := source.Remaining()
	if !remaining.IsPositive() {
		return nil, validationf("source budget %q has no remaining funds to distribute", sourceID)
	}

	targets, err := l.Store.Budgets(ctx, func(b *Budget) bool {
		return b.ProgramID == programID && b.FiscalYear == fiscalYear &&
			b.ID != sourceID && b.Status == BudgetActive &&
			b.Variance().IsPositive() && b.Allocated.IsPositive()
	})
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, validationf("no eligible budgets to receive distribution from %q", sourceID)
	}

	totalVariance := M(0, source.Currency)
	for _, t := range targets {
		totalVariance = totalVariance.Add(t.Variance())
	}

	now := l.now()
	out := []*Budget{source}
	for _, t := range targets {
		share := remaining.MulDec(t.Variance().Dec()).DivDec(totalVariance.Dec()).Round2()
		if !share.IsPositive() {
			continue
		}
		t.Allocated = t.Allocated.Add(share).Round2()
		t.Notes = appendNote(t.Notes, now, actor,
			fmt.Sprintf("received %s distributed from %s", share, sourceID))
		if err := l.Store.UpdateBudget(ctx, t); err != nil {
			return nil, fmt.Errorf("crediting budget %q during distribution: %w", t.ID, err)
		}
		out = append(out, t)
	}

	// Zero the source's remaining: the allocation shrinks to what was spent.
	source.Allocated = source.Spent
	source.Notes = appendNote(source.Notes, now, actor,
		fmt.Sprintf("distributed remaining %s across %d budgets", remaining, len(out)-1))
	if err := l.Store.UpdateBudget(ctx, source); err != nil {
		return nil, fmt.Errorf("zeroing source budget %q after distribution: %w", sourceID, err)
	}

	sort.SliceStable(out[1:], func(i, j int) bool { return out[1+i].ID < out[1+j].ID })
	return out, nil
}

// AllocationCheck is the structured result of ValidateAllocation. Problems
// block the allocation; advisories flag suspicious but permitted requests.
type AllocationCheck struct {
	OK         bool     `json:"ok"`
	Problems   []string `json:"problems,omitempty"`
	Advisories []string `json:"advisories,omitempty"`
}

// ValidateAllocation runs the composite rule check for adding amount to a
// budget: positive amount, open status, unexpired period, and the program
// aggregate staying under the ceiling. A budget with under 10% utilization
// receiving more than double its current allocation additionally draws an
// advisory.
func (l *AllocationLedger) ValidateAllocation(ctx context.Context, budgetID string, amount Money) (*AllocationCheck, error) {
	b, err := l.Store.Budget(ctx, budgetID)
	if err != nil {
		return nil, err
	}

	check := &AllocationCheck{}
	if !amount.IsPositive() {
		check.Problems = append(check.Problems, fmt.Sprintf("amount must be positive, got %s", amount))
	}
	if b.Status == BudgetClosed {
		check.Problems = append(check.Problems, fmt.Sprintf("budget %q is closed", budgetID))
	}
	if !b.PeriodEnd.IsZero() && b.PeriodEnd.Before(DateOf(l.now())) {
		check.Problems = append(check.Problems, fmt.Sprintf("budget period ended %s", b.PeriodEnd))
	}

	siblings, err := l.Store.Budgets(ctx, func(x *Budget) bool { return x.ProgramID == b.ProgramID })
	if err != nil {
		return nil, err
	}
	total := amount
	for _, s := range siblings {
		total = total.Add(s.Allocated)
	}
	if total.GreaterThan(l.ceiling()) {
		check.Problems = append(check.Problems,
			fmt.Sprintf("program %q aggregate allocation %s would exceed ceiling %s", b.ProgramID, total, l.ceiling()))
	}

	// Low utilization plus an oversized top-up is usually a mistyped amount
	// or a budget that should be redistributed instead.
	if b.Allocated.IsPositive() {
		utilization := b.Spent.Dec().Div(b.Allocated.Dec())
		newTotal := b.Allocated.Add(amount)
		if utilization.LessThan(lowUtilization) && newTotal.GreaterThan(b.Allocated.MulDec(two)) {
			check.Advisories = append(check.Advisories,
				fmt.Sprintf("budget %q is under 10%% utilized; adding %s more than doubles it", budgetID, amount))
		}
	}

	check.OK = len(check.Problems) == 0
	return check, nil
}

// Freeze closes a budget so no further allocation mutations apply to it.
// Freezing an already-closed budget is a no-op, not an error, and writes
// nothing.
func (l *AllocationLedger) Freeze(ctx context.Context, budgetID, actor, reason string) (*Budget, error) {
	return l.setStatus(ctx, budgetID, BudgetClosed, actor, reason)
}

// Unfreeze reopens a closed budget. Unfreezing an open budget is a no-op.
func (l *AllocationLedger) Unfreeze(ctx context.Context, budgetID, actor, reason string) (*Budget, error) {
	return l.setStatus(ctx, budgetID, BudgetActive, actor, reason)
}

func (l *AllocationLedger) setStatus(ctx context.Context, budgetID string, status BudgetStatus, actor, reason string) (*Budget, error) {
	b, err := l.Store.Budget(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if b.Status == status {
		return b, nil
	}
	verb := "frozen"
	if status == BudgetActive {
		verb = "unfrozen"
	}
	msg := verb
	if reason != "" {
		msg = verb + ": " + reason
	}
	b.Status = status
	b.Notes = appendNote(b.Notes, l.now(), actor, msg)
	if err := l.Store.UpdateBudget(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}
