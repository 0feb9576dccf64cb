package renderer

import (
	"fmt"
	"strings"

	"github.com/pmtools/progfin"
)

// RunMarkdown renders the outcome of one auto-reconcile pass.
func RunMarkdown(r *progfin.ReconciliationRun) string {
	var b strings.Builder

	h1(&b, "Auto-Reconcile Run for %s", r.ProgramID)
	line(&b, "%s", r.Report)

	if len(r.Matched) > 0 {
		h2(&b, "Matched Pairs")
		rows := make([][]string, 0, len(r.Matched))
		for _, p := range r.Matched {
			rows = append(rows, []string{p.TransactionID, p.FlowID, p.Variance.String()})
		}
		table(&b, []string{"Transaction", "Cash Flow", "Variance"}, rows)
	}
	if len(r.UnmatchedTransactions) > 0 {
		h2(&b, "Unmatched Transactions")
		bullets(&b, r.UnmatchedTransactions)
	}
	if len(r.UnmatchedFlows) > 0 {
		h2(&b, "Unmatched Cash Flows")
		bullets(&b, r.UnmatchedFlows)
	}

	return b.String()
}

// DiscrepanciesMarkdown renders a discrepancy report.
func DiscrepanciesMarkdown(r *progfin.DiscrepancyReport) string {
	var b strings.Builder

	h1(&b, "Discrepancies for %s", r.ProgramID)
	if r.Count() == 0 {
		line(&b, "No discrepancies found.")
		return b.String()
	}
	line(&b, "%d discrepancies found.", r.Count())

	if len(r.Duplicates) > 0 {
		h2(&b, "Potential Duplicates")
		rows := make([][]string, 0, len(r.Duplicates))
		for _, d := range r.Duplicates {
			rows = append(rows, []string{d.FirstID, d.SecondID, d.Amount.String(), d.Date.String()})
		}
		table(&b, []string{"First", "Second", "Amount", "Date"}, rows)
	}
	if len(r.Orphans) > 0 {
		h2(&b, "Orphaned Transactions")
		rows := make([][]string, 0, len(r.Orphans))
		for _, o := range r.Orphans {
			ref := o.BudgetID
			if ref == "" {
				ref = "(none)"
			}
			rows = append(rows, []string{o.TransactionID, ref})
		}
		table(&b, []string{"Transaction", "Budget Reference"}, rows)
	}
	if len(r.Mismatches) > 0 {
		h2(&b, "Mismatched Amounts")
		rows := make([][]string, 0, len(r.Mismatches))
		for _, m := range r.Mismatches {
			rows = append(rows, []string{m.TransactionID, m.FlowID, m.Difference.SignedString()})
		}
		table(&b, []string{"Transaction", "Cash Flow", "Difference"}, rows)
	}

	return b.String()
}

// ReportMarkdown renders a reconciliation status report.
func ReportMarkdown(r *progfin.ReconciliationReport) string {
	var b strings.Builder

	h1(&b, "Reconciliation Report for %s", r.ProgramID)
	line(&b, "Window %s to %s. Status: **%s**.", r.From, r.To, r.Status)

	table(&b, []string{"Measure", "Value"}, [][]string{
		{"Transactions", fmt.Sprintf("%d", r.TotalTransactions)},
		{"Reconciled", fmt.Sprintf("%d", r.Reconciled)},
		{"Rate", r.Rate.String()},
		{"Discrepancies", fmt.Sprintf("%d", r.DiscrepancyCount)},
	})

	if len(r.Recommendations) > 0 {
		h2(&b, "Recommendations")
		bullets(&b, r.Recommendations)
	}

	return b.String()
}

// BudgetsMarkdown renders a budget list with remaining and variance columns.
func BudgetsMarkdown(programID string, budgets []*progfin.Budget) string {
	var b strings.Builder

	h1(&b, "Budgets for %s", programID)
	if len(budgets) == 0 {
		line(&b, "No budgets recorded.")
		return b.String()
	}

	rows := make([][]string, 0, len(budgets))
	for _, x := range budgets {
		rows = append(rows, []string{
			x.ID, x.Category, fmt.Sprintf("FY%d", x.FiscalYear), x.Status.String(),
			x.Allocated.String(), x.Spent.String(), x.Remaining().SignedString(),
		})
	}
	table(&b, []string{"ID", "Category", "Year", "Status", "Allocated", "Spent", "Remaining"}, rows)

	return b.String()
}
