package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/pmtools/progfin"
	"github.com/pmtools/progfin/renderer"
)

// matchCmd holds the flags for the 'match' subcommand.
type matchCmd struct {
	transaction string
	flow        string
	actor       string
}

func (*matchCmd) Name() string     { return "match" }
func (*matchCmd) Synopsis() string { return "manually reconcile a transaction against a cash flow" }
func (*matchCmd) Usage() string {
	return `pfa match -t <transaction> -f <cash-flow>

  Reconciles the pair when their amounts agree within a dollar. A non-match
  reports the variance without failing.
`
}

func (c *matchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.transaction, "t", "", "Transaction id.")
	f.StringVar(&c.flow, "f", "", "Cash flow id.")
	f.StringVar(&c.actor, "by", "cli", "Actor recorded on both rows.")
}

func (c *matchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, _, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	engine := &progfin.ReconciliationEngine{Store: store}
	result, err := engine.Match(ctx, c.transaction, c.flow, c.actor)
	if err != nil {
		return fail(err)
	}
	if !result.Matched {
		fmt.Printf("No match: variance %s exceeds tolerance\n", result.Variance)
		return subcommands.ExitSuccess
	}
	fmt.Printf("Matched %s against %s, variance %s\n", c.transaction, c.flow, result.Variance)
	return subcommands.ExitSuccess
}

// reconcileCmd holds the flags for the 'reconcile' subcommand.
type reconcileCmd struct {
	program string
	actor   string
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "auto-reconcile a program's transactions" }
func (*reconcileCmd) Usage() string {
	return `pfa reconcile -p <program>

  Greedily pairs the program's unreconciled transactions with compatible
  cash flows within 3 days and $10.
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.program, "p", "", "Program to reconcile.")
	f.StringVar(&c.actor, "by", "auto", "Actor recorded on reconciled rows.")
}

func (c *reconcileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, _, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	engine := &progfin.ReconciliationEngine{Store: store}
	run, err := engine.AutoReconcile(ctx, c.program, c.actor)
	if err != nil {
		return fail(err)
	}
	for _, e := range run.Errors {
		fmt.Fprintf(os.Stderr, "warning: %s: %v\n", e.ID, e.Err)
	}

	printMarkdown(renderer.RunMarkdown(run))
	return subcommands.ExitSuccess
}

// discrepanciesCmd holds the flags for the 'discrepancies' subcommand.
type discrepanciesCmd struct {
	program string
}

func (*discrepanciesCmd) Name() string     { return "discrepancies" }
func (*discrepanciesCmd) Synopsis() string { return "scan a program's ledger for discrepancies" }
func (*discrepanciesCmd) Usage() string {
	return `pfa discrepancies -p <program>

  Runs the duplicate, orphan, and mismatched-amount detectors over the
  program's transactions.
`
}

func (c *discrepanciesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.program, "p", "", "Program to scan.")
}

func (c *discrepanciesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, _, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	engine := &progfin.ReconciliationEngine{Store: store}
	report, err := engine.FindDiscrepancies(ctx, c.program)
	if err != nil {
		return fail(err)
	}

	printMarkdown(renderer.DiscrepanciesMarkdown(report))
	return subcommands.ExitSuccess
}

// reportCmd holds the flags for the 'report' subcommand.
type reportCmd struct {
	program string
	from    string
	to      string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "generate a reconciliation status report" }
func (*reportCmd) Usage() string {
	return `pfa report -p <program> -from <date> -to <date>

  Computes the reconciliation rate over the window and classifies the
  program as clean, review_needed, or action_required.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.program, "p", "", "Program to report on.")
	f.StringVar(&c.from, "from", "-3m", "Window start.")
	f.StringVar(&c.to, "to", progfin.Today().String(), "Window end.")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	from, err := progfin.ParseDate(c.from)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing from date: %v\n", err)
		return subcommands.ExitUsageError
	}
	to, err := progfin.ParseDate(c.to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing to date: %v\n", err)
		return subcommands.ExitUsageError
	}

	store, _, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	engine := &progfin.ReconciliationEngine{Store: store}
	report, err := engine.GenerateReport(ctx, c.program, from, to)
	if err != nil {
		return fail(err)
	}

	printMarkdown(renderer.ReportMarkdown(report))
	return subcommands.ExitSuccess
}
