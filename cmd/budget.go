package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/pmtools/progfin"
	"github.com/pmtools/progfin/renderer"
)

func ledger(store progfin.RowStore, cfg *Config) *progfin.AllocationLedger {
	return &progfin.AllocationLedger{Store: store, Ceiling: cfg.Ceiling()}
}

// allocateCmd holds the flags for the 'allocate' subcommand.
type allocateCmd struct {
	program  string
	category string
	amount   float64
	year     int
	actor    string
}

func (*allocateCmd) Name() string     { return "allocate" }
func (*allocateCmd) Synopsis() string { return "allocate funds to a program budget category" }
func (*allocateCmd) Usage() string {
	return `pfa allocate -p <program> -c <category> -a <amount> -y <fiscal-year>

  Adds funds to the program's budget for the category and fiscal year,
  creating the budget if none is open yet. Repeated calls accumulate on one
  row.
`
}

func (c *allocateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.program, "p", "", "Program to allocate to.")
	f.StringVar(&c.category, "c", "", "Budget category.")
	f.Float64Var(&c.amount, "a", 0, "Amount to allocate.")
	f.IntVar(&c.year, "y", progfin.Today().FiscalYear(), "Fiscal year.")
	f.StringVar(&c.actor, "by", "cli", "Actor recorded on the audit note.")
}

func (c *allocateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, cfg, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	amount := progfin.M(c.amount, cfg.Budget.Currency)
	l := ledger(store, cfg)

	check, err := func() (*progfin.AllocationCheck, error) {
		existing, err := store.Budgets(ctx, func(b *progfin.Budget) bool {
			return b.ProgramID == c.program && b.Category == c.category &&
				b.FiscalYear == c.year && b.Status == progfin.BudgetActive
		})
		if err != nil || len(existing) == 0 {
			return nil, err
		}
		return l.ValidateAllocation(ctx, existing[0].ID, amount)
	}()
	if err != nil {
		return fail(err)
	}
	if check != nil && !check.OK {
		for _, p := range check.Problems {
			fmt.Printf("blocked: %s\n", p)
		}
		return subcommands.ExitFailure
	}
	if check != nil {
		for _, a := range check.Advisories {
			fmt.Printf("advisory: %s\n", a)
		}
	}

	b, err := l.AllocateToCategory(ctx, c.program, c.category, amount, c.year, c.actor)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("Budget %s now holds %s allocated for %s FY%d\n", b.ID, b.Allocated, b.Category, b.FiscalYear)
	return subcommands.ExitSuccess
}

// reallocateCmd holds the flags for the 'reallocate' subcommand.
type reallocateCmd struct {
	from     string
	to       string
	amount   float64
	reason   string
	approver string
}

func (*reallocateCmd) Name() string     { return "reallocate" }
func (*reallocateCmd) Synopsis() string { return "move allocation from one budget to another" }
func (*reallocateCmd) Usage() string {
	return `pfa reallocate -from <budget> -to <budget> -a <amount> -reason <text>

  Debits the source budget and credits the destination. Both mutations are
  recorded as audit notes; a failed credit is compensated by restoring the
  source.
`
}

func (c *reallocateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "Source budget id.")
	f.StringVar(&c.to, "to", "", "Destination budget id.")
	f.Float64Var(&c.amount, "a", 0, "Amount to move.")
	f.StringVar(&c.reason, "reason", "", "Reason recorded on both budgets.")
	f.StringVar(&c.approver, "by", "cli", "Approver recorded on the audit notes.")
}

func (c *reallocateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, cfg, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	from, to, err := ledger(store, cfg).Reallocate(ctx, c.from, c.to,
		progfin.M(c.amount, cfg.Budget.Currency), c.reason, c.approver)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("Moved %s: %s now %s, %s now %s\n",
		progfin.M(c.amount, cfg.Budget.Currency), from.ID, from.Allocated, to.ID, to.Allocated)
	return subcommands.ExitSuccess
}

// distributeCmd holds the flags for the 'distribute' subcommand.
type distributeCmd struct {
	source  string
	program string
	year    int
	actor   string
}

func (*distributeCmd) Name() string { return "distribute" }
func (*distributeCmd) Synopsis() string {
	return "distribute a budget's remaining funds over its siblings"
}
func (*distributeCmd) Usage() string {
	return `pfa distribute -from <budget> -p <program> -y <fiscal-year>

  Spreads the source budget's remaining funds over the program's other open
  budgets of the fiscal year, proportionally to their variance. The source
  ends with zero remaining.
`
}

func (c *distributeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.source, "from", "", "Source budget id.")
	f.StringVar(&c.program, "p", "", "Program whose budgets receive the funds.")
	f.IntVar(&c.year, "y", progfin.Today().FiscalYear(), "Fiscal year.")
	f.StringVar(&c.actor, "by", "cli", "Actor recorded on the audit notes.")
}

func (c *distributeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, cfg, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	updated, err := ledger(store, cfg).DistributeRemaining(ctx, c.source, c.program, c.year, c.actor)
	if err != nil {
		return fail(err)
	}

	printMarkdown(renderer.BudgetsMarkdown(c.program, updated))
	return subcommands.ExitSuccess
}

// freezeCmd holds the flags for the 'freeze' subcommand.
type freezeCmd struct {
	budget string
	reason string
	actor  string
}

func (*freezeCmd) Name() string     { return "freeze" }
func (*freezeCmd) Synopsis() string { return "close a budget against further allocation changes" }
func (*freezeCmd) Usage() string {
	return `pfa freeze -b <budget> [-reason <text>]

  Closes the budget. Freezing an already-closed budget is a no-op.
`
}

func (c *freezeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.budget, "b", "", "Budget to freeze.")
	f.StringVar(&c.reason, "reason", "", "Reason recorded on the audit note.")
	f.StringVar(&c.actor, "by", "cli", "Actor recorded on the audit note.")
}

func (c *freezeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, cfg, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	b, err := ledger(store, cfg).Freeze(ctx, c.budget, c.actor, c.reason)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Budget %s is %s\n", b.ID, b.Status)
	return subcommands.ExitSuccess
}

// unfreezeCmd holds the flags for the 'unfreeze' subcommand.
type unfreezeCmd struct {
	budget string
	reason string
	actor  string
}

func (*unfreezeCmd) Name() string     { return "unfreeze" }
func (*unfreezeCmd) Synopsis() string { return "reopen a closed budget" }
func (*unfreezeCmd) Usage() string {
	return `pfa unfreeze -b <budget> [-reason <text>]

  Reopens the budget. Unfreezing an open budget is a no-op.
`
}

func (c *unfreezeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.budget, "b", "", "Budget to unfreeze.")
	f.StringVar(&c.reason, "reason", "", "Reason recorded on the audit note.")
	f.StringVar(&c.actor, "by", "cli", "Actor recorded on the audit note.")
}

func (c *unfreezeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, cfg, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	b, err := ledger(store, cfg).Unfreeze(ctx, c.budget, c.actor, c.reason)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Budget %s is %s\n", b.ID, b.Status)
	return subcommands.ExitSuccess
}

// budgetsCmd holds the flags for the 'budgets' subcommand.
type budgetsCmd struct {
	program string
	year    int
}

func (*budgetsCmd) Name() string     { return "budgets" }
func (*budgetsCmd) Synopsis() string { return "list a program's budgets" }
func (*budgetsCmd) Usage() string {
	return `pfa budgets -p <program> [-y <fiscal-year>]

  Lists the program's budgets with remaining funds. Year 0 lists all years.
`
}

func (c *budgetsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.program, "p", "", "Program to list.")
	f.IntVar(&c.year, "y", 0, "Fiscal year filter; 0 means all.")
}

func (c *budgetsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, _, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	budgets, err := store.Budgets(ctx, func(b *progfin.Budget) bool {
		return b.ProgramID == c.program && (c.year == 0 || b.FiscalYear == c.year)
	})
	if err != nil {
		return fail(err)
	}

	printMarkdown(renderer.BudgetsMarkdown(c.program, budgets))
	return subcommands.ExitSuccess
}
