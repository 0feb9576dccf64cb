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

// snapshotCmd holds the flags for the 'snapshot' subcommand.
type snapshotCmd struct {
	program string
	date    string
	actor   string
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "capture an immutable EVM snapshot of a program" }
func (*snapshotCmd) Usage() string {
	return `pfa snapshot -p <program> [-d <date>] [-by <actor>]

  Aggregates the program's base measures from the configured feed, derives
  the full EVM metric set and health assessment, and appends a new snapshot.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.program, "p", "", "Program to snapshot.")
	f.StringVar(&c.date, "d", progfin.Today().String(), "Snapshot date. See the user manual for supported date formats.")
	f.StringVar(&c.actor, "by", "cli", "Actor recorded on the snapshot.")
}

func (c *snapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := progfin.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	store, cfg, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	snap, err := snapshots(store, cfg).Create(ctx, c.program, on, c.actor)
	if err != nil {
		return fail(err)
	}

	printMarkdown(renderer.SnapshotMarkdown(snap))
	return subcommands.ExitSuccess
}

// historyCmd holds the flags for the 'history' subcommand.
type historyCmd struct {
	program string
	months  int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display a program's snapshot history" }
func (*historyCmd) Usage() string {
	return `pfa history -p <program> [-m <months>]

  Lists the program's snapshots of the last months, oldest first.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.program, "p", "", "Program to report on.")
	f.IntVar(&c.months, "m", 12, "History window in months.")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, cfg, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	snaps, err := snapshots(store, cfg).History(ctx, c.program, c.months)
	if err != nil {
		return fail(err)
	}

	printMarkdown(renderer.HistoryMarkdown(c.program, snaps))
	return subcommands.ExitSuccess
}

// compareCmd holds the flags for the 'compare' subcommand.
type compareCmd struct {
	baseline string
	current  string
}

func (*compareCmd) Name() string     { return "compare" }
func (*compareCmd) Synopsis() string { return "compare two snapshots period over period" }
func (*compareCmd) Usage() string {
	return `pfa compare -b <baseline-snapshot> -c <current-snapshot>

  Shows the CPI, SPI, and health deltas between two snapshots.
`
}

func (c *compareCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.baseline, "b", "", "Baseline snapshot id.")
	f.StringVar(&c.current, "c", "", "Current snapshot id.")
}

func (c *compareCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, cfg, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	cmp, err := snapshots(store, cfg).Compare(ctx, c.baseline, c.current)
	if err != nil {
		return fail(err)
	}

	printMarkdown(renderer.ComparisonMarkdown(cmp))
	return subcommands.ExitSuccess
}
