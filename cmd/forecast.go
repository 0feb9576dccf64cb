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

// forecastCmd holds the flags for the 'forecast' subcommand.
type forecastCmd struct {
	program    string
	date       string
	plannedEnd string
	method     string
}

func (*forecastCmd) Name() string     { return "forecast" }
func (*forecastCmd) Synopsis() string { return "project a program's completion cost and date" }
func (*forecastCmd) Usage() string {
	return `pfa forecast -p <program> -end <planned-end> [-d <date>] [-method cpi|cpi-spi|bottom-up]

  Builds the full forecast report: cost projection under the chosen method,
  completion date from schedule efficiency, confidence from recent snapshot
  stability, and the three standard scenarios.
`
}

func (c *forecastCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.program, "p", "", "Program to forecast.")
	f.StringVar(&c.date, "d", progfin.Today().String(), "As-of date.")
	f.StringVar(&c.plannedEnd, "end", "", "Planned completion date.")
	f.StringVar(&c.method, "method", "cpi", "EAC method: cpi, cpi-spi, or bottom-up.")
}

func (c *forecastCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	asOf, err := progfin.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	plannedEnd, err := progfin.ParseDate(c.plannedEnd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing planned end: %v\n", err)
		return subcommands.ExitUsageError
	}
	method, err := progfin.ParseEACMethod(c.method)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	store, cfg, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	engine := &progfin.ForecastEngine{Snapshots: snapshots(store, cfg)}
	report, err := engine.Report(ctx, c.program, asOf, plannedEnd, method)
	if err != nil {
		return fail(err)
	}

	printMarkdown(renderer.ForecastMarkdown(report))
	return subcommands.ExitSuccess
}
