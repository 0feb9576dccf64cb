// Package cmd implements the CLI application to run program financial
// analytics.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/pmtools/progfin"
	"github.com/pmtools/progfin/sqlitestore"
)

// Commands is the list of subcommands a main package registers.
var Commands = []subcommands.Command{
	&snapshotCmd{},
	&historyCmd{},
	&compareCmd{},
	&forecastCmd{},
	&allocateCmd{},
	&reallocateCmd{},
	&distributeCmd{},
	&freezeCmd{},
	&unfreezeCmd{},
	&budgetsCmd{},
	&matchCmd{},
	&reconcileCmd{},
	&discrepanciesCmd{},
	&reportCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "progfin.toml", "Path to the configuration file")

// openStore opens the SQLite row store named by the configuration.
func openStore() (*sqlitestore.Store, *Config, error) {
	cfg, err := LoadConfig(*configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config %q: %w", *configFile, err)
	}
	store, err := sqlitestore.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

// snapshots builds the snapshot store with the configured feed provider.
func snapshots(store progfin.RowStore, cfg *Config) *progfin.SnapshotStore {
	return &progfin.SnapshotStore{Store: store, Provider: cfg.Provider()}
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when the renderer fails.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// fail prints an error and returns the matching exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
