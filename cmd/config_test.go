package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "progfin.toml")
	data := `
[store]
path = "data/analytics.db"

[feed]
url = "https://plans.example.com/export/{program}/{date}"
currency = "EUR"

[feed.paths]
pv = "$.summary.planned"
ev = "$.summary.earned"
ac = "$.summary.actual"
bac = "$.summary.budget"

[budget]
ceiling = 5000000
currency = "EUR"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := cfg.Store.Path, "data/analytics.db"; got != want {
		t.Errorf("store path = %s, want %s", got, want)
	}
	if got, want := cfg.Feed.Paths.PV, "$.summary.planned"; got != want {
		t.Errorf("pv path = %s, want %s", got, want)
	}

	p := cfg.Provider()
	if got, want := p.Currency, "EUR"; got != want {
		t.Errorf("provider currency = %s, want %s", got, want)
	}

	ceiling := cfg.Ceiling()
	if ceiling.IsZero() || ceiling.Currency() != "EUR" {
		t.Errorf("ceiling = %s, want EUR amount", ceiling)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := cfg.Store.Path, "progfin.db"; got != want {
		t.Errorf("store path = %s, want default %s", got, want)
	}
	if !cfg.Ceiling().IsZero() {
		t.Errorf("ceiling = %s, want zero meaning the ledger default", cfg.Ceiling())
	}
}
