package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pmtools/progfin"
)

// Config is the TOML application configuration.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Feed   FeedConfig   `toml:"feed"`
	Budget BudgetConfig `toml:"budget"`
}

// StoreConfig locates the local database.
type StoreConfig struct {
	Path string `toml:"path"`
}

// FeedConfig describes the program-plan export the snapshot engine reads its
// base measures from.
type FeedConfig struct {
	URL      string            `toml:"url"`
	Currency string            `toml:"currency"`
	Paths    progfin.FeedPaths `toml:"paths"`
}

// BudgetConfig holds allocation policy knobs.
type BudgetConfig struct {
	// Ceiling caps a program's aggregate allocation; 0 means the default.
	Ceiling  float64 `toml:"ceiling"`
	Currency string  `toml:"currency"`
}

// DefaultConfig is the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{Path: "progfin.db"},
		Feed: FeedConfig{
			Currency: "USD",
			Paths: progfin.FeedPaths{
				PV:  "$.totals.pv",
				EV:  "$.totals.ev",
				AC:  "$.totals.ac",
				BAC: "$.totals.bac",
			},
		},
		Budget: BudgetConfig{Currency: "USD"},
	}
}

// LoadConfig reads the TOML file at path. A missing file is not an error:
// the defaults apply.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Provider builds the feed provider the configuration describes.
func (c *Config) Provider() *progfin.FeedProvider {
	return &progfin.FeedProvider{
		URL:      c.Feed.URL,
		Paths:    c.Feed.Paths,
		Currency: c.Feed.Currency,
	}
}

// Ceiling returns the configured program ceiling as Money; the zero Money
// when unset.
func (c *Config) Ceiling() progfin.Money {
	if c.Budget.Ceiling <= 0 {
		return progfin.Money{}
	}
	return progfin.M(c.Budget.Ceiling, c.Budget.Currency)
}
