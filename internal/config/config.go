package config

import (
	"fmt"
	"time"

	"github.com/LeJamon/ammquote/internal/core/amm"
	"github.com/LeJamon/ammquote/internal/core/amount"
	"github.com/LeJamon/ammquote/internal/pool"
	"github.com/LeJamon/ammquote/internal/quote"
	"github.com/LeJamon/ammquote/internal/storage/snapshotdb"
)

// Config represents the complete ammquote configuration
type Config struct {
	Engine EngineConfig `toml:"engine" mapstructure:"engine"`
	Quote  QuoteConfig  `toml:"quote" mapstructure:"quote"`
	Node   NodeConfig   `toml:"node" mapstructure:"node"`
	Cache  CacheConfig  `toml:"cache" mapstructure:"cache"`
	Store  StoreConfig  `toml:"store" mapstructure:"store"`

	LogLevel string `toml:"log_level" mapstructure:"log_level"`

	configPath string
}

// EngineConfig tunes the single-asset deposit solver. Decimal settings are
// kept as strings so that no precision is lost on the way in.
type EngineConfig struct {
	Tolerance           string `toml:"tolerance" mapstructure:"tolerance"`
	MaxIterations       int    `toml:"max_iterations" mapstructure:"max_iterations"`
	BracketMultiplier   string `toml:"bracket_multiplier" mapstructure:"bracket_multiplier"`
	MaxBracketDoublings int    `toml:"max_bracket_doublings" mapstructure:"max_bracket_doublings"`
	WorkPrecision       int32  `toml:"work_precision" mapstructure:"work_precision"`
}

// Params converts the section to calculator parameters.
func (e EngineConfig) Params() (amm.Params, error) {
	tolerance, err := amount.Parse(e.Tolerance)
	if err != nil {
		return amm.Params{}, fmt.Errorf("tolerance: %w", err)
	}
	multiplier, err := amount.Parse(e.BracketMultiplier)
	if err != nil {
		return amm.Params{}, fmt.Errorf("bracket_multiplier: %w", err)
	}
	return amm.Params{
		Tolerance:           tolerance,
		MaxIterations:       e.MaxIterations,
		BracketMultiplier:   multiplier,
		MaxBracketDoublings: e.MaxBracketDoublings,
		WorkPrecision:       e.WorkPrecision,
	}, nil
}

func (e EngineConfig) Validate() error {
	params, err := e.Params()
	if err != nil {
		return err
	}
	return params.Validate()
}

type QuoteConfig struct {
	DefaultSlippage string `toml:"default_slippage" mapstructure:"default_slippage"`
	BatchWorkers    int    `toml:"batch_workers" mapstructure:"batch_workers"`
}

func (q QuoteConfig) Service() (quote.Config, error) {
	slippage, err := amount.Parse(q.DefaultSlippage)
	if err != nil {
		return quote.Config{}, fmt.Errorf("default_slippage: %w", err)
	}
	return quote.Config{DefaultSlippage: slippage, BatchWorkers: q.BatchWorkers}, nil
}

func (q QuoteConfig) Validate() error {
	c, err := q.Service()
	if err != nil {
		return err
	}
	return c.Validate()
}

// NodeConfig points at the XRPL node pools are read from. An empty URL means
// pools must be given on the command line.
type NodeConfig struct {
	URL         string        `toml:"url" mapstructure:"url"`
	Timeout     time.Duration `toml:"timeout" mapstructure:"timeout"`
	LedgerIndex string        `toml:"ledger_index" mapstructure:"ledger_index"`
}

func (n NodeConfig) Provider() pool.NodeConfig {
	return pool.NodeConfig{URL: n.URL, Timeout: n.Timeout, LedgerIndex: n.LedgerIndex}
}

func (n NodeConfig) Validate() error {
	if n.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", n.Timeout)
	}
	return nil
}

type CacheConfig struct {
	Enabled bool          `toml:"enabled" mapstructure:"enabled"`
	Size    int           `toml:"size" mapstructure:"size"`
	TTL     time.Duration `toml:"ttl" mapstructure:"ttl"`
}

func (c CacheConfig) Pool() pool.CacheConfig {
	return pool.CacheConfig{Size: c.Size, TTL: c.TTL}
}

func (c CacheConfig) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("size must be positive, got %d", c.Size)
	}
	if c.TTL < 0 {
		return fmt.Errorf("ttl must not be negative, got %s", c.TTL)
	}
	return nil
}

// StoreConfig configures the snapshot database. An empty driver disables it.
type StoreConfig struct {
	Driver  string        `toml:"driver" mapstructure:"driver"`
	DSN     string        `toml:"dsn" mapstructure:"dsn"`
	Timeout time.Duration `toml:"timeout" mapstructure:"timeout"`
	// Record saves every snapshot fetched from the node.
	Record bool `toml:"record" mapstructure:"record"`
}

func (s StoreConfig) Enabled() bool {
	return s.Driver != ""
}

func (s StoreConfig) Database() snapshotdb.Config {
	return snapshotdb.Config{Driver: s.Driver, DSN: s.DSN, Timeout: s.Timeout}
}

func (s StoreConfig) Validate() error {
	if !s.Enabled() {
		if s.Record {
			return fmt.Errorf("record requires a driver")
		}
		return nil
	}
	return s.Database().Validate()
}

// GetConfigPath returns the file the configuration was read from, if any.
func (c *Config) GetConfigPath() string {
	return c.configPath
}
