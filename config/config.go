package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/papertrader/fees"
	"github.com/rustyeddy/papertrader/sim"
)

// Config represents the complete game configuration
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Fees    fees.Schedule `json:"fees" yaml:"fees"`
	Session SessionConfig `json:"session" yaml:"session"`
	Data    DataConfig    `json:"data" yaml:"data"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"`
}

// SessionConfig shapes each game
type SessionConfig struct {
	Duration            int    `json:"duration" yaml:"duration"` // bars per game
	Warmup              int    `json:"warmup" yaml:"warmup"`     // bars shown before trading starts
	Speeds              []int  `json:"speeds" yaml:"speeds"`
	Lot                 int64  `json:"lot" yaml:"lot"`
	RefundEscrowSurplus bool   `json:"refund_escrow_surplus" yaml:"refund_escrow_surplus"`
	Seed                uint64 `json:"seed,omitempty" yaml:"seed,omitempty"` // 0 picks randomly
}

// DataConfig tells the game where bar histories come from
type DataConfig struct {
	Source   string `json:"source" yaml:"source"` // "dir", "http" or "parquet"
	Dir      string `json:"dir,omitempty" yaml:"dir,omitempty"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
	Timeout  string `json:"timeout,omitempty" yaml:"timeout,omitempty"` // e.g. "30s"
	From     string `json:"from,omitempty" yaml:"from,omitempty"`       // YYYY-MM-DD
	To       string `json:"to,omitempty" yaml:"to,omitempty"`
	Lookback int    `json:"lookback_years,omitempty" yaml:"lookback_years,omitempty"`
}

// ParseTimeout converts the timeout string to time.Duration
func (d DataConfig) ParseTimeout() (time.Duration, error) {
	if d.Timeout == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(d.Timeout)
}

// Range resolves the date window to load. An explicit From wins over
// Lookback; To defaults to now.
func (d DataConfig) Range(now time.Time) (from, to time.Time, err error) {
	to = now
	if d.To != "" {
		if to, err = time.Parse(time.DateOnly, d.To); err != nil {
			return from, to, fmt.Errorf("data.to: %w", err)
		}
	}
	switch {
	case d.From != "":
		if from, err = time.Parse(time.DateOnly, d.From); err != nil {
			return from, to, fmt.Errorf("data.from: %w", err)
		}
	case d.Lookback > 0:
		from = to.AddDate(-d.Lookback, 0, 0)
	}
	return from, to, nil
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type   string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty"`
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // text or json
}

// LoadFromFile loads configuration from a file (JSON or YAML)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Load builds the effective configuration: defaults, then the file at path
// if one is given, then .env and PAPERTRADER_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	_ = godotenv.Load()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON
// otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from PAPERTRADER_* variables. lookup is
// usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup("PAPERTRADER_" + key); ok && v != "" {
			*dst = v
		}
	}

	str("DATA_SOURCE", &c.Data.Source)
	str("DATA_DIR", &c.Data.Dir)
	str("DATA_URL", &c.Data.URL)
	str("JOURNAL_TYPE", &c.Journal.Type)
	str("JOURNAL_DIR", &c.Journal.Dir)
	str("JOURNAL_DB", &c.Journal.DBPath)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup("PAPERTRADER_BALANCE"); ok && v != "" {
		b, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("PAPERTRADER_BALANCE: %w", err)
		}
		c.Account.Balance = b
	}
	if v, ok := lookup("PAPERTRADER_SEED"); ok && v != "" {
		s, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("PAPERTRADER_SEED: %w", err)
		}
		c.Session.Seed = s
	}
	if v, ok := lookup("PAPERTRADER_REFUND_ESCROW_SURPLUS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PAPERTRADER_REFUND_ESCROW_SURPLUS: %w", err)
		}
		c.Session.RefundEscrowSurplus = b
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if err := c.Fees.Validate(); err != nil {
		return fmt.Errorf("fees: %w", err)
	}
	if c.Session.Duration <= 0 {
		return fmt.Errorf("session.duration must be positive")
	}
	if c.Session.Warmup < 0 || c.Session.Warmup >= c.Session.Duration {
		return fmt.Errorf("session.warmup must be in [0, duration)")
	}
	if len(c.Session.Speeds) == 0 || slices.ContainsFunc(c.Session.Speeds, func(s int) bool { return s <= 0 }) {
		return fmt.Errorf("session.speeds must be positive multipliers")
	}
	if c.Session.Lot <= 0 {
		return fmt.Errorf("session.lot must be positive")
	}
	switch c.Data.Source {
	case "dir", "parquet":
		if c.Data.Dir == "" {
			return fmt.Errorf("data.dir required for %s source", c.Data.Source)
		}
	case "http":
		if c.Data.URL == "" {
			return fmt.Errorf("data.url required for http source")
		}
	default:
		return fmt.Errorf("data.source must be 'dir', 'http' or 'parquet'")
	}
	if _, err := c.Data.ParseTimeout(); err != nil {
		return fmt.Errorf("data.timeout: %w", err)
	}
	if _, _, err := c.Data.Range(time.Now()); err != nil {
		return err
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.Dir == "" {
			return fmt.Errorf("journal dir required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

// Sim converts the configuration into session settings.
func (c *Config) Sim() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.InitialBalance = c.Account.Balance
	cfg.Fees = c.Fees
	cfg.RefundSurplus = c.Session.RefundEscrowSurplus
	cfg.Speeds = slices.Clone(c.Session.Speeds)
	return cfg
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Currency: "CNY",
			Balance:  100000,
		},
		Fees: fees.Default(),
		Session: SessionConfig{
			Duration: 252,
			Warmup:   26,
			Speeds:   []int{1, 2, 4},
			Lot:      1,
		},
		Data: DataConfig{
			Source:   "dir",
			Dir:      "./data",
			Timeout:  "30s",
			Lookback: 2,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./papertrader.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
