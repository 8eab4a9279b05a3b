package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/internal/logging"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/market/data"
	"github.com/rustyeddy/papertrader/report"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "papertrader",
	Short: "A single-player A-share paper trading game",
	Long: `Papertrader replays a random window of real daily bars and lets you
trade it with limit orders, A-share fees and a simulated account.

It provides tools for:
  - Playing sessions interactively or from a scripted replay
  - Importing, checking and converting daily bar histories
  - Journaling fills, equity and scores to SQLite or CSV

Complete documentation is available at https://github.com/rustyeddy/papertrader`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	configPath string
	logLevel   string
	logFormat  string
	noColor    bool

	cfg *config.Config
	log *slog.Logger
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override log.format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "plain text output")
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if logFormat != "" {
		c.Log.Format = logFormat
	}
	cfg = c
	log = logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	slog.SetDefault(log)
	return nil
}

func printer(cmd *cobra.Command) report.Printer {
	return report.Printer{W: cmd.OutOrStdout(), Color: !noColor}
}

// catalog opens the bar source named by data.source.
func catalog() (data.Catalog, error) {
	switch cfg.Data.Source {
	case "dir":
		return data.NewDirCatalog(cfg.Data.Dir), nil
	case "parquet":
		return data.NewParquetStore(cfg.Data.Dir), nil
	case "http":
		timeout, err := cfg.Data.ParseTimeout()
		if err != nil {
			return nil, fmt.Errorf("data.timeout: %w", err)
		}
		return data.NewHTTPCatalog(cfg.Data.URL, timeout), nil
	}
	return nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
}

// openJournal returns nil when journaling is off.
func openJournal() (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "sqlite":
		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		return j, nil
	case "csv":
		j, err := journal.NewCSV(cfg.Journal.Dir)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		return j, nil
	}
	return nil, nil
}

func dataRange() (time.Time, time.Time, error) {
	return cfg.Data.Range(time.Now())
}
