package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rustyeddy/momentum/config"
	"github.com/rustyeddy/momentum/internal/logger"
	"github.com/rustyeddy/momentum/journal"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "momentum",
	Short: "Backtest a close-above-previous-close momentum rule",
	Long: `Momentum replays historical close prices through a long-only momentum rule:
buy when a close beats the previous close, sell on take-profit, stop-loss
or the first lower close.

It provides tools for:
  - Backtesting a single CSV price series
  - Batch backtesting a directory of series in parallel
  - Querying the trade journal (CSV or SQLite)
  - Inspecting SMA, EMA and RSI of a series`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = appLog.Sync()
	},
}

var (
	cfgFile  string
	logLevel string

	cfg    = config.Default()
	appLog = logger.NewNop()
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

func setup(cmd *cobra.Command, args []string) error {
	cfg = config.Default()
	if cfgFile != "" {
		c, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return err
		}
		cfg = c
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	l, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	appLog = l
	return nil
}

// openJournal builds the journal named by the config, or nil for "none".
func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "csv":
		if err := os.MkdirAll(filepath.Dir(jc.TradesFile), 0755); err != nil {
			return nil, err
		}
		return journal.NewCSV(jc.TradesFile)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(jc.DBPath), 0755); err != nil {
			return nil, err
		}
		return journal.NewSQLite(jc.DBPath)
	case "none", "":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown journal type %q", jc.Type)
}
