package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rustyeddy/momentum/backtest"
	"github.com/rustyeddy/momentum/feed"
	"github.com/rustyeddy/momentum/journal"
	"github.com/spf13/cobra"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest one CSV price series",
	Long: `Backtest runs the momentum simulator over a single CSV file with a
date and close column, prints a summary, writes backtest_results.csv and
appends the closed trades to the configured journal.

Example:
  momentum backtest -f data/AAPL.csv -s AAPL --tp 2 --sl 1`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

var (
	btFile     string
	btSymbol   string
	btFrom     string
	btTo       string
	btTP       float64
	btSL       float64
	btBalance  float64
	btRisk     float64
	btCloseEnd bool
	btOrg      string
	btTail     int
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btFile, "file", "f", "", "path to price CSV (date,open,high,low,close,volume) (required)")
	backtestCmd.Flags().StringVarP(&btSymbol, "symbol", "s", "", "symbol (default: file name)")
	backtestCmd.Flags().StringVar(&btFrom, "from", "", "first date to include (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&btTo, "to", "", "first date to exclude (YYYY-MM-DD)")
	addSimFlags(backtestCmd)
	backtestCmd.Flags().StringVar(&btOrg, "org", "", "write an Org-mode run report to this path")
	backtestCmd.Flags().IntVarP(&btTail, "tail", "n", 10, "show the last N journal rows after the run (0 to skip)")

	backtestCmd.MarkFlagRequired("file")
}

func addSimFlags(c *cobra.Command) {
	c.Flags().Float64Var(&btTP, "tp", 0, "take profit percent (overrides config)")
	c.Flags().Float64Var(&btSL, "sl", 0, "stop loss percent (overrides config)")
	c.Flags().Float64VarP(&btBalance, "balance", "b", 0, "starting balance (overrides config)")
	c.Flags().Float64Var(&btRisk, "risk", 0, "risk percent per trade (overrides config)")
	c.Flags().BoolVar(&btCloseEnd, "close-end", false, "close a position still open on the last candle")
}

// applySimFlags copies explicitly set flags over the loaded config.
func applySimFlags(c *cobra.Command) error {
	f := c.Flags()
	if f.Changed("tp") {
		cfg.Simulation.TakeProfitPct = btTP
	}
	if f.Changed("sl") {
		cfg.Simulation.StopLossPct = btSL
	}
	if f.Changed("balance") {
		cfg.Simulation.StartingBalance = btBalance
	}
	if f.Changed("risk") {
		cfg.Simulation.RiskPct = btRisk
	}
	if f.Changed("close-end") {
		cfg.Simulation.CloseAtEnd = btCloseEnd
	}
	return cfg.Validate()
}

func dateRange(from, to string) (feed.Options, error) {
	var opts feed.Options
	var err error
	if from != "" {
		if opts.From, err = time.Parse("2006-01-02", from); err != nil {
			return opts, fmt.Errorf("--from: %w", err)
		}
	}
	if to != "" {
		if opts.To, err = time.Parse("2006-01-02", to); err != nil {
			return opts, fmt.Errorf("--to: %w", err)
		}
	}
	return opts, nil
}

func runBacktest(cmd *cobra.Command, args []string) error {
	if err := applySimFlags(cmd); err != nil {
		return err
	}
	opts, err := dateRange(btFrom, btTo)
	if err != nil {
		return err
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() {
		if j != nil {
			j.Close()
		}
	}()

	r := &backtest.Runner{Config: cfg.SimConfig(), Journal: j, Logger: appLog}
	res, err := r.RunFile(cmd.Context(), btFile, btSymbol, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	backtest.PrintResult(out, res)

	if err := os.MkdirAll(cfg.Output.ResultsDir, 0755); err != nil {
		return err
	}
	resultsPath := filepath.Join(cfg.Output.ResultsDir, "backtest_results.csv")
	if err := journal.WriteTradesCSV(resultsPath, res.Records()); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	fmt.Fprintf(out, "Backtest complete. Results saved to %s\n", resultsPath)

	if btOrg != "" {
		run := res.BacktestRun()
		if err := run.WriteOrgFile(btOrg); err != nil {
			return fmt.Errorf("write org: %w", err)
		}
		fmt.Fprintf(out, "Org report saved to %s\n", btOrg)
	}

	if btTail > 0 && j != nil {
		// flush pending CSV rows before reading the file back
		if err := j.Close(); err != nil {
			return err
		}
		j = nil
		recs, err := tailTrades(cmd, btTail)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nLast %d journal rows:\n", len(recs))
		printTradeTable(out, recs)
	}
	return nil
}
