package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/rustyeddy/momentum/backtest"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Backtest every CSV in a directory",
	Long: `Batch backtests each *.csv file in a directory independently, using the
file name as the symbol. Per-symbol trades are written to
backtest_results_<SYMBOL>.csv and all trades to backtest_results_all.csv.

Example:
  momentum batch -d data/ -p 8 --results out/`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

var (
	batchDir      string
	batchParallel int
	batchResults  string
	batchFrom     string
	batchTo       string
	batchQuiet    bool
)

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchDir, "dir", "d", "", "directory of price CSVs (required)")
	batchCmd.Flags().IntVarP(&batchParallel, "parallel", "p", 0, "symbols to run at once (overrides config)")
	batchCmd.Flags().StringVar(&batchResults, "results", "", "directory for result files (overrides config)")
	batchCmd.Flags().StringVar(&batchFrom, "from", "", "first date to include (YYYY-MM-DD)")
	batchCmd.Flags().StringVar(&batchTo, "to", "", "first date to exclude (YYYY-MM-DD)")
	batchCmd.Flags().BoolVarP(&batchQuiet, "quiet", "q", false, "hide the progress bar")
	addSimFlags(batchCmd)

	batchCmd.MarkFlagRequired("dir")
}

func runBatch(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("parallel") {
		cfg.Batch.Parallelism = batchParallel
	}
	if batchResults != "" {
		cfg.Output.ResultsDir = batchResults
	}
	if err := applySimFlags(cmd); err != nil {
		return err
	}
	rng, err := dateRange(batchFrom, batchTo)
	if err != nil {
		return err
	}

	files, err := backtest.DatasetFiles(batchDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .csv files in %s", batchDir)
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if j != nil {
		defer j.Close()
	}

	var bar *progressbar.ProgressBar
	if !batchQuiet {
		bar = progressbar.Default(int64(len(files)), "backtesting")
	}

	r := &backtest.Runner{Config: cfg.SimConfig(), Journal: j, Logger: appLog}
	results, err := r.RunBatch(cmd.Context(), batchDir, backtest.BatchOptions{
		Parallelism: cfg.Batch.Parallelism,
		ResultsDir:  cfg.Output.ResultsDir,
		Range:       rng,
		OnDone: func(backtest.Result) {
			if bar != nil {
				_ = bar.Add(1)
			}
		},
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%-12s %7s %5s %7s %12s %9s\n", "SYMBOL", "TRADES", "WINS", "LOSSES", "NET P/L", "WIN RATE")
	symbols := make([]string, 0, len(results))
	for _, res := range results {
		fmt.Fprintf(out, "%-12s %7d %5d %7d %12.2f %8.2f%%\n",
			res.Symbol, res.Trades(), res.Wins, res.Losses, res.NetPL, res.WinRate()*100)
		symbols = append(symbols, res.Symbol)
	}
	fmt.Fprintf(out, "\nAll results saved to %s\n", filepath.Join(cfg.Output.ResultsDir, backtest.MasterResultsFile))
	fmt.Fprintf(out, "Processed symbols: %v\n", symbols)
	return nil
}
