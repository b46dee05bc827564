package backtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rustyeddy/momentum/feed"
	"github.com/rustyeddy/momentum/journal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MasterResultsFile collects every trade of a batch.
const MasterResultsFile = "backtest_results_all.csv"

// ResultsFile names the per-symbol results file.
func ResultsFile(symbol string) string {
	return fmt.Sprintf("backtest_results_%s.csv", symbol)
}

type BatchOptions struct {
	// Parallelism bounds concurrent symbols; values below 1 mean 1.
	Parallelism int
	// ResultsDir receives per-symbol files and the master file. Empty
	// means the current directory.
	ResultsDir string
	Range      feed.Options
	// OnDone, if set, is called after each symbol finishes. Calls may
	// come from several goroutines.
	OnDone func(Result)
}

// DatasetFiles lists the *.csv files directly inside dir, sorted.
func DatasetFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// RunBatch backtests every CSV in dir independently, symbol = file stem.
// Each symbol's trades are written to its own results file and all trades
// to MasterResultsFile. Results come back sorted by symbol. The first
// failing symbol cancels the rest.
func (r *Runner) RunBatch(ctx context.Context, dir string, opts BatchOptions) ([]Result, error) {
	files, err := DatasetFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("backtest: batch: %w", err)
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	outDir := opts.ResultsDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	r.log().Info("batch started", zap.String("dir", dir), zap.Int("files", len(files)),
		zap.Int("parallelism", opts.Parallelism))

	results := make([]Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallelism)

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			res, err := r.RunFile(gctx, path, SymbolFromPath(path), opts.Range)
			if err != nil {
				return fmt.Errorf("%s: %w", SymbolFromPath(path), err)
			}
			if err := journal.WriteTradesCSV(filepath.Join(outDir, ResultsFile(res.Symbol)), res.Records()); err != nil {
				return err
			}
			results[i] = res
			if opts.OnDone != nil {
				opts.OnDone(res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("backtest: batch: %w", err)
	}

	sort.SliceStable(results, func(a, b int) bool { return results[a].Symbol < results[b].Symbol })

	var all []journal.TradeRecord
	symbols := make([]string, len(results))
	for i, res := range results {
		all = append(all, res.Records()...)
		symbols[i] = res.Symbol
	}
	if err := journal.WriteTradesCSV(filepath.Join(outDir, MasterResultsFile), all); err != nil {
		return nil, err
	}

	r.log().Info("batch finished", zap.Strings("symbols", symbols), zap.Int("trades", len(all)))
	return results, nil
}
