package backtest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rustyeddy/momentum/feed"
	"github.com/rustyeddy/momentum/id"
	"github.com/rustyeddy/momentum/internal/logger"
	"github.com/rustyeddy/momentum/journal"
	"github.com/rustyeddy/momentum/market"
	"github.com/rustyeddy/momentum/sim"
	"go.uber.org/zap"
)

// RunRecorder is implemented by journals that also keep run summaries.
type RunRecorder interface {
	RecordBacktest(ctx context.Context, r journal.BacktestRun) error
}

// Runner drives the simulator over one series at a time and routes closed
// trades to an optional journal. A Runner holds no per-run state, so one
// value may be shared by concurrent runs.
type Runner struct {
	Config  sim.Config
	Journal journal.Journal // optional
	Logger  *logger.Logger  // optional
}

func (r *Runner) log() *logger.Logger {
	if r.Logger == nil {
		return logger.NewNop()
	}
	return r.Logger
}

// Run simulates series for symbol. On a journal failure the partial
// result is returned along with the error.
func (r *Runner) Run(ctx context.Context, symbol string, series market.Series) (Result, error) {
	return r.run(ctx, symbol, "", series)
}

// RunFile loads path and runs it. An empty symbol is derived from the
// file name.
func (r *Runner) RunFile(ctx context.Context, path, symbol string, opts feed.Options) (Result, error) {
	if symbol == "" {
		symbol = SymbolFromPath(path)
	}
	series, err := feed.LoadCSV(path, opts)
	if err != nil {
		return Result{}, err
	}
	return r.run(ctx, symbol, path, series)
}

func (r *Runner) run(ctx context.Context, symbol, dataset string, series market.Series) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if symbol == "" {
		return Result{}, fmt.Errorf("backtest: symbol is required")
	}

	runID := id.New()
	log := r.log().With(zap.String("run_id", runID), zap.String("symbol", symbol))
	log.Info("backtest started",
		zap.String("dataset", dataset),
		zap.Int("candles", len(series)),
		zap.Time("start", series.Start()),
		zap.Time("end", series.End()),
	)

	var sink sim.TradeListener = sim.NopListener{}
	if r.Journal != nil {
		sink = journal.NewListener(r.Journal, runID)
	}

	s := sim.NewSimulator(r.Config)
	s.SetTradeListener(sim.TradeListenerFunc(func(t sim.ClosedTrade) error {
		log.Debug("trade closed",
			zap.String("reason", string(t.Reason)),
			zap.Float64("entry", t.EntryPrice),
			zap.Float64("exit", t.ExitPrice),
			zap.Int("size", t.Size),
			zap.Float64("pnl", t.PnL),
			zap.Float64("pnl_pct", t.PnLPct),
		)
		return sink.OnTradeClosed(t)
	}))

	trades, err := s.Run(symbol, series)
	res := summarize(runID, symbol, dataset, s.Config(), series, trades)
	if err != nil {
		log.Error("backtest failed", zap.Error(err), zap.Int("trades", len(trades)))
		return res, err
	}

	if rec, ok := r.Journal.(RunRecorder); ok {
		if err := rec.RecordBacktest(ctx, res.BacktestRun()); err != nil {
			return res, fmt.Errorf("backtest: record run: %w", err)
		}
	}

	log.Info("backtest finished",
		zap.Int("trades", res.Trades()),
		zap.Int("wins", res.Wins),
		zap.Int("losses", res.Losses),
		zap.Float64("net_pl", res.NetPL),
	)
	return res, nil
}

// SymbolFromPath returns the file stem, e.g. "data/AAPL.csv" becomes "AAPL".
func SymbolFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func summarize(runID, symbol, dataset string, cfg sim.Config, series market.Series, trades []sim.ClosedTrade) Result {
	res := Result{
		RunID:        runID,
		Symbol:       symbol,
		Dataset:      dataset,
		Config:       cfg,
		Created:      time.Now().UTC(),
		Start:        series.Start(),
		End:          series.End(),
		Candles:      len(series),
		ClosedTrades: trades,
	}

	for _, t := range trades {
		res.NetPL += t.PnL
		switch {
		case t.Win():
			res.Wins++
			res.GrossProfit += t.PnL
		case t.PnL < 0:
			res.Losses++
			res.GrossLoss -= t.PnL
		}
	}
	return res
}
