package backtest

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rustyeddy/momentum/feed"
	"github.com/rustyeddy/momentum/internal/logger"
	"github.com/rustyeddy/momentum/journal"
	"github.com/rustyeddy/momentum/market"
	"github.com/rustyeddy/momentum/mocks"
	"github.com/rustyeddy/momentum/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func seriesOf(closes ...float64) market.Series {
	out := make(market.Series, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{Time: day0.AddDate(0, 0, i), Close: c}
	}
	return out
}

func writeDataset(t *testing.T, dir, name string, closes ...float64) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,open,high,low,close,volume\n")
	for i, c := range closes {
		d := day0.AddDate(0, 0, i).Format("2006-01-02")
		b.WriteString(d + ",0,0,0," + strconv.FormatFloat(c, 'f', -1, 64) + ",0\n")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

// memJournal is a concurrency-safe in-memory journal.
type memJournal struct {
	mu   sync.Mutex
	recs []journal.TradeRecord
	runs []journal.BacktestRun
	err  error
}

func (m *memJournal) RecordTrade(r journal.TradeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.recs = append(m.recs, r)
	return nil
}

func (m *memJournal) RecordBacktest(_ context.Context, r journal.BacktestRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, r)
	return nil
}

func (m *memJournal) Close() error { return nil }

func TestRunnerRun(t *testing.T) {
	t.Parallel()

	mj := &memJournal{}
	r := &Runner{Config: sim.DefaultConfig(), Journal: mj}

	// TP 11->12, then 11 re-entry skipped (down), entry 12 -> SL 11.8
	res, err := r.Run(context.Background(), "AAPL", seriesOf(10, 11, 12, 11, 12, 11.8))
	require.NoError(t, err)

	require.Equal(t, 2, res.Trades())
	assert.Equal(t, sim.TakeProfit, res.ClosedTrades[0].Reason)
	assert.Equal(t, sim.StopLoss, res.ClosedTrades[1].Reason)
	assert.Equal(t, 1, res.Wins)
	assert.Equal(t, 1, res.Losses)
	assert.InDelta(t, 100-20, res.NetPL, 1e-9)
	assert.InDelta(t, 100, res.GrossProfit, 1e-9)
	assert.InDelta(t, 20, res.GrossLoss, 1e-9)
	assert.InDelta(t, 5, res.ProfitFactor(), 1e-9)
	assert.InDelta(t, 0.5, res.WinRate(), 1e-12)
	assert.InDelta(t, 0.8, res.ReturnPct(), 1e-9)
	assert.Equal(t, day0, res.Start)
	assert.Equal(t, day0.AddDate(0, 0, 5), res.End)
	assert.Equal(t, 6, res.Candles)
	assert.NotEmpty(t, res.RunID)

	require.Len(t, mj.recs, 2)
	assert.Equal(t, res.Records(), mj.recs)
	for _, rec := range mj.recs {
		assert.Equal(t, res.RunID, rec.RunID)
	}

	require.Len(t, mj.runs, 1)
	run := mj.runs[0]
	assert.Equal(t, res.RunID, run.RunID)
	assert.Equal(t, "AAPL", run.Symbol)
	assert.Equal(t, 2, run.Trades)
	assert.InDelta(t, 5, run.ProfitFactor, 1e-9)
	assert.Equal(t, []string{"Exits: TakeProfit 1, StopLoss 1"}, run.Notes)
}

func TestResultNotes(t *testing.T) {
	t.Parallel()

	cfg := sim.DefaultConfig()
	cfg.CloseAtEnd = true
	cfg.EntryRule = ""
	r := &Runner{Config: cfg}

	// TP 11->12, then entry at 12 still open on the last candle
	res, err := r.Run(context.Background(), "AAPL", seriesOf(10, 11, 12, 11, 12, 12.05))
	require.NoError(t, err)
	assert.Equal(t, sim.EntryCloseAbovePrev, res.Config.EntryRule)
	assert.Equal(t, []string{
		"Exits: TakeProfit 1, EndOfSeries 1",
		"Open position force-closed on the last candle",
	}, res.BacktestRun().Notes)

	empty, err := r.Run(context.Background(), "AAPL", seriesOf(10, 9, 8))
	require.NoError(t, err)
	assert.Equal(t, []string{"No trades closed"}, empty.Notes())

	var buf bytes.Buffer
	run := res.BacktestRun()
	require.NoError(t, run.WriteOrg(&buf))
	assert.Contains(t, buf.String(), "** Observations\n- Exits: TakeProfit 1, EndOfSeries 1")
}

func TestRunnerRunIsRepeatable(t *testing.T) {
	t.Parallel()

	r := &Runner{Config: sim.DefaultConfig()}
	s := seriesOf(10, 11, 12, 11, 12, 11.8, 12, 13)

	a, err := r.Run(context.Background(), "AAPL", s)
	require.NoError(t, err)
	b, err := r.Run(context.Background(), "AAPL", s)
	require.NoError(t, err)

	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.ClosedTrades, b.ClosedTrades)
	for i := range a.Records() {
		assert.Equal(t, a.Records()[i].TradeID, b.Records()[i].TradeID)
	}
}

func TestRunnerRunErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("missing symbol", func(t *testing.T) {
		t.Parallel()
		r := &Runner{Config: sim.DefaultConfig()}
		_, err := r.Run(ctx, "", seriesOf(1, 2))
		assert.ErrorContains(t, err, "symbol is required")
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		r := &Runner{Config: sim.DefaultConfig()}
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := r.Run(cctx, "AAPL", seriesOf(1, 2))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("unknown entry rule", func(t *testing.T) {
		t.Parallel()
		cfg := sim.DefaultConfig()
		cfg.EntryRule = "rsi"
		r := &Runner{Config: cfg}
		_, err := r.Run(ctx, "AAPL", seriesOf(1, 2))
		assert.ErrorContains(t, err, "unsupported entry rule")
	})

	t.Run("journal failure keeps partial trades", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("disk full")
		mj := &memJournal{err: boom}
		r := &Runner{Config: sim.DefaultConfig(), Journal: mj}
		res, err := r.Run(ctx, "AAPL", seriesOf(10, 11, 12, 11, 12, 13))
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, res.Trades())
		assert.Empty(t, mj.runs)
	})
}

func TestRunnerLogs(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	r := &Runner{Config: sim.DefaultConfig(), Logger: logger.FromZap(zap.New(core))}

	_, err := r.Run(context.Background(), "AAPL", seriesOf(10, 11, 12))
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("backtest started").Len())
	assert.Equal(t, 1, logs.FilterMessage("trade closed").Len())
	finished := logs.FilterMessage("backtest finished").All()
	require.Len(t, finished, 1)
	ctx := finished[0].ContextMap()
	assert.Equal(t, "AAPL", ctx["symbol"])
	assert.Equal(t, int64(1), ctx["trades"])
}

func TestRunnerRunFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeDataset(t, dir, "MSFT.csv", 10, 11, 12, 11)

	r := &Runner{Config: sim.DefaultConfig()}
	res, err := r.RunFile(context.Background(), path, "", feed.Options{})
	require.NoError(t, err)
	assert.Equal(t, "MSFT", res.Symbol)
	assert.Equal(t, path, res.Dataset)
	require.Equal(t, 1, res.Trades())
	assert.Equal(t, 9.09, res.ClosedTrades[0].PnLPct)

	res, err = r.RunFile(context.Background(), path, "OVERRIDE", feed.Options{})
	require.NoError(t, err)
	assert.Equal(t, "OVERRIDE", res.Symbol)

	_, err = r.RunFile(context.Background(), filepath.Join(dir, "missing.csv"), "", feed.Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunnerWithSQLiteJournalIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j, err := journal.NewSQLite(filepath.Join(t.TempDir(), "trades.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	r := &Runner{Config: sim.DefaultConfig(), Journal: j}
	s := seriesOf(10, 11, 12, 11, 12, 11.8)

	first, err := r.Run(ctx, "AAPL", s)
	require.NoError(t, err)
	_, err = r.Run(ctx, "AAPL", s)
	require.NoError(t, err)

	recs, err := j.ListTradesBySymbol(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, first.RunID, recs[0].RunID)

	run, err := j.GetBacktestRun(ctx, first.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Trades)
}

func TestSymbolFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "AAPL", SymbolFromPath("data/AAPL.csv"))
	assert.Equal(t, "btc-usd", SymbolFromPath("/tmp/btc-usd.CSV"))
	assert.Equal(t, "X", SymbolFromPath("X"))
}

func TestPrintResult(t *testing.T) {
	t.Parallel()

	r := &Runner{Config: sim.DefaultConfig()}
	res, err := r.Run(context.Background(), "AAPL", seriesOf(10, 11, 12, 11, 12, 11.8))
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintResult(&buf, res)
	out := buf.String()

	assert.Contains(t, out, " Backtest AAPL")
	assert.Contains(t, out, "Run ID:        "+res.RunID)
	assert.Contains(t, out, "Trades:        2")
	assert.Contains(t, out, "Win Rate:      50.00%")
	assert.Contains(t, out, "Net P/L:       80.00")
	assert.Contains(t, out, "Profit Factor: 5.00")
	assert.Contains(t, out, "TakeProfit")
	assert.Contains(t, out, "StopLoss")
	assert.NotContains(t, out, "Dataset:")
}

func TestRunnerJournalMock(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	j := mocks.NewMockJournal(ctrl)

	var got []journal.TradeRecord
	j.EXPECT().RecordTrade(gomock.Any()).DoAndReturn(func(rec journal.TradeRecord) error {
		got = append(got, rec)
		return nil
	}).Times(2)

	r := &Runner{Config: sim.DefaultConfig(), Journal: j}
	res, err := r.Run(context.Background(), "AAPL", seriesOf(10, 11, 12, 11, 12, 11.8))
	require.NoError(t, err)

	// No Close expected: the caller owns the journal.
	assert.Equal(t, res.Records(), got)
}
