package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVJournalWritesHeaderAndRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trades.csv")
	j, err := NewCSV(path)
	require.NoError(t, err)

	require.NoError(t, j.RecordTrade(record("AAPL", 2, "TakeProfit", 100)))
	require.NoError(t, j.RecordTrade(record("AAPL", 4, "StopLoss", -50)))
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "trade_id,run_id,symbol,entry_price,entry_time,exit_price,exit_time,size,pnl,pnl_pct,reason", lines[0])
	assert.Equal(t,
		"AAPL-0102-TakeProfit,RUN1,AAPL,100.000000,2024-01-02T00:00:00Z,101.000000,2024-01-03T00:00:00Z,100,100.000000,1.00,TakeProfit",
		lines[1])
}

func TestCSVJournalAppendIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trades.csv")
	recs := []TradeRecord{
		record("AAPL", 2, "TakeProfit", 100),
		record("AAPL", 4, "MomentumReversal", 20),
	}

	for run := 0; run < 2; run++ {
		j, err := NewCSV(path)
		require.NoError(t, err)
		for _, r := range recs {
			require.NoError(t, j.RecordTrade(r))
		}
		// same key twice within one session
		require.NoError(t, j.RecordTrade(recs[0]))
		require.NoError(t, j.Close())
	}

	got, err := ReadTradesCSV(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, recs[0].TradeID, got[0].TradeID)
	assert.Equal(t, recs[1].TradeID, got[1].TradeID)

	// A third session appends new trades after the existing ones.
	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordTrade(record("MSFT", 5, "StopLoss", -10)))
	require.NoError(t, j.Close())

	got, err = ReadTradesCSV(path)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "MSFT", got[2].Symbol)
}

func TestWriteAndReadTradesCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "backtest_results_AAPL.csv")
	in := []TradeRecord{
		record("AAPL", 2, "TakeProfit", 100),
		record("AAPL", 4, "StopLoss", -50),
	}
	require.NoError(t, WriteTradesCSV(path, in))

	out, err := ReadTradesCSV(path)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for i := range in {
		assert.Equal(t, in[i].TradeID, out[i].TradeID)
		assert.Equal(t, in[i].RunID, out[i].RunID)
		assert.Equal(t, in[i].Symbol, out[i].Symbol)
		assert.Equal(t, in[i].Size, out[i].Size)
		assert.InDelta(t, in[i].EntryPrice, out[i].EntryPrice, 1e-9)
		assert.InDelta(t, in[i].ExitPrice, out[i].ExitPrice, 1e-9)
		assert.InDelta(t, in[i].PnL, out[i].PnL, 1e-9)
		assert.InDelta(t, in[i].PnLPct, out[i].PnLPct, 1e-9)
		assert.True(t, in[i].EntryTime.Equal(out[i].EntryTime))
		assert.True(t, in[i].ExitTime.Equal(out[i].ExitTime))
		assert.Equal(t, in[i].Reason, out[i].Reason)
	}

	// Rewriting replaces the previous contents.
	require.NoError(t, WriteTradesCSV(path, in[:1]))
	out, err = ReadTradesCSV(path)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestWriteTradesCSVEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, WriteTradesCSV(path, nil))

	out, err := ReadTradesCSV(path)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReadTradesCSVErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := ReadTradesCSV(filepath.Join(dir, "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	wrong := filepath.Join(dir, "wrong.csv")
	require.NoError(t, os.WriteFile(wrong, []byte("date,close\n2024-01-01,1\n"), 0644))
	_, err = ReadTradesCSV(wrong)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected header")

	_, err = NewCSV(wrong)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.csv")
	body := strings.Join(csvHeader, ",") + "\nT1,R1,AAPL,abc,2024-01-02T00:00:00Z,1,2024-01-03T00:00:00Z,100,1,1,TakeProfit\n"
	require.NoError(t, os.WriteFile(bad, []byte(body), 0644))
	_, err = ReadTradesCSV(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2: entry_price")

	reason := filepath.Join(dir, "reason.csv")
	body = strings.Join(csvHeader, ",") + "\nT1,R1,AAPL,1,2024-01-02T00:00:00Z,1,2024-01-03T00:00:00Z,100,1,1,Take Profit Hit\n"
	require.NoError(t, os.WriteFile(reason, []byte(body), 0644))
	_, err = ReadTradesCSV(reason)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `line 2: unknown exit reason "Take Profit Hit"`)
}
