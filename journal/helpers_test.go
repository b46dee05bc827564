package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/momentum/market"
	"github.com/stretchr/testify/require"
)

func seriesOf(closes []float64) market.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(market.Series, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{Time: start.AddDate(0, 0, i), Close: c}
	}
	return out
}

func newTestSQLite(t *testing.T) (*SQLiteJournal, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j, path
}

func record(symbol string, day int, reason string, pnl float64) TradeRecord {
	entry := time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
	exit := entry.Add(24 * time.Hour)
	return TradeRecord{
		TradeID:    symbol + "-" + entry.Format("0102") + "-" + reason,
		RunID:      "RUN1",
		Symbol:     symbol,
		EntryPrice: 100,
		EntryTime:  entry,
		ExitPrice:  100 + pnl/100,
		ExitTime:   exit,
		Size:       100,
		PnL:        pnl,
		PnLPct:     pnl / 100,
		Reason:     reason,
	}
}
