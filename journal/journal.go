// Package journal records closed trades and backtest runs to CSV files or
// SQLite.
package journal

import (
	"time"

	"github.com/rustyeddy/momentum/id"
	"github.com/rustyeddy/momentum/sim"
)

// TradeRecord is one row of the trade log.
type TradeRecord struct {
	TradeID    string
	RunID      string
	Symbol     string
	EntryPrice float64
	EntryTime  time.Time
	ExitPrice  float64
	ExitTime   time.Time
	Size       int
	PnL        float64
	PnLPct     float64
	Reason     string
}

// FromClosedTrade builds the journal row for t. TradeID is the
// deterministic trade key so repeated runs produce the same rows.
func FromClosedTrade(runID string, t sim.ClosedTrade) TradeRecord {
	return TradeRecord{
		TradeID:    tradeKey(t),
		RunID:      runID,
		Symbol:     t.Symbol,
		EntryPrice: t.EntryPrice,
		EntryTime:  t.EntryTime.UTC(),
		ExitPrice:  t.ExitPrice,
		ExitTime:   t.ExitTime.UTC(),
		Size:       t.Size,
		PnL:        t.PnL,
		PnLPct:     t.PnLPct,
		Reason:     string(t.Reason),
	}
}

func tradeKey(t sim.ClosedTrade) string {
	return id.TradeKey(id.Trade{
		Symbol:     t.Symbol,
		EntryTime:  t.EntryTime,
		ExitTime:   t.ExitTime,
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		Size:       t.Size,
		Reason:     string(t.Reason),
	})
}

// Journal is an append-only sink for trade records. Recording a TradeID
// that is already present is a no-op.
type Journal interface {
	RecordTrade(TradeRecord) error
	Close() error
}

// Listener forwards closed trades from a simulator into a Journal.
type Listener struct {
	j     Journal
	runID string
}

var _ sim.TradeListener = (*Listener)(nil)

func NewListener(j Journal, runID string) *Listener {
	return &Listener{j: j, runID: runID}
}

func (l *Listener) OnTradeClosed(t sim.ClosedTrade) error {
	return l.j.RecordTrade(FromClosedTrade(l.runID, t))
}
