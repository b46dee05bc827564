package sim

import (
	"fmt"
	"time"
)

// ExitReason says why a position was closed.
type ExitReason string

const (
	TakeProfit       ExitReason = "TakeProfit"
	StopLoss         ExitReason = "StopLoss"
	MomentumReversal ExitReason = "MomentumReversal"

	// EndOfSeries is only produced when Config.CloseAtEnd is set.
	EndOfSeries ExitReason = "EndOfSeries"
)

// ParseExitReason maps a stored reason string back to an ExitReason.
func ParseExitReason(s string) (ExitReason, error) {
	switch r := ExitReason(s); r {
	case TakeProfit, StopLoss, MomentumReversal, EndOfSeries:
		return r, nil
	}
	return "", fmt.Errorf("unknown exit reason %q", s)
}

// ClosedTrade is the immutable record of one round trip.
type ClosedTrade struct {
	Symbol     string
	EntryPrice float64
	EntryTime  time.Time
	ExitPrice  float64
	ExitTime   time.Time
	Size       int
	PnL        float64 // account currency
	PnLPct     float64 // percent, two decimals
	Reason     ExitReason
}

// Win reports whether the trade realized a gain.
func (t ClosedTrade) Win() bool { return t.PnL > 0 }
