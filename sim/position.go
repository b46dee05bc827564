package sim

import "time"

// position is the single open trade held while the simulator is in
// position.
type position struct {
	EntryPrice float64
	EntryTime  time.Time
	Size       int
}

func (p *position) close(symbol string, exit float64, at time.Time, reason ExitReason) ClosedTrade {
	return ClosedTrade{
		Symbol:     symbol,
		EntryPrice: p.EntryPrice,
		EntryTime:  p.EntryTime,
		ExitPrice:  exit,
		ExitTime:   at,
		Size:       p.Size,
		PnL:        UnrealizedPL(p.EntryPrice, exit, p.Size),
		PnLPct:     PnLPercent(p.EntryPrice, exit),
		Reason:     reason,
	}
}
