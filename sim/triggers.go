package sim

// exitReason applies the exit rules in precedence order: take profit, stop
// loss, then a down tick. The empty reason means stay in position.
func exitReason(cfg Config, pnlPct, prev, close float64) ExitReason {
	switch {
	case hitTakeProfit(cfg, pnlPct):
		return TakeProfit
	case hitStopLoss(cfg, pnlPct):
		return StopLoss
	case close < prev:
		return MomentumReversal
	}
	return ""
}

func hitTakeProfit(cfg Config, pnlPct float64) bool {
	return pnlPct >= cfg.TakeProfitPct
}

func hitStopLoss(cfg Config, pnlPct float64) bool {
	return pnlPct <= -cfg.StopLossPct
}

// entrySignal is the momentum entry: the latest close is above the one
// before it.
func entrySignal(prev, close float64) bool {
	return close > prev
}
