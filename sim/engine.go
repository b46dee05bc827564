package sim

import (
	"fmt"

	"github.com/rustyeddy/momentum/market"
)

// EntryCloseAbovePrev is the only entry rule: buy when close[i] > close[i-1].
const EntryCloseAbovePrev = "close_gt_prev"

// Config holds the simulator parameters. Percentages are expressed in
// percent units (1.0 = 1%).
type Config struct {
	EntryRule       string
	TakeProfitPct   float64
	StopLossPct     float64
	StartingBalance float64
	RiskPct         float64

	// CloseAtEnd force-closes a position still open on the last candle
	// with reason EndOfSeries. When false the position is dropped.
	CloseAtEnd bool
}

// DefaultConfig returns tp=1%, sl=1%, balance=10000, risk=1%.
func DefaultConfig() Config {
	return Config{
		EntryRule:       EntryCloseAbovePrev,
		TakeProfitPct:   1.0,
		StopLossPct:     1.0,
		StartingBalance: 10000,
		RiskPct:         1.0,
	}
}

// TradeListener is notified once per closed trade, in order. A non-nil
// error stops the run.
type TradeListener interface {
	OnTradeClosed(t ClosedTrade) error
}

// TradeListenerFunc adapts a function to TradeListener.
type TradeListenerFunc func(t ClosedTrade) error

func (f TradeListenerFunc) OnTradeClosed(t ClosedTrade) error { return f(t) }

// NopListener ignores every trade.
type NopListener struct{}

func (NopListener) OnTradeClosed(ClosedTrade) error { return nil }

// Simulator walks a price series with the momentum rule. It holds no state
// between runs and is safe to share across goroutines.
type Simulator struct {
	cfg      Config
	listener TradeListener
}

func NewSimulator(cfg Config) *Simulator {
	if cfg.EntryRule == "" {
		cfg.EntryRule = EntryCloseAbovePrev
	}
	return &Simulator{cfg: cfg, listener: NopListener{}}
}

// SetTradeListener installs l as the closed-trade hook. A nil listener
// restores the no-op default.
func (s *Simulator) SetTradeListener(l TradeListener) {
	if l == nil {
		l = NopListener{}
	}
	s.listener = l
}

func (s *Simulator) Config() Config { return s.cfg }

// Run walks series once and returns the closed trades in order. Series
// shorter than two candles produce no trades. If the listener fails, the
// trades closed so far are returned with the error.
func (s *Simulator) Run(symbol string, series market.Series) ([]ClosedTrade, error) {
	if s.cfg.EntryRule != EntryCloseAbovePrev {
		return nil, fmt.Errorf("sim: unsupported entry rule %q", s.cfg.EntryRule)
	}

	var (
		trades []ClosedTrade
		pos    *position
	)

	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1].Close, series[i]

		if pos == nil {
			if entrySignal(prev, cur.Close) {
				pos = &position{
					EntryPrice: cur.Close,
					EntryTime:  cur.Time,
					Size:       PositionSize(cur.Close, s.cfg.StartingBalance, s.cfg.RiskPct),
				}
			}
			continue
		}

		pnlPct := PnLPercent(pos.EntryPrice, cur.Close)
		reason := exitReason(s.cfg, pnlPct, prev, cur.Close)
		if reason == "" {
			continue
		}

		t := pos.close(symbol, cur.Close, cur.Time, reason)
		pos = nil
		trades = append(trades, t)
		if err := s.listener.OnTradeClosed(t); err != nil {
			return trades, fmt.Errorf("sim: trade listener: %w", err)
		}
	}

	if pos != nil && s.cfg.CloseAtEnd {
		last := series[len(series)-1]
		t := pos.close(symbol, last.Close, last.Time, EndOfSeries)
		trades = append(trades, t)
		if err := s.listener.OnTradeClosed(t); err != nil {
			return trades, fmt.Errorf("sim: trade listener: %w", err)
		}
	}

	return trades, nil
}
