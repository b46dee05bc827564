package backtest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rustyeddy/momentum/journal"
	"github.com/rustyeddy/momentum/sim"
)

// Result is the summary of one simulated series.
type Result struct {
	RunID   string
	Symbol  string
	Dataset string
	Config  sim.Config
	Created time.Time

	Start   time.Time
	End     time.Time
	Candles int

	ClosedTrades []sim.ClosedTrade

	Wins   int
	Losses int

	NetPL       float64
	GrossProfit float64
	GrossLoss   float64 // positive
}

func (r Result) Trades() int { return len(r.ClosedTrades) }

// WinRate is wins over trades in [0,1].
func (r Result) WinRate() float64 {
	if len(r.ClosedTrades) == 0 {
		return 0
	}
	return float64(r.Wins) / float64(len(r.ClosedTrades))
}

// ProfitFactor is gross profit over gross loss, 0 without losing trades.
func (r Result) ProfitFactor() float64 {
	if r.GrossLoss == 0 {
		return 0
	}
	return r.GrossProfit / r.GrossLoss
}

// ReturnPct is net P/L as a percent of the starting balance.
func (r Result) ReturnPct() float64 {
	if r.Config.StartingBalance <= 0 {
		return 0
	}
	return r.NetPL / r.Config.StartingBalance * 100
}

// Records converts the closed trades into journal rows.
func (r Result) Records() []journal.TradeRecord {
	out := make([]journal.TradeRecord, len(r.ClosedTrades))
	for i, t := range r.ClosedTrades {
		out[i] = journal.FromClosedTrade(r.RunID, t)
	}
	return out
}

func (r Result) BacktestRun() journal.BacktestRun {
	return journal.BacktestRun{
		RunID:         r.RunID,
		Created:       r.Created,
		Symbol:        r.Symbol,
		Dataset:       r.Dataset,
		EntryRule:     r.Config.EntryRule,
		TakeProfitPct: r.Config.TakeProfitPct,
		StopLossPct:   r.Config.StopLossPct,
		RiskPct:       r.Config.RiskPct,
		StartBalance:  r.Config.StartingBalance,
		CloseAtEnd:    r.Config.CloseAtEnd,
		Start:         r.Start,
		End:           r.End,
		Trades:        r.Trades(),
		Wins:          r.Wins,
		Losses:        r.Losses,
		NetPL:         r.NetPL,
		ReturnPct:     r.ReturnPct(),
		WinRate:       r.WinRate(),
		ProfitFactor:  r.ProfitFactor(),
		Notes:         r.Notes(),
	}
}

// Notes lists exit counts by reason for the Org report.
func (r Result) Notes() []string {
	if len(r.ClosedTrades) == 0 {
		return []string{"No trades closed"}
	}

	counts := make(map[sim.ExitReason]int)
	for _, t := range r.ClosedTrades {
		counts[t.Reason]++
	}

	var exits []string
	for _, reason := range []sim.ExitReason{sim.TakeProfit, sim.StopLoss, sim.MomentumReversal, sim.EndOfSeries} {
		if n := counts[reason]; n > 0 {
			exits = append(exits, fmt.Sprintf("%s %d", reason, n))
		}
	}
	notes := []string{"Exits: " + strings.Join(exits, ", ")}
	if counts[sim.EndOfSeries] > 0 {
		notes = append(notes, "Open position force-closed on the last candle")
	}
	return notes
}

func PrintResult(w io.Writer, r Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, " Backtest %s\n", r.Symbol)
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	if r.Dataset != "" {
		fmt.Fprintf(w, "Dataset:       %s\n", r.Dataset)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	fmt.Fprintf(w, "Candles:       %d\n", r.Candles)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Parameters")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Take Profit:   %.2f%%\n", r.Config.TakeProfitPct)
	fmt.Fprintf(w, "Stop Loss:     %.2f%%\n", r.Config.StopLossPct)
	fmt.Fprintf(w, "Risk/Trade:    %.2f%%\n", r.Config.RiskPct)
	fmt.Fprintf(w, "Balance:       %.2f\n", r.Config.StartingBalance)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.Trades())
	fmt.Fprintf(w, "Wins:          %d\n", r.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.WinRate()*100)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", r.NetPL)
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.ReturnPct())
	if pf := r.ProfitFactor(); pf > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", pf)
	}

	if len(r.ClosedTrades) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Trades")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, t := range r.ClosedTrades {
			fmt.Fprintf(w, "%s  %10.4f -> %10.4f  %6d  %10.2f  %7.2f%%  %s\n",
				t.ExitTime.Format("2006-01-02"), t.EntryPrice, t.ExitPrice,
				t.Size, t.PnL, t.PnLPct, t.Reason)
		}
	}

	fmt.Fprintln(w)
}
