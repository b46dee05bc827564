package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// BacktestRun mirrors the backtest_runs table.
type BacktestRun struct {
	RunID   string
	Created time.Time
	Symbol  string
	Dataset string

	// Simulator parameters
	EntryRule     string
	TakeProfitPct float64
	StopLossPct   float64
	RiskPct       float64
	StartBalance  float64
	CloseAtEnd    bool

	// Price range covered
	Start time.Time
	End   time.Time

	// Results
	Trades int
	Wins   int
	Losses int

	NetPL        float64
	ReturnPct    float64
	WinRate      float64 // 0..1
	ProfitFactor float64 // 0 when there are no losing trades

	Notes []string
}

var ErrRunNotFound = errors.New("backtest run not found")

var runColumns = []string{
	"run_id", "created", "symbol", "dataset",
	"entry_rule", "take_profit_pct", "stop_loss_pct", "risk_pct", "start_balance", "close_at_end",
	"start_time", "end_time",
	"trades", "wins", "losses",
	"net_pl", "return_pct", "win_rate", "profit_factor",
}

// RecordBacktest stores the summary of one run, replacing a previous row
// with the same run id.
func (j *SQLiteJournal) RecordBacktest(ctx context.Context, r BacktestRun) error {
	_, err := psql.Insert("backtest_runs").
		Options("OR REPLACE").
		Columns(runColumns...).
		Values(
			r.RunID, r.Created.UTC(), r.Symbol, r.Dataset,
			r.EntryRule, r.TakeProfitPct, r.StopLossPct, r.RiskPct, r.StartBalance, r.CloseAtEnd,
			r.Start.UTC(), r.End.UTC(),
			r.Trades, r.Wins, r.Losses,
			r.NetPL, r.ReturnPct, r.WinRate, r.ProfitFactor,
		).
		RunWith(j.db).
		ExecContext(ctx)
	return err
}

func (j *SQLiteJournal) GetBacktestRun(ctx context.Context, runID string) (BacktestRun, error) {
	q, args, err := psql.Select(runColumns...).
		From("backtest_runs").
		Where(sq.Eq{"run_id": runID}).
		ToSql()
	if err != nil {
		return BacktestRun{}, err
	}

	var r BacktestRun
	err = j.db.QueryRowContext(ctx, q, args...).Scan(
		&r.RunID, &r.Created, &r.Symbol, &r.Dataset,
		&r.EntryRule, &r.TakeProfitPct, &r.StopLossPct, &r.RiskPct, &r.StartBalance, &r.CloseAtEnd,
		&r.Start, &r.End,
		&r.Trades, &r.Wins, &r.Losses,
		&r.NetPL, &r.ReturnPct, &r.WinRate, &r.ProfitFactor,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BacktestRun{}, fmt.Errorf("run %q: %w", runID, ErrRunNotFound)
		}
		return BacktestRun{}, err
	}
	return r, nil
}

// ExportBacktestOrg loads a run and its trades and renders them as Org.
func (j *SQLiteJournal) ExportBacktestOrg(ctx context.Context, w io.Writer, runID string) error {
	run, err := j.GetBacktestRun(ctx, runID)
	if err != nil {
		return err
	}
	if err := run.WriteOrg(w); err != nil {
		return err
	}

	trades, err := j.ListTradesByRunID(ctx, runID)
	if err != nil {
		return err
	}
	if len(trades) == 0 {
		return nil
	}
	_, err = io.WriteString(w, "\n"+FormatTradesOrg(trades)+"\n")
	return err
}

var backtestOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var backtestOrg = template.Must(template.New("backtest").Funcs(backtestOrgFuncs).Parse(BacktestOrgTemplate))

// WriteOrg renders the run summary as an Org-mode heading.
func (r *BacktestRun) WriteOrg(w io.Writer) error {
	return backtestOrg.Execute(w, r)
}

// WriteOrgFile writes the Org summary to path.
func (r *BacktestRun) WriteOrgFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.WriteOrg(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

const BacktestOrgTemplate = `* BACKTEST: Momentum {{.Symbol}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:ENTRY_RULE:  {{.EntryRule}}
:SYMBOL:      {{.Symbol}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:START_BAL:   {{printf "%.2f" .StartBalance}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" (mul100 .WinRate)}}
:PROFIT_FAC:  {{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Parameters
| Parameter        | Value |
|------------------+-------|
| Take profit %    | {{printf "%.2f" .TakeProfitPct}} |
| Stop loss %      | {{printf "%.2f" .StopLossPct}} |
| Risk per trade % | {{printf "%.2f" .RiskPct}} |
| Close at end     | {{.CloseAtEnd}} |

** Performance Summary
- Net P/L:          *{{printf "%.2f" .NetPL}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Win Rate:         *{{printf "%.2f" (mul100 .WinRate)}}%*
- Profit Factor:    *{{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |
{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
