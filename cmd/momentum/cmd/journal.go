package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/momentum/id"
	"github.com/rustyeddy/momentum/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query trade journal data",
	Long: `Query and display trade journal records.

Subcommands:
  trade  - Get details of a specific trade by ID
  symbol - List every trade for a symbol
  day    - List trades closed on a specific day
  run    - Export a backtest run and its trades as Org
  tail   - Show the most recent trades (CSV or SQLite)

Examples:
  momentum journal trade <trade-id> --db trades.sqlite
  momentum journal symbol AAPL --db trades.sqlite
  momentum journal day 2024-01-15 --db trades.sqlite
  momentum journal tail -n 10`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalSymbolCmd = &cobra.Command{
	Use:   "symbol <symbol>",
	Short: "List trades for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalSymbol,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day (UTC)",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalRunCmd = &cobra.Command{
	Use:   "run <run-id>",
	Short: "Export a backtest run as Org",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalRun,
}

var journalTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show the most recent trades",
	Args:  cobra.NoArgs,
	RunE:  runJournalTail,
}

var (
	journalDBPath string
	journalTailN  int
)

var errNeedSQLite = errors.New("journal queries need a SQLite journal (set journal.type: sqlite or pass --db)")

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalSymbolCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalRunCmd)
	journalCmd.AddCommand(journalTailCmd)

	journalCmd.PersistentFlags().StringVar(&journalDBPath, "db", "", "path to SQLite journal DB (overrides config)")
	journalTailCmd.Flags().IntVarP(&journalTailN, "count", "n", 10, "number of trades to show")
}

// sqlitePath resolves the DB to query, or "" when the journal is CSV.
func sqlitePath() string {
	if journalDBPath != "" {
		return journalDBPath
	}
	if cfg.Journal.Type == "sqlite" {
		return cfg.Journal.DBPath
	}
	return ""
}

func openSQLite() (*journal.SQLiteJournal, error) {
	path := sqlitePath()
	if path == "" {
		return nil, errNeedSQLite
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTrade(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
	return nil
}

func runJournalSymbol(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTradesBySymbol(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	printTradeTable(cmd.OutOrStdout(), recs)
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	start, end, err := dayBounds(time.UTC, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListTradesClosedBetween(cmd.Context(), start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
	return nil
}

func runJournalRun(cmd *cobra.Command, args []string) error {
	if _, err := id.Time(args[0]); err != nil {
		return fmt.Errorf("invalid run id %q: %w", args[0], err)
	}

	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	return j.ExportBacktestOrg(cmd.Context(), cmd.OutOrStdout(), args[0])
}

func runJournalTail(cmd *cobra.Command, args []string) error {
	recs, err := tailTrades(cmd, journalTailN)
	if err != nil {
		return err
	}
	printTradeTable(cmd.OutOrStdout(), recs)
	return nil
}

// tailTrades returns the last n rows of whichever journal is configured.
func tailTrades(cmd *cobra.Command, n int) ([]journal.TradeRecord, error) {
	if sqlitePath() != "" {
		j, err := openSQLite()
		if err != nil {
			return nil, err
		}
		defer j.Close()
		return j.Tail(cmd.Context(), n)
	}

	if cfg.Journal.Type != "csv" {
		return nil, fmt.Errorf("journal type %q has no trades to show", cfg.Journal.Type)
	}
	recs, err := journal.ReadTradesCSV(cfg.Journal.TradesFile)
	if err != nil {
		return nil, err
	}
	if len(recs) > n {
		recs = recs[len(recs)-n:]
	}
	return recs, nil
}

func printTradeTable(w io.Writer, recs []journal.TradeRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "no trades")
		return
	}
	fmt.Fprintf(w, "%-8s %-10s %-10s %10s %-10s %10s %6s %10s %8s  %s\n",
		"ID", "SYMBOL", "ENTRY", "PRICE", "EXIT", "PRICE", "SIZE", "PNL", "PNL%", "REASON")
	for _, r := range recs {
		short := r.TradeID
		if len(short) > 8 {
			short = short[:8]
		}
		fmt.Fprintf(w, "%-8s %-10s %-10s %10.4f %-10s %10.4f %6d %10.2f %8.2f  %s\n",
			short, r.Symbol,
			r.EntryTime.Format("2006-01-02"), r.EntryPrice,
			r.ExitTime.Format("2006-01-02"), r.ExitPrice,
			r.Size, r.PnL, r.PnLPct, r.Reason)
	}
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}
