package journal

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

var tradeColumns = []string{
	"trade_id", "run_id", "symbol",
	"entry_price", "entry_time", "exit_price", "exit_time",
	"size", "pnl", "pnl_pct", "reason",
}

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers; one connection avoids "database is locked"
	// when a batch records from several goroutines.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

// RecordTrade inserts t unless a row with the same trade_id exists.
func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := psql.Insert("trades").
		Options("OR IGNORE").
		Columns(tradeColumns...).
		Values(
			t.TradeID, t.RunID, t.Symbol,
			t.EntryPrice, t.EntryTime.UTC(), t.ExitPrice, t.ExitTime.UTC(),
			t.Size, t.PnL, t.PnLPct, t.Reason,
		).
		RunWith(j.db).
		Exec()
	return err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
