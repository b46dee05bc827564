package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var ErrTradeNotFound = errors.New("trade not found")

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(s rowScanner) (TradeRecord, error) {
	var rec TradeRecord
	err := s.Scan(
		&rec.TradeID,
		&rec.RunID,
		&rec.Symbol,
		&rec.EntryPrice,
		&rec.EntryTime,
		&rec.ExitPrice,
		&rec.ExitTime,
		&rec.Size,
		&rec.PnL,
		&rec.PnLPct,
		&rec.Reason,
	)
	return rec, err
}

// GetTrade returns a single trade record by ID.
func (j *SQLiteJournal) GetTrade(ctx context.Context, tradeID string) (TradeRecord, error) {
	q, args, err := psql.Select(tradeColumns...).
		From("trades").
		Where(sq.Eq{"trade_id": tradeID}).
		ToSql()
	if err != nil {
		return TradeRecord{}, err
	}

	rec, err := scanTrade(j.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %q: %w", tradeID, ErrTradeNotFound)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesBySymbol returns every trade for symbol ordered by exit time.
func (j *SQLiteJournal) ListTradesBySymbol(ctx context.Context, symbol string) ([]TradeRecord, error) {
	return j.listTrades(ctx, psql.Select(tradeColumns...).
		From("trades").
		Where(sq.Eq{"symbol": symbol}).
		OrderBy("exit_time ASC", "trade_id ASC"))
}

// ListTradesByRunID returns the trades first recorded by runID.
func (j *SQLiteJournal) ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error) {
	return j.listTrades(ctx, psql.Select(tradeColumns...).
		From("trades").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("exit_time ASC", "trade_id ASC"))
}

// ListTradesClosedBetween returns trades whose exit_time is within [start, end).
func (j *SQLiteJournal) ListTradesClosedBetween(ctx context.Context, start, end time.Time) ([]TradeRecord, error) {
	return j.listTrades(ctx, psql.Select(tradeColumns...).
		From("trades").
		Where(sq.GtOrEq{"exit_time": start.UTC()}).
		Where(sq.Lt{"exit_time": end.UTC()}).
		OrderBy("exit_time ASC", "trade_id ASC"))
}

// Tail returns the n most recently closed trades, oldest first.
func (j *SQLiteJournal) Tail(ctx context.Context, n int) ([]TradeRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	out, err := j.listTrades(ctx, psql.Select(tradeColumns...).
		From("trades").
		OrderBy("exit_time DESC", "trade_id DESC").
		Limit(uint64(n)))
	if err != nil {
		return nil, err
	}
	for i, k := 0, len(out)-1; i < k; i, k = i+1, k-1 {
		out[i], out[k] = out[k], out[i]
	}
	return out, nil
}

func (j *SQLiteJournal) listTrades(ctx context.Context, b sq.SelectBuilder) ([]TradeRecord, error) {
	q, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
