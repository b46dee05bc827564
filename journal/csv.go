package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/momentum/sim"
)

var csvHeader = []string{
	"trade_id", "run_id", "symbol",
	"entry_price", "entry_time", "exit_price", "exit_time",
	"size", "pnl", "pnl_pct", "reason",
}

// CSVJournal appends trade records to a CSV file. Rows already in the
// file (by trade_id) are skipped, so the same backtest can be re-run
// against one log.
type CSVJournal struct {
	mu   sync.Mutex
	w    *csv.Writer
	f    *os.File
	seen map[string]struct{}
}

func NewCSV(path string) (*CSVJournal, error) {
	existing, err := ReadTradesCSV(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	tf, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	info, err := tf.Stat()
	if err != nil {
		tf.Close()
		return nil, err
	}

	w := csv.NewWriter(tf)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			tf.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			tf.Close()
			return nil, err
		}
	}

	seen := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		seen[r.TradeID] = struct{}{}
	}

	return &CSVJournal{w: w, f: tf, seen: seen}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.seen[t.TradeID]; ok {
		return nil
	}
	if err := j.w.Write(tradeRow(t)); err != nil {
		return err
	}
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	j.seen[t.TradeID] = struct{}{}
	return nil
}

func (j *CSVJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.f.Close()
}

// WriteTradesCSV writes trades to a new file at path, replacing any
// previous contents.
func WriteTradesCSV(path string, trades []TradeRecord) error {
	tf, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(tf)
	if err := w.Write(csvHeader); err != nil {
		tf.Close()
		return err
	}
	for _, t := range trades {
		if err := w.Write(tradeRow(t)); err != nil {
			tf.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tf.Close()
		return err
	}
	return tf.Close()
}

// ReadTradesCSV reads every record from a trade log written by CSVJournal
// or WriteTradesCSV. An empty file yields no records.
func ReadTradesCSV(path string) ([]TradeRecord, error) {
	tf, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer tf.Close()

	r := csv.NewReader(tf)
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if strings.Join(header, ",") != strings.Join(csvHeader, ",") {
		return nil, fmt.Errorf("%s: unexpected header %q", path, strings.Join(header, ","))
	}

	var out []TradeRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		rec, err := parseTradeRow(row)
		if err != nil {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("%s: line %d: %w", path, line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func tradeRow(t TradeRecord) []string {
	return []string{
		t.TradeID,
		t.RunID,
		t.Symbol,
		f(t.EntryPrice),
		t.EntryTime.UTC().Format(time.RFC3339),
		f(t.ExitPrice),
		t.ExitTime.UTC().Format(time.RFC3339),
		strconv.Itoa(t.Size),
		f(t.PnL),
		strconv.FormatFloat(t.PnLPct, 'f', 2, 64),
		t.Reason,
	}
}

func parseTradeRow(row []string) (TradeRecord, error) {
	var (
		rec TradeRecord
		err error
	)
	if len(row) != len(csvHeader) {
		return rec, fmt.Errorf("want %d fields, got %d", len(csvHeader), len(row))
	}

	rec.TradeID, rec.RunID, rec.Symbol = row[0], row[1], row[2]

	reason, err := sim.ParseExitReason(row[10])
	if err != nil {
		return rec, err
	}
	rec.Reason = string(reason)

	if rec.EntryPrice, err = strconv.ParseFloat(row[3], 64); err != nil {
		return rec, fmt.Errorf("entry_price: %w", err)
	}
	if rec.EntryTime, err = time.Parse(time.RFC3339, row[4]); err != nil {
		return rec, fmt.Errorf("entry_time: %w", err)
	}
	if rec.ExitPrice, err = strconv.ParseFloat(row[5], 64); err != nil {
		return rec, fmt.Errorf("exit_price: %w", err)
	}
	if rec.ExitTime, err = time.Parse(time.RFC3339, row[6]); err != nil {
		return rec, fmt.Errorf("exit_time: %w", err)
	}
	if rec.Size, err = strconv.Atoi(row[7]); err != nil {
		return rec, fmt.Errorf("size: %w", err)
	}
	if rec.PnL, err = strconv.ParseFloat(row[8], 64); err != nil {
		return rec, fmt.Errorf("pnl: %w", err)
	}
	if rec.PnLPct, err = strconv.ParseFloat(row[9], 64); err != nil {
		return rec, fmt.Errorf("pnl_pct: %w", err)
	}
	return rec, nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
