// Package feed loads historical price series from CSV files.
package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/momentum/market"
)

var (
	// ErrNotSorted is returned when timestamps do not strictly increase.
	ErrNotSorted = errors.New("feed: timestamps not strictly increasing")
	// ErrNoRows is returned when a file holds a header but no candles.
	ErrNoRows = errors.New("feed: no rows")
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CSVSeries streams candles from a CSV file with a header row:
//
//	date,open,high,low,close,volume
//
// Columns are found by name, case-insensitive. Only date and close are
// required. A "time" or "datetime" column is accepted in place of date.
// Rows outside [From, To) are skipped when the bounds are set.
type CSVSeries struct {
	f    *os.File
	r    *csv.Reader
	from time.Time
	to   time.Time
	cols columns
	line int
}

type columns struct {
	date, open, high, low, close, volume int
}

func NewCSVSeries(path string, from, to time.Time) (*CSVSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	s := &CSVSeries{f: f, r: r, from: from, to: to}
	if err := s.readHeader(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s *CSVSeries) Close() error {
	if s.f != nil {
		return s.f.Close()
	}
	return nil
}

func (s *CSVSeries) readHeader() error {
	row, err := s.r.Read()
	if err == io.EOF {
		return ErrNoRows
	}
	if err != nil {
		return err
	}
	s.line = 1

	s.cols = columns{-1, -1, -1, -1, -1, -1}
	for i, name := range row {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date", "time", "datetime", "timestamp":
			if s.cols.date < 0 {
				s.cols.date = i
			}
		case "open":
			s.cols.open = i
		case "high":
			s.cols.high = i
		case "low":
			s.cols.low = i
		case "close", "adj close":
			if s.cols.close < 0 {
				s.cols.close = i
			}
		case "volume":
			s.cols.volume = i
		}
	}

	if s.cols.date < 0 {
		return errors.New("missing date column")
	}
	if s.cols.close < 0 {
		return errors.New("missing close column")
	}
	return nil
}

// Next returns the next candle in range. ok is false at end of file.
func (s *CSVSeries) Next() (market.Candle, bool, error) {
	for {
		row, err := s.r.Read()
		if err == io.EOF {
			return market.Candle{}, false, nil
		}
		if err != nil {
			return market.Candle{}, false, err
		}
		s.line++
		if blank(row) {
			continue
		}

		c, err := s.parseRow(row)
		if err != nil {
			return market.Candle{}, false, fmt.Errorf("line %d: %w", s.line, err)
		}
		if !inRange(c.Time, s.from, s.to) {
			continue
		}
		return c, true, nil
	}
}

func (s *CSVSeries) parseRow(row []string) (market.Candle, error) {
	var c market.Candle

	ts := field(row, s.cols.date)
	if ts == "" {
		return c, errors.New("empty date")
	}
	t, err := parseTime(ts)
	if err != nil {
		return c, err
	}
	c.Time = t

	c.Close, err = parseFloat(row, s.cols.close, "close", true)
	if err != nil {
		return c, err
	}
	if c.Open, err = parseFloat(row, s.cols.open, "open", false); err != nil {
		return c, err
	}
	if c.High, err = parseFloat(row, s.cols.high, "high", false); err != nil {
		return c, err
	}
	if c.Low, err = parseFloat(row, s.cols.low, "low", false); err != nil {
		return c, err
	}
	if c.Volume, err = parseFloat(row, s.cols.volume, "volume", false); err != nil {
		return c, err
	}
	return c, nil
}

func parseTime(ts string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", ts)
}

func parseFloat(row []string, col int, name string, required bool) (float64, error) {
	v := field(row, col)
	if v == "" {
		if required {
			return 0, fmt.Errorf("empty %s", name)
		}
		return 0, nil
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q: %w", name, v, err)
	}
	return x, nil
}

func field(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

// Options narrows LoadCSV to a time window.
type Options struct {
	From time.Time
	To   time.Time
}

// LoadCSV reads a whole file into a Series. The result is guaranteed
// non-empty and strictly increasing in time.
func LoadCSV(path string, opts Options) (market.Series, error) {
	s, err := NewCSVSeries(path, opts.From, opts.To)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	var out market.Series
	for {
		c, ok, err := s.Next()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if !ok {
			break
		}
		out = append(out, c)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoRows)
	}
	if i, ok := out.Sorted(); !ok {
		return nil, fmt.Errorf("%s: row %d (%s): %w", path, i+1,
			out[i].Time.Format(time.RFC3339), ErrNotSorted)
	}
	return out, nil
}
