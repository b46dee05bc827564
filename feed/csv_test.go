package feed

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestLoadCSV(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, `date,open,high,low,close,volume
2024-01-01,9.5,10.2,9.4,10,1000
2024-01-02,10,11.1,9.9,11,1200

2024-01-03,11,12.5,10.8,12,900
`)

	s, err := LoadCSV(path, Options{})
	require.NoError(t, err)
	require.Len(t, s, 3)

	assert.Equal(t, []float64{10, 11, 12}, s.Closes())
	assert.Equal(t, day(1), s[0].Time)
	assert.Equal(t, 9.5, s[0].Open)
	assert.Equal(t, 10.2, s[0].High)
	assert.Equal(t, 9.4, s[0].Low)
	assert.Equal(t, 1000.0, s[0].Volume)
}

func TestLoadCSVColumnsByName(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, `Close, Date
101.5,2024-01-01 09:30:00
102.25,2024-01-01T09:31:00Z
`)

	s, err := LoadCSV(path, Options{})
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, 101.5, s[0].Close)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC), s[0].Time)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 31, 0, 0, time.UTC), s[1].Time)
	assert.Zero(t, s[0].Volume)
}

func TestLoadCSVRange(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, `date,close
2024-01-01,1
2024-01-02,2
2024-01-03,3
2024-01-04,4
`)

	s, err := LoadCSV(path, Options{From: day(2), To: day(4)})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, s.Closes())

	_, err = LoadCSV(path, Options{From: day(10)})
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestLoadCSVErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		target  error
		wantErr string
	}{
		{name: "empty file", body: "", target: ErrNoRows},
		{name: "header only", body: "date,close\n", target: ErrNoRows},
		{name: "unsorted", body: "date,close\n2024-01-02,1\n2024-01-01,2\n", target: ErrNotSorted},
		{name: "duplicate time", body: "date,close\n2024-01-01,1\n2024-01-01,2\n", target: ErrNotSorted},
		{name: "missing close column", body: "date,open\n2024-01-01,1\n", wantErr: "missing close column"},
		{name: "missing date column", body: "open,close\n1,1\n", wantErr: "missing date column"},
		{name: "bad date", body: "date,close\n01/02/2024,1\n", wantErr: "line 2: bad date"},
		{name: "bad close", body: "date,close\n2024-01-01,abc\n", wantErr: "bad close"},
		{name: "empty close", body: "date,close\n2024-01-01,\n", wantErr: "empty close"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadCSV(writeCSV(t, tt.body), Options{})
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestCSVSeriesNext(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "date,close\n2024-01-01,1\n2024-01-02,2\n")

	s, err := NewCSVSeries(path, time.Time{}, time.Time{})
	require.NoError(t, err)
	defer s.Close()

	c, ok, err := s.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1.0, c.Close)

	c, ok, err = s.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2.0, c.Close)

	_, ok, err = s.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewCSVSeriesMissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewCSVSeries(filepath.Join(t.TempDir(), "nope.csv"), time.Time{}, time.Time{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		t, from, to time.Time
		want        bool
	}{
		{day(5), time.Time{}, time.Time{}, true},
		{day(5), day(5), time.Time{}, true},
		{day(4), day(5), time.Time{}, false},
		{day(5), time.Time{}, day(5), false},
		{day(4), time.Time{}, day(5), true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inRange(tt.t, tt.from, tt.to), "t=%s", tt.t)
	}
}
