package market

import "time"

// Candle is one observation of a price series. Only Time and Close are
// required; the remaining OHLCV fields are carried through when the
// source provides them.
type Candle struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64

	Volume float64 // optional
}

// Series is a chronologically ordered run of candles for one symbol.
type Series []Candle

// Closes returns the close prices in series order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// Start returns the time of the first candle, or the zero time for an
// empty series.
func (s Series) Start() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[0].Time
}

// End returns the time of the last candle, or the zero time for an empty
// series.
func (s Series) End() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Time
}

// Sorted reports whether timestamps are strictly increasing. It returns
// the index of the first offending candle when they are not.
func (s Series) Sorted() (int, bool) {
	for i := 1; i < len(s); i++ {
		if !s[i].Time.After(s[i-1].Time) {
			return i, false
		}
	}
	return 0, true
}
