// Package indicators provides technical analysis indicators over close
// price series. Every function returns a slice aligned with its input;
// positions inside the warmup window hold NaN.
package indicators

import (
	"fmt"
	"math"
)

// Kind names an indicator for lookups and display.
type Kind string

const (
	KindSMA Kind = "SMA"
	KindEMA Kind = "EMA"
	KindRSI Kind = "RSI"
)

// DefaultRSIPeriod is the lookback used when none is given.
const DefaultRSIPeriod = 14

// Compute dispatches to the indicator named by kind.
func Compute(kind Kind, values []float64, period int) ([]float64, error) {
	switch kind {
	case KindSMA:
		return SMA(values, period)
	case KindEMA:
		return EMA(values, period)
	case KindRSI:
		return RSI(values, period)
	}
	return nil, fmt.Errorf("unknown indicator %q", kind)
}

// Last returns the final non-NaN value and whether one exists.
func Last(values []float64) (float64, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) {
			return values[i], true
		}
	}
	return 0, false
}

func checkPeriod(period int) error {
	if period <= 0 {
		return fmt.Errorf("period must be positive, got %d", period)
	}
	return nil
}

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
