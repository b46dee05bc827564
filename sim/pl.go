package sim

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// exactDigits is enough fractional digits to write any float64 exactly.
const exactDigits = 1074

// PnLPercent returns the percentage change from entry to exit rounded to two
// decimals, half to even on the exact binary value. A zero (or NaN) entry
// price yields 0.
func PnLPercent(entry, exit float64) float64 {
	if entry == 0 || math.IsNaN(entry) {
		return 0
	}
	pct := (exit - entry) / entry * 100.0
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return pct
	}
	return round2(pct)
}

// round2 expands x to its exact decimal value before rounding. The shortest
// form of 2.964999999999999857... is "2.965", which would round to 2.97.
func round2(x float64) float64 {
	exact := new(big.Float).SetFloat64(x).Text('f', exactDigits)
	return decimal.RequireFromString(exact).RoundBank(2).InexactFloat64()
}

// UnrealizedPL is the absolute profit of size units marked at price.
func UnrealizedPL(entry, price float64, size int) float64 {
	return (price - entry) * float64(size)
}
