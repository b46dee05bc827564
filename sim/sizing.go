package sim

import "math"

// LotSize is the quantity every position is rounded up to.
const LotSize = 100

const maxUnits = 1e15

// PositionSize converts a risk budget into a quantity. riskPct is a percent
// of balance (1.0 = 1%). The result is always a positive multiple of
// LotSize; degenerate inputs are clamped rather than reported.
func PositionSize(entry, balance, riskPct float64) int {
	if math.IsNaN(entry) || entry <= 0 {
		return LotSize
	}
	if math.IsNaN(balance) || balance < 0 {
		balance = 0
	}
	if math.IsNaN(riskPct) || riskPct < 0 {
		riskPct = 0
	}

	riskAmount := balance * riskPct / 100.0
	raw := math.Max(riskAmount/entry, 1)
	if raw > maxUnits {
		raw = maxUnits
	}

	rounded := int(math.Ceil(raw/LotSize) * LotSize)
	if rounded < LotSize {
		return LotSize
	}
	return rounded
}
