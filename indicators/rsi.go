package indicators

// rsiEpsilon keeps a window with no losses from dividing by zero; such a
// window reads close to 100.
const rsiEpsilon = 1e-10

// RSI is the Relative Strength Index using simple rolling means of gains
// and losses. The first position has no prior close and counts as a zero
// change, so the first period-1 outputs are NaN.
func RSI(values []float64, period int) ([]float64, error) {
	if err := checkPeriod(period); err != nil {
		return nil, err
	}

	out := nans(len(values))
	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	var gainSum, lossSum float64
	for i := range values {
		gainSum += gains[i]
		lossSum += losses[i]
		if i >= period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i >= period-1 {
			avgGain := gainSum / float64(period)
			avgLoss := lossSum / float64(period)
			rs := avgGain / (avgLoss + rsiEpsilon)
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out, nil
}
