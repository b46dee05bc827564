package indicators

// SMA is the rolling mean of the last period values. The first period-1
// outputs are NaN.
func SMA(values []float64, period int) ([]float64, error) {
	if err := checkPeriod(period); err != nil {
		return nil, err
	}

	out := nans(len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out, nil
}

// EMA is the exponential moving average with alpha = 2/(period+1), seeded
// with the first value so every position has a value.
func EMA(values []float64, period int) ([]float64, error) {
	if err := checkPeriod(period); err != nil {
		return nil, err
	}

	out := make([]float64, len(values))
	if len(values) == 0 {
		return out, nil
	}

	multiplier := 2.0 / float64(period+1)
	ema := values[0]
	out[0] = ema
	for i := 1; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out[i] = ema
	}
	return out, nil
}
