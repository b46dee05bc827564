package cmd

import (
	"fmt"
	"math"

	"github.com/rustyeddy/momentum/feed"
	"github.com/rustyeddy/momentum/indicators"
	"github.com/spf13/cobra"
)

var indicatorsCmd = &cobra.Command{
	Use:   "indicators",
	Short: "Print SMA, EMA and RSI for a price series",
	Long: `Indicators loads a CSV price series and prints the last rows with their
moving averages and RSI. The simulator does not use these values.

Example:
  momentum indicators -f data/AAPL.csv --sma 20 --ema 20 --rsi 14 -n 15`,
	Args: cobra.NoArgs,
	RunE: runIndicators,
}

var (
	indFile string
	indSMA  int
	indEMA  int
	indRSI  int
	indRows int
)

func init() {
	rootCmd.AddCommand(indicatorsCmd)

	indicatorsCmd.Flags().StringVarP(&indFile, "file", "f", "", "path to price CSV (required)")
	indicatorsCmd.Flags().IntVar(&indSMA, "sma", 20, "SMA period")
	indicatorsCmd.Flags().IntVar(&indEMA, "ema", 20, "EMA period")
	indicatorsCmd.Flags().IntVar(&indRSI, "rsi", indicators.DefaultRSIPeriod, "RSI period")
	indicatorsCmd.Flags().IntVarP(&indRows, "rows", "n", 10, "rows to print from the end")

	indicatorsCmd.MarkFlagRequired("file")
}

func runIndicators(cmd *cobra.Command, args []string) error {
	series, err := feed.LoadCSV(indFile, feed.Options{})
	if err != nil {
		return err
	}
	closes := series.Closes()

	sma, err := indicators.Compute(indicators.KindSMA, closes, indSMA)
	if err != nil {
		return fmt.Errorf("sma: %w", err)
	}
	ema, err := indicators.Compute(indicators.KindEMA, closes, indEMA)
	if err != nil {
		return fmt.Errorf("ema: %w", err)
	}
	rsi, err := indicators.Compute(indicators.KindRSI, closes, indRSI)
	if err != nil {
		return fmt.Errorf("rsi: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-10s %12s %12s %12s %8s\n", "DATE", "CLOSE",
		fmt.Sprintf("SMA(%d)", indSMA), fmt.Sprintf("EMA(%d)", indEMA), fmt.Sprintf("RSI(%d)", indRSI))

	start := len(series) - indRows
	if start < 0 || indRows <= 0 {
		start = 0
	}
	for i := start; i < len(series); i++ {
		fmt.Fprintf(out, "%-10s %12.4f %12s %12s %8s\n",
			series[i].Time.Format("2006-01-02"), closes[i],
			cell(sma[i], 4), cell(ema[i], 4), cell(rsi[i], 2))
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Latest: SMA(%d) %s  EMA(%d) %s  RSI(%d) %s\n",
		indSMA, latest(sma, 4), indEMA, latest(ema, 4), indRSI, latest(rsi, 2))
	return nil
}

// latest formats the last defined value, or "-" when the series is shorter
// than the period.
func latest(values []float64, prec int) string {
	v, ok := indicators.Last(values)
	if !ok {
		return "-"
	}
	return cell(v, prec)
}

func cell(x float64, prec int) string {
	if math.IsNaN(x) {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, x)
}
