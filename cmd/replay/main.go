// Binary replay prints the batch performance report for a daily close series
// and the share budget the live bot would trade with.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/analytics"
)

func main() {
	closesPath := flag.String("closes", "", "path to a date,close CSV")
	cashBalance := flag.Float64("cash", 10000, "cash balance used for the share budget")
	flag.Parse()

	_ = godotenv.Load() // best-effort

	if *closesPath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay -closes closes.csv [-cash 10000]")
		os.Exit(2)
	}

	closes, err := analytics.ReadCloseSeries(*closesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}

	report, err := analytics.Performance(closes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}

	latest := closes[len(closes)-1]
	fmt.Printf("Annualized Return:      %.4f\n", report.AnnualizedReturn)
	fmt.Printf("Annualized Volatility:  %.4f\n", report.AnnualizedVolatility)
	fmt.Printf("Sharpe Ratio:           %.4f\n", report.SharpeRatio)
	fmt.Printf("Sortino Ratio:          %.4f\n", report.SortinoRatio)
	fmt.Printf("Maximum Drawdown:       %.4f\n", report.MaxDrawdown)
	fmt.Printf("Latest Close:           %.2f\n", latest)
	fmt.Printf("Max Shares (cash %.0f): %d\n", *cashBalance, analytics.MaxShares(*cashBalance, latest))
}
