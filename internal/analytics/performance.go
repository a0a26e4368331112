// Package analytics computes batch performance statistics over a daily close
// series and derives the share budget the live strategy trades against.
package analytics

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

const tradingDays = 252

// Report aggregates the performance statistics for one close series.
type Report struct {
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	SharpeRatio          float64
	SortinoRatio         float64
	MaxDrawdown          float64
}

// ErrSeriesTooShort is returned when the series has fewer than two closes.
var ErrSeriesTooShort = errors.New("close series too short")

// Performance computes annualized return and volatility, Sharpe and Sortino
// ratios (risk-free rate of zero), and the maximum drawdown against a
// rolling one-year high.
func Performance(closes []float64) (Report, error) {
	if len(closes) < 2 {
		return Report{}, ErrSeriesTooShort
	}

	returns := dailyReturns(closes)
	annReturn := mean(returns) * tradingDays
	annVol := stddev(returns) * math.Sqrt(tradingDays)

	sharpe := math.NaN()
	if annVol != 0 {
		sharpe = annReturn / annVol
	}

	var negative []float64
	for _, r := range returns {
		if r < 0 {
			negative = append(negative, r)
		}
	}
	sortino := math.NaN()
	if semi := stddev(negative) * math.Sqrt(tradingDays); semi != 0 {
		sortino = annReturn / semi
	}

	return Report{
		AnnualizedReturn:     annReturn,
		AnnualizedVolatility: annVol,
		SharpeRatio:          sharpe,
		SortinoRatio:         sortino,
		MaxDrawdown:          maxDrawdown(closes),
	}, nil
}

// WinRate counts winning and losing closed trades and their ratio. Flat
// trades count toward the total but neither bucket.
func WinRate(trades []decimal.Decimal) (wins, losses int, rate float64) {
	for _, pnl := range trades {
		switch pnl.Sign() {
		case 1:
			wins++
		case -1:
			losses++
		}
	}
	if len(trades) > 0 {
		rate = float64(wins) / float64(len(trades))
	}
	return wins, losses, rate
}

// MaxShares converts a cash balance into the share budget at the latest close.
func MaxShares(cashBalance, latestClose float64) int64 {
	if latestClose <= 0 || cashBalance <= 0 {
		return 0
	}
	return int64(math.Floor(cashBalance / latestClose))
}

func dailyReturns(closes []float64) []float64 {
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	return returns
}

// maxDrawdown measures the deepest drop of each close against its rolling
// 252-day maximum.
func maxDrawdown(closes []float64) float64 {
	worst := 0.0
	for i, c := range closes {
		start := i - tradingDays + 1
		if start < 0 {
			start = 0
		}
		rollingMax := closes[start]
		for _, v := range closes[start : i+1] {
			if v > rollingMax {
				rollingMax = v
			}
		}
		if dd := c/rollingMax - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}
