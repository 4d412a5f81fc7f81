// Package calc implements the pure arithmetic behind the calculation
// stages: energy conversion, LL97 budget and penalty math, loan
// amortization, and the savings/payback projection. Every Compute function
// is deterministic and side-effect free; persisted currency and emissions
// values carry at most two decimal places.
package calc

import (
	"math"

	"retrofit_valuation/pkg/models"
)

// Round2 rounds to two decimal places, the precision of every persisted
// currency and emissions figure.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// roundSeries rounds every value of a year series in place and returns it.
func roundSeries(series []models.YearValue) []models.YearValue {
	for i := range series {
		series[i].Value = Round2(series[i].Value)
	}
	return series
}
