// Package valuation holds the pure income and value algorithms for the
// NOI and property-value stages. Everything here takes plain numeric
// inputs and returns year series; registry lookups and record plumbing
// stay in the stage services.
package valuation

import (
	"retrofit_valuation/pkg/core/calc"
	"retrofit_valuation/pkg/core/constants"
	"retrofit_valuation/pkg/models"
)

// NOIInput holds the figures the NOI projection needs: the baseline income,
// the energy savings, and the penalty schedules from the compliance stage.
type NOIInput struct {
	BaselineNOI         float64
	AnnualEnergySavings float64
	// UpgradeCompleteYear gates the savings: they lift NOI starting the
	// year AFTER the retrofit finishes.
	UpgradeCompleteYear int
	// CurrentFees holds one no-retrofit penalty per compliance period.
	CurrentFees []float64
	// AdjustedFees holds one post-retrofit penalty per fee sub-window.
	AdjustedFees      []float64
	AnalysisStartYear int
	AnalysisEndYear   int
}

// NOIResult carries the two year-by-year NOI scenarios.
type NOIResult struct {
	NoUpgrade   []models.YearValue
	WithUpgrade []models.YearValue
}

// ComputeNOISeries projects NOI with and without the retrofit across the
// analysis window. Years past the last compliance period carry no penalty
// in either scenario.
func ComputeNOISeries(input NOIInput) NOIResult {
	numYears := input.AnalysisEndYear - input.AnalysisStartYear + 1
	if numYears < 0 {
		numYears = 0
	}
	noUpgrade := make([]models.YearValue, 0, numYears)
	withUpgrade := make([]models.YearValue, 0, numYears)

	for year := input.AnalysisStartYear; year <= input.AnalysisEndYear; year++ {
		// 1. No-upgrade scenario: baseline minus the period's penalty
		base := input.BaselineNOI
		if p, ok := constants.PeriodIndexOf(year); ok && p < len(input.CurrentFees) {
			base -= input.CurrentFees[p]
		}
		noUpgrade = append(noUpgrade, models.YearValue{Year: year, Value: calc.Round2(base)})

		// 2. With-upgrade scenario: savings lift NOI from the year after
		// completion, the reduced penalty comes from the fee sub-window
		upgraded := input.BaselineNOI
		if year > input.UpgradeCompleteYear {
			upgraded += input.AnnualEnergySavings
		}
		if w, ok := constants.SubWindowIndexOf(year); ok && w < len(input.AdjustedFees) {
			upgraded -= input.AdjustedFees[w]
		}
		withUpgrade = append(withUpgrade, models.YearValue{Year: year, Value: calc.Round2(upgraded)})
	}

	return NOIResult{NoUpgrade: noUpgrade, WithUpgrade: withUpgrade}
}

// MarketRateNOI is the fallback when the registry has no entry for the
// building: citywide per-sqft income and expense figures scaled by area.
func MarketRateNOI(totalSqft float64) float64 {
	return calc.Round2((constants.MarketIncomePerSqft - constants.MarketExpensePerSqft) * totalSqft)
}
