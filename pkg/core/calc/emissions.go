package calc

import (
	"fmt"
	"math"
	"sort"

	"retrofit_valuation/pkg/core/constants"
)

// EmissionsInput carries the LL97 compliance inputs: the building's use
// profile, its measured baseline emissions, and the heating energy shifted
// by the retrofit (gas removed, grid electricity added).
type EmissionsInput struct {
	// Category is the building-class-derived emissions-limit category,
	// used when UseBreakdown is empty.
	Category string
	// UseBreakdown optionally maps use type -> sqft for mixed-use budgets.
	UseBreakdown map[string]float64
	// TotalSqft is the whole-building area for the single-category path.
	TotalSqft         float64
	BaselineEmissions float64 // tCO2e per year, pre-retrofit
	BaselineGasKBtu   float64 // annual gas heating input removed
	HPHeatingKWh      float64 // annual heat-pump heating electricity added
}

// EmissionsResult holds the LL97 outputs: four per-period figures and five
// per-sub-window figures (the 2024-2029 period splits at 2027 because the
// beneficial electrification credit rate drops there).
type EmissionsResult struct {
	Category     string
	Budgets      []float64 // tCO2e per compliance period
	CurrentFees  []float64 // USD per year, no retrofit
	Adjusted     []float64 // tCO2e per compliance period, post-retrofit
	BECredits    []float64 // tCO2e per fee sub-window
	AdjustedFees []float64 // USD per year per fee sub-window
}

// ComputeEmissions evaluates the LL97 budget, current penalty, and
// post-retrofit adjusted penalty across every compliance window. An
// unmapped use type or building class is an error: a silent default would
// understate penalties.
func ComputeEmissions(input EmissionsInput) (EmissionsResult, error) {
	periods := constants.CompliancePeriods()
	subWindows := constants.FeeSubWindows()

	result := EmissionsResult{
		Category:     input.Category,
		Budgets:      make([]float64, len(periods)),
		CurrentFees:  make([]float64, len(periods)),
		Adjusted:     make([]float64, len(periods)),
		BECredits:    make([]float64, len(subWindows)),
		AdjustedFees: make([]float64, len(subWindows)),
	}

	for p := range periods {
		// 1. Emissions budget: sum of area x per-period limit over use types
		budget, err := budgetForPeriod(input, p)
		if err != nil {
			return EmissionsResult{}, err
		}

		// 2. Current (no-retrofit) penalty, clamped at zero
		currentFee := math.Max(0, (input.BaselineEmissions-budget)*constants.PenaltyRatePerTon)

		// 3. Adjusted emissions: gas heating removed, grid electricity added
		adjusted := input.BaselineEmissions -
			input.BaselineGasKBtu*constants.GasEmissionsFactorPerKBtu +
			input.HPHeatingKWh*constants.GridFactorForPeriod(p)

		result.Budgets[p] = Round2(budget)
		result.CurrentFees[p] = Round2(currentFee)
		result.Adjusted[p] = Round2(adjusted)
	}

	// 4. Adjusted penalty per sub-window, with the time-limited BE credit
	for w, window := range subWindows {
		credit := input.HPHeatingKWh * window.BECreditRate
		budget := result.Budgets[window.PeriodIndex]
		adjusted := result.Adjusted[window.PeriodIndex]
		fee := math.Max(0, (adjusted-credit-budget)*constants.PenaltyRatePerTon)

		result.BECredits[w] = Round2(credit)
		result.AdjustedFees[w] = Round2(fee)
	}

	return result, nil
}

// budgetForPeriod sums area x limit over the building's use profile for
// one compliance period, preferring the explicit breakdown when present.
func budgetForPeriod(input EmissionsInput, periodIndex int) (float64, error) {
	if len(input.UseBreakdown) > 0 {
		// Sorted keys keep the float sum deterministic across runs.
		useTypes := make([]string, 0, len(input.UseBreakdown))
		for useType := range input.UseBreakdown {
			useTypes = append(useTypes, useType)
		}
		sort.Strings(useTypes)

		var budget float64
		for _, useType := range useTypes {
			limit, err := constants.EmissionsLimit(useType, periodIndex)
			if err != nil {
				return 0, fmt.Errorf("use breakdown: %w", err)
			}
			budget += input.UseBreakdown[useType] * limit
		}
		return budget, nil
	}

	limit, err := constants.EmissionsLimit(input.Category, periodIndex)
	if err != nil {
		return 0, err
	}
	return input.TotalSqft * limit, nil
}
