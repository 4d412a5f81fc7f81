package calc

import (
	"fmt"

	"retrofit_valuation/pkg/core/constants"
	"retrofit_valuation/pkg/models"
)

// FinancialInput combines the energy stage's cost/savings outputs with the
// emissions stage's penalty figures and the loan terms.
type FinancialInput struct {
	RetrofitCost        float64
	AnnualEnergySavings float64
	// CurrentFees holds one no-retrofit penalty per compliance period.
	CurrentFees []float64
	// AdjustedFees holds one post-retrofit penalty per fee sub-window.
	AdjustedFees []float64
	// SavingsStartYear is the first year energy savings accrue.
	SavingsStartYear int
	// FeesAssessedYear is the first year avoided fees count as savings;
	// avoidance never accrues before savings do.
	FeesAssessedYear  int
	AnalysisStartYear int
	AnalysisEndYear   int
	Loan              LoanInput
}

// FinancialResult holds the financial stage outputs.
type FinancialResult struct {
	// FeeAvoidance is currentFee(enclosing period) - adjustedFee, one per
	// fee sub-window.
	FeeAvoidance []float64
	// CumulativeSavings is the running total of energy savings plus fee
	// avoidance, one point per analysis year.
	CumulativeSavings []models.YearValue
	// PaybackYear is the first year cumulative savings reach the retrofit
	// cost, or constants.PaybackNotAchieved.
	PaybackYear int
	Loan        LoanResult
}

// ComputeFinancial derives fee avoidance, the cumulative savings series,
// the simple payback year, and the loan amortization.
func ComputeFinancial(input FinancialInput) (FinancialResult, error) {
	subWindows := constants.FeeSubWindows()
	if len(input.CurrentFees) != constants.NumCompliancePeriods {
		return FinancialResult{}, fmt.Errorf("expected %d current fees, got %d",
			constants.NumCompliancePeriods, len(input.CurrentFees))
	}
	if len(input.AdjustedFees) != len(subWindows) {
		return FinancialResult{}, fmt.Errorf("expected %d adjusted fees, got %d",
			len(subWindows), len(input.AdjustedFees))
	}

	// 1. Fee avoidance per sub-window, against the enclosing period's
	// current fee (both 2024-2026 and 2027-2029 compare to the 2024-2029
	// figure).
	avoidance := make([]float64, len(subWindows))
	for w, window := range subWindows {
		avoidance[w] = Round2(input.CurrentFees[window.PeriodIndex] - input.AdjustedFees[w])
	}

	// 2. Year-by-year cumulative savings. Energy savings gate on
	// SavingsStartYear; fee avoidance additionally gates on
	// FeesAssessedYear and contributes nothing outside the compliance
	// windows (2050 and later).
	feesFrom := input.FeesAssessedYear
	if input.SavingsStartYear > feesFrom {
		feesFrom = input.SavingsStartYear
	}

	var cumulative float64
	series := make([]models.YearValue, 0, input.AnalysisEndYear-input.AnalysisStartYear+1)
	paybackYear := constants.PaybackNotAchieved
	for year := input.AnalysisStartYear; year <= input.AnalysisEndYear; year++ {
		if year >= input.SavingsStartYear {
			cumulative += input.AnnualEnergySavings
		}
		if year >= feesFrom {
			if w, ok := constants.SubWindowIndexOf(year); ok {
				cumulative += avoidance[w]
			}
		}
		point := models.YearValue{Year: year, Value: Round2(cumulative)}
		series = append(series, point)

		// 3. Simple payback: first year the running total covers the cost
		if paybackYear == constants.PaybackNotAchieved && point.Value >= input.RetrofitCost {
			paybackYear = year
		}
	}

	return FinancialResult{
		FeeAvoidance:      avoidance,
		CumulativeSavings: series,
		PaybackYear:       paybackYear,
		Loan:              ComputeLoan(input.Loan),
	}, nil
}
