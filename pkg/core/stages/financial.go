package stages

import (
	"context"

	"retrofit_valuation/pkg/core/calc"
	"retrofit_valuation/pkg/core/constants"
	"retrofit_valuation/pkg/core/service"
	"retrofit_valuation/pkg/core/store"
	"retrofit_valuation/pkg/models"
)

// FinancialOutput wraps the computed result with the loan terms that
// produced it, so the persisted record shows which terms were in effect.
type FinancialOutput struct {
	calc.FinancialResult
	LoanTermYears  int
	LoanAnnualRate float64
}

// FinancialService turns the energy and compliance outputs into fee
// avoidance, cumulative savings, simple payback, and loan amortization.
type FinancialService struct {
	store store.CalculationStore
}

// NewFinancialService creates the stage bound to a record store.
func NewFinancialService(s store.CalculationStore) *FinancialService {
	return &FinancialService{store: s}
}

func (s *FinancialService) Name() string    { return service.StageFinancial }
func (s *FinancialService) Version() string { return "1.2.0" }
func (s *FinancialService) Dependencies() []string {
	return []string{service.StageEnergy, service.StageEmissionsCompliance}
}

// BuildInput pulls the upstream outputs off the record and fills loan and
// timing parameters from defaults unless overridden.
func (s *FinancialService) BuildInput(ctx context.Context, record *models.CalculationRecord, overrides map[string]any) (any, map[string]any, error) {
	input := calc.FinancialInput{
		RetrofitCost:        record.EnergyRetrofitCost,
		AnnualEnergySavings: record.EnergyAnnualSavings,
		CurrentFees:         record.EmissionsCurrentFees,
		AdjustedFees:        record.EmissionsAdjustedFees,
		SavingsStartYear:    constants.DefaultSavingsStartYear,
		FeesAssessedYear:    constants.DefaultFeesAssessedYear,
		AnalysisStartYear:   constants.AnalysisStartYear,
		AnalysisEndYear:     constants.AnalysisEndYear,
		Loan: calc.LoanInput{
			Principal:  record.EnergyRetrofitCost,
			TermYears:  constants.DefaultLoanTermYears,
			AnnualRate: constants.DefaultLoanAnnualRate,
		},
	}

	applied := make(map[string]any)
	if v, ok := service.IntOverride(overrides, "loan_term_years"); ok {
		input.Loan.TermYears = v
		applied["loan_term_years"] = v
	}
	if v, ok := service.FloatOverride(overrides, "loan_annual_rate"); ok {
		input.Loan.AnnualRate = v
		applied["loan_annual_rate"] = v
	}
	if v, ok := service.IntOverride(overrides, "savings_start_year"); ok {
		input.SavingsStartYear = v
		applied["savings_start_year"] = v
	}
	if v, ok := service.IntOverride(overrides, "fees_assessed_year"); ok {
		input.FeesAssessedYear = v
		applied["fees_assessed_year"] = v
	}
	return input, applied, nil
}

// Validate rejects malformed upstream data and nonsensical loan terms.
// An unusual-but-legal rate only warns.
func (s *FinancialService) Validate(input any) service.ValidationResult {
	in, ok := input.(calc.FinancialInput)
	if !ok {
		var result service.ValidationResult
		result.AddError("input", "expected calc.FinancialInput")
		return result
	}

	result := service.ValidationResult{Valid: true}
	if in.RetrofitCost < 0 {
		result.AddError("retrofit_cost", "must not be negative")
	}
	if len(in.CurrentFees) != constants.NumCompliancePeriods {
		result.AddError("current_fees", "emissions stage output missing or malformed")
	}
	if len(in.AdjustedFees) != constants.NumFeeSubWindows {
		result.AddError("adjusted_fees", "emissions stage output missing or malformed")
	}
	if in.Loan.TermYears < 0 {
		result.AddError("loan_term_years", "must not be negative")
	}
	if in.Loan.AnnualRate < 0 {
		result.AddError("loan_annual_rate", "must not be negative")
	}
	if in.AnalysisStartYear > in.AnalysisEndYear {
		result.AddError("analysis_window", "start year is after end year")
	}

	if in.Loan.AnnualRate > 0.20 {
		result.AddWarning("loan_annual_rate", "above 20% is unusually high")
	}
	if in.Loan.TermYears > 40 {
		result.AddWarning("loan_term_years", "longer than typical retrofit financing")
	}
	if in.SavingsStartYear < in.AnalysisStartYear {
		result.AddWarning("savings_start_year", "before the analysis window; treated as the first year")
	}
	return result
}

// Compute runs the pure financial projection.
func (s *FinancialService) Compute(input any) (any, error) {
	in := input.(calc.FinancialInput)
	result, err := calc.ComputeFinancial(in)
	if err != nil {
		return nil, err
	}
	return FinancialOutput{
		FinancialResult: result,
		LoanTermYears:   in.Loan.TermYears,
		LoanAnnualRate:  in.Loan.AnnualRate,
	}, nil
}

// Persist writes the stage's published fields.
func (s *FinancialService) Persist(ctx context.Context, id string, output any) error {
	out := output.(FinancialOutput)
	return s.store.Update(ctx, id, map[string]any{
		"financial_fee_avoidance":      out.FeeAvoidance,
		"financial_cumulative_savings": out.CumulativeSavings,
		"financial_payback_year":       out.PaybackYear,
		"financial_loan_term_years":    out.LoanTermYears,
		"financial_loan_annual_rate":   out.LoanAnnualRate,
		"financial_monthly_payment":    out.Loan.MonthlyPayment,
		"financial_total_interest":     out.Loan.TotalInterest,
		"financial_loan_balances":      out.Loan.Balances,
	})
}
