package stages

import (
	"context"
	"fmt"

	"retrofit_valuation/pkg/core/constants"
	"retrofit_valuation/pkg/core/service"
	"retrofit_valuation/pkg/core/store"
	"retrofit_valuation/pkg/core/valuation"
	"retrofit_valuation/pkg/models"
)

// NOISourceOverride marks a caller-supplied baseline on the record.
const NOISourceOverride = "override"

// NOIStageInput is the projection input plus where the baseline came from.
type NOIStageInput struct {
	valuation.NOIInput
	Source string
}

// NOIOutput is what the stage publishes: the resolved baseline, its
// source, and both projected scenarios.
type NOIOutput struct {
	Baseline float64
	Source   string
	Series   valuation.NOIResult
}

// NOIService projects net operating income with and without the retrofit.
// The baseline comes from a caller override, the building-NOI registry, or
// the market-rate fallback, in that order.
type NOIService struct {
	store  store.CalculationStore
	lookup NOILookup
}

// NewNOIService creates the stage bound to a record store and a baseline
// lookup.
func NewNOIService(s store.CalculationStore, lookup NOILookup) *NOIService {
	return &NOIService{store: s, lookup: lookup}
}

func (s *NOIService) Name() string    { return service.StageNOI }
func (s *NOIService) Version() string { return "1.0.2" }
func (s *NOIService) Dependencies() []string {
	return []string{service.StageFinancial}
}

// BuildInput resolves the baseline NOI and pulls the upstream penalty
// schedules off the record. The registry fetch happens here, before the
// pure computation; an unreachable registry fails the stage outright.
func (s *NOIService) BuildInput(ctx context.Context, record *models.CalculationRecord, overrides map[string]any) (any, map[string]any, error) {
	input := NOIStageInput{
		NOIInput: valuation.NOIInput{
			AnnualEnergySavings: record.EnergyAnnualSavings,
			UpgradeCompleteYear: constants.DefaultUpgradeCompleteYear,
			CurrentFees:         record.EmissionsCurrentFees,
			AdjustedFees:        record.EmissionsAdjustedFees,
			AnalysisStartYear:   constants.AnalysisStartYear,
			AnalysisEndYear:     constants.AnalysisEndYear,
		},
	}

	applied := make(map[string]any)
	if v, ok := service.IntOverride(overrides, "upgrade_complete_year"); ok {
		input.UpgradeCompleteYear = v
		applied["upgrade_complete_year"] = v
	}

	if v, ok := service.FloatOverride(overrides, "baseline_noi"); ok {
		input.BaselineNOI = v
		input.Source = NOISourceOverride
		applied["baseline_noi"] = v
		return input, applied, nil
	}

	baseline, source, err := s.lookup.Lookup(ctx, record.Building.BuildingType, record.Building.TotalSqft)
	if err != nil {
		return nil, nil, fmt.Errorf("baseline NOI lookup: %w", err)
	}
	input.BaselineNOI = baseline
	input.Source = source
	return input, applied, nil
}

// Validate rejects a negative baseline and malformed upstream schedules.
func (s *NOIService) Validate(input any) service.ValidationResult {
	in, ok := input.(NOIStageInput)
	if !ok {
		var result service.ValidationResult
		result.AddError("input", "expected NOIStageInput")
		return result
	}

	result := service.ValidationResult{Valid: true}
	if in.BaselineNOI < 0 {
		result.AddError("baseline_noi", "must not be negative")
	}
	if len(in.CurrentFees) != constants.NumCompliancePeriods {
		result.AddError("current_fees", "emissions stage output missing or malformed")
	}
	if len(in.AdjustedFees) != constants.NumFeeSubWindows {
		result.AddError("adjusted_fees", "emissions stage output missing or malformed")
	}

	if in.BaselineNOI == 0 {
		result.AddWarning("baseline_noi", "zero baseline; the value series will be fee-driven only")
	}
	if in.UpgradeCompleteYear > in.AnalysisEndYear {
		result.AddWarning("upgrade_complete_year", "after the analysis window; savings never accrue")
	}
	return result
}

// Compute runs the pure projection.
func (s *NOIService) Compute(input any) (any, error) {
	in := input.(NOIStageInput)
	return NOIOutput{
		Baseline: in.BaselineNOI,
		Source:   in.Source,
		Series:   valuation.ComputeNOISeries(in.NOIInput),
	}, nil
}

// Persist writes the stage's published fields.
func (s *NOIService) Persist(ctx context.Context, id string, output any) error {
	out := output.(NOIOutput)
	return s.store.Update(ctx, id, map[string]any{
		"noi_baseline":     out.Baseline,
		"noi_source":       out.Source,
		"noi_no_upgrade":   out.Series.NoUpgrade,
		"noi_with_upgrade": out.Series.WithUpgrade,
	})
}
