package stages

import (
	"context"

	"retrofit_valuation/pkg/core/calc"
	"retrofit_valuation/pkg/core/constants"
	"retrofit_valuation/pkg/core/service"
	"retrofit_valuation/pkg/core/store"
	"retrofit_valuation/pkg/models"
)

// EmissionsService computes the LL97 budgets, the no-retrofit penalties,
// and the post-retrofit adjusted penalties with the BE credit phase-out.
type EmissionsService struct {
	store store.CalculationStore
}

// NewEmissionsService creates the stage bound to a record store.
func NewEmissionsService(s store.CalculationStore) *EmissionsService {
	return &EmissionsService{store: s}
}

func (s *EmissionsService) Name() string    { return service.StageEmissionsCompliance }
func (s *EmissionsService) Version() string { return "1.3.0" }
func (s *EmissionsService) Dependencies() []string {
	return []string{service.StageEnergy}
}

// BuildInput reads the building's use profile and the energy stage's
// heating figures. The building class resolves to an emissions-limit
// category only when no explicit use breakdown exists; an unmapped class
// fails the build rather than defaulting, because a wrong category
// understates penalties.
func (s *EmissionsService) BuildInput(ctx context.Context, record *models.CalculationRecord, overrides map[string]any) (any, map[string]any, error) {
	input := calc.EmissionsInput{
		UseBreakdown:      record.Building.UseBreakdown,
		TotalSqft:         record.Building.TotalSqft,
		BaselineEmissions: record.Building.BaselineEmissions,
		BaselineGasKBtu:   record.EnergyBaselineGasKBtu,
		HPHeatingKWh:      record.EnergyHPHeatingKWh,
	}

	applied := make(map[string]any)
	buildingClass := record.Building.BuildingClass
	if v, ok := service.StringOverride(overrides, "building_class"); ok {
		buildingClass = v
		applied["building_class"] = v
	}
	if v, ok := service.FloatOverride(overrides, "baseline_emissions"); ok {
		input.BaselineEmissions = v
		applied["baseline_emissions"] = v
	}

	if len(input.UseBreakdown) == 0 {
		category, err := constants.CategoryForClass(buildingClass)
		if err != nil {
			return nil, nil, err
		}
		input.Category = category
	}
	return input, applied, nil
}

// Validate rejects impossible areas and emissions figures.
func (s *EmissionsService) Validate(input any) service.ValidationResult {
	in, ok := input.(calc.EmissionsInput)
	if !ok {
		var result service.ValidationResult
		result.AddError("input", "expected calc.EmissionsInput")
		return result
	}

	result := service.ValidationResult{Valid: true}
	if len(in.UseBreakdown) == 0 && in.TotalSqft <= 0 {
		result.AddError("total_sqft", "must be positive when no use breakdown is given")
	}
	for useType, sqft := range in.UseBreakdown {
		if sqft < 0 {
			result.AddError("use_breakdown."+useType, "square footage must not be negative")
		}
	}
	if in.BaselineEmissions < 0 {
		result.AddError("baseline_emissions", "must not be negative")
	}
	if in.BaselineEmissions == 0 {
		result.AddWarning("baseline_emissions", "zero baseline; penalties will all be zero")
	}
	return result
}

// Compute runs the pure LL97 evaluation. An unmapped use type surfaces
// here as a computation failure.
func (s *EmissionsService) Compute(input any) (any, error) {
	return calc.ComputeEmissions(input.(calc.EmissionsInput))
}

// Persist writes the stage's published fields.
func (s *EmissionsService) Persist(ctx context.Context, id string, output any) error {
	out := output.(calc.EmissionsResult)
	return s.store.Update(ctx, id, map[string]any{
		"emissions_category":      out.Category,
		"emissions_budgets":       out.Budgets,
		"emissions_current_fees":  out.CurrentFees,
		"emissions_adjusted":      out.Adjusted,
		"emissions_be_credits":    out.BECredits,
		"emissions_adjusted_fees": out.AdjustedFees,
	})
}
