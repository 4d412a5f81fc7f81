package stages

import (
	"context"

	"retrofit_valuation/pkg/core/constants"
	"retrofit_valuation/pkg/core/service"
	"retrofit_valuation/pkg/core/store"
	"retrofit_valuation/pkg/core/valuation"
	"retrofit_valuation/pkg/models"
)

// PropertyValueOutput wraps the capitalized series with the rate used.
type PropertyValueOutput struct {
	valuation.PropertyValueResult
	CapRate float64
}

// PropertyValueService capitalizes the two NOI scenarios into property
// values and reports the retrofit's net gain.
type PropertyValueService struct {
	store store.CalculationStore
}

// NewPropertyValueService creates the stage bound to a record store.
func NewPropertyValueService(s store.CalculationStore) *PropertyValueService {
	return &PropertyValueService{store: s}
}

func (s *PropertyValueService) Name() string    { return service.StagePropertyValue }
func (s *PropertyValueService) Version() string { return "1.0.0" }
func (s *PropertyValueService) Dependencies() []string {
	return []string{service.StageNOI}
}

// BuildInput reads both NOI series and the cap rate override.
func (s *PropertyValueService) BuildInput(ctx context.Context, record *models.CalculationRecord, overrides map[string]any) (any, map[string]any, error) {
	input := valuation.PropertyValueInput{
		NoUpgradeNOI:   record.NOINoUpgrade,
		WithUpgradeNOI: record.NOIWithUpgrade,
		CapRate:        constants.DefaultCapRate,
	}

	applied := make(map[string]any)
	if v, ok := service.FloatOverride(overrides, "cap_rate"); ok {
		input.CapRate = v
		applied["cap_rate"] = v
	}
	return input, applied, nil
}

// Validate rejects a non-positive cap rate and missing NOI series.
func (s *PropertyValueService) Validate(input any) service.ValidationResult {
	in, ok := input.(valuation.PropertyValueInput)
	if !ok {
		var result service.ValidationResult
		result.AddError("input", "expected valuation.PropertyValueInput")
		return result
	}

	result := service.ValidationResult{Valid: true}
	if in.CapRate <= 0 {
		result.AddError("cap_rate", "must be positive")
	}
	if len(in.NoUpgradeNOI) == 0 || len(in.WithUpgradeNOI) == 0 {
		result.AddError("noi_series", "noi stage output missing")
	} else if len(in.NoUpgradeNOI) != len(in.WithUpgradeNOI) {
		result.AddError("noi_series", "scenario series lengths differ")
	}

	if in.CapRate > 0.20 {
		result.AddWarning("cap_rate", "above 20% is unusually high")
	}
	return result
}

// Compute runs the pure capitalization.
func (s *PropertyValueService) Compute(input any) (any, error) {
	in := input.(valuation.PropertyValueInput)
	result, err := valuation.ComputePropertyValue(in)
	if err != nil {
		return nil, err
	}
	return PropertyValueOutput{PropertyValueResult: result, CapRate: in.CapRate}, nil
}

// Persist writes the stage's published fields.
func (s *PropertyValueService) Persist(ctx context.Context, id string, output any) error {
	out := output.(PropertyValueOutput)
	return s.store.Update(ctx, id, map[string]any{
		"value_cap_rate":     out.CapRate,
		"value_no_upgrade":   out.NoUpgrade,
		"value_with_upgrade": out.WithUpgrade,
		"value_net_gain":     out.NetGain,
		"value_net_gain_min": out.NetGainMin,
	})
}
