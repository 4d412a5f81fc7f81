package stages

import (
	"context"

	"retrofit_valuation/pkg/core/service"
	"retrofit_valuation/pkg/core/store"
	"retrofit_valuation/pkg/models"
)

// UnitBreakdownInput is the onboarded unit mix plus any overrides.
type UnitBreakdownInput struct {
	Studio       int
	OneBedroom   int
	TwoBedroom   int
	ThreeBedroom int
	// ExplicitPTAC, when positive, wins over the per-bedroom estimate.
	ExplicitPTAC int
}

// UnitBreakdownOutput is what the stage publishes: the apartment count and
// the PTAC fleet size every downstream stage keys off.
type UnitBreakdownOutput struct {
	TotalUnits int
	PTACUnits  int
}

// UnitBreakdownService derives the building's PTAC count from its unit
// mix. Rank 1: every other stage transitively depends on it.
type UnitBreakdownService struct {
	store store.CalculationStore
}

// NewUnitBreakdownService creates the stage bound to a record store.
func NewUnitBreakdownService(s store.CalculationStore) *UnitBreakdownService {
	return &UnitBreakdownService{store: s}
}

func (s *UnitBreakdownService) Name() string           { return service.StageUnitBreakdown }
func (s *UnitBreakdownService) Version() string        { return "1.1.0" }
func (s *UnitBreakdownService) Dependencies() []string { return nil }

// BuildInput reads the onboarded unit mix and merges overrides.
func (s *UnitBreakdownService) BuildInput(ctx context.Context, record *models.CalculationRecord, overrides map[string]any) (any, map[string]any, error) {
	input := UnitBreakdownInput{
		Studio:       record.UnitMix.Studio,
		OneBedroom:   record.UnitMix.OneBedroom,
		TwoBedroom:   record.UnitMix.TwoBedroom,
		ThreeBedroom: record.UnitMix.ThreeBedroom,
		ExplicitPTAC: record.UnitMix.PTACUnits,
	}

	applied := make(map[string]any)
	if v, ok := service.IntOverride(overrides, "studio"); ok {
		input.Studio = v
		applied["studio"] = v
	}
	if v, ok := service.IntOverride(overrides, "one_bedroom"); ok {
		input.OneBedroom = v
		applied["one_bedroom"] = v
	}
	if v, ok := service.IntOverride(overrides, "two_bedroom"); ok {
		input.TwoBedroom = v
		applied["two_bedroom"] = v
	}
	if v, ok := service.IntOverride(overrides, "three_bedroom"); ok {
		input.ThreeBedroom = v
		applied["three_bedroom"] = v
	}
	if v, ok := service.IntOverride(overrides, "ptac_units"); ok {
		input.ExplicitPTAC = v
		applied["ptac_units"] = v
	}
	return input, applied, nil
}

// Validate rejects negative counts; an all-zero mix is legal but suspicious.
func (s *UnitBreakdownService) Validate(input any) service.ValidationResult {
	in, ok := input.(UnitBreakdownInput)
	if !ok {
		var result service.ValidationResult
		result.AddError("input", "expected UnitBreakdownInput")
		return result
	}

	result := service.ValidationResult{Valid: true}
	counts := map[string]int{
		"studio":        in.Studio,
		"one_bedroom":   in.OneBedroom,
		"two_bedroom":   in.TwoBedroom,
		"three_bedroom": in.ThreeBedroom,
		"ptac_units":    in.ExplicitPTAC,
	}
	for field, count := range counts {
		if count < 0 {
			result.AddError(field, "must not be negative")
		}
	}
	if in.Studio+in.OneBedroom+in.TwoBedroom+in.ThreeBedroom+in.ExplicitPTAC == 0 {
		result.AddWarning("total_units", "unit mix is empty; downstream stages will compute zeros")
	}
	return result
}

// Compute totals the apartments and sizes the PTAC fleet. Without an
// explicit count, each apartment gets one unit per room: studios one,
// one-bedrooms two, and so on.
func (s *UnitBreakdownService) Compute(input any) (any, error) {
	in := input.(UnitBreakdownInput)

	total := in.Studio + in.OneBedroom + in.TwoBedroom + in.ThreeBedroom
	ptac := in.ExplicitPTAC
	if ptac <= 0 {
		ptac = in.Studio + 2*in.OneBedroom + 3*in.TwoBedroom + 4*in.ThreeBedroom
	}

	return UnitBreakdownOutput{TotalUnits: total, PTACUnits: ptac}, nil
}

// Persist writes the stage's published fields.
func (s *UnitBreakdownService) Persist(ctx context.Context, id string, output any) error {
	out := output.(UnitBreakdownOutput)
	return s.store.Update(ctx, id, map[string]any{
		"total_units": out.TotalUnits,
		"ptac_units":  out.PTACUnits,
	})
}
