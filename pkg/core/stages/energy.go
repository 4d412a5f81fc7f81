package stages

import (
	"context"

	"retrofit_valuation/pkg/core/calc"
	"retrofit_valuation/pkg/core/constants"
	"retrofit_valuation/pkg/core/service"
	"retrofit_valuation/pkg/core/store"
	"retrofit_valuation/pkg/models"
)

// EnergyService compares the PTAC baseline against the PTHP retrofit:
// annual energy for both systems, dollar savings, and the capital cost.
type EnergyService struct {
	store store.CalculationStore
}

// NewEnergyService creates the stage bound to a record store.
func NewEnergyService(s store.CalculationStore) *EnergyService {
	return &EnergyService{store: s}
}

func (s *EnergyService) Name() string    { return service.StageEnergy }
func (s *EnergyService) Version() string { return "2.0.1" }
func (s *EnergyService) Dependencies() []string {
	return []string{service.StageUnitBreakdown}
}

// BuildInput assembles the energy input from the record, filling every
// economic constant from its named default unless overridden.
func (s *EnergyService) BuildInput(ctx context.Context, record *models.CalculationRecord, overrides map[string]any) (any, map[string]any, error) {
	input := calc.EnergyInput{
		PTACUnits:            record.PTACUnits,
		ConstructionYear:     record.Building.ConstructionYear,
		FloorCount:           record.Building.FloorCount,
		HeatingCapacityKBtu:  constants.DefaultHeatingCapacityKBtu,
		CoolingCapacityKBtu:  constants.DefaultCoolingCapacityKBtu,
		COP:                  constants.DefaultCOP,
		EER:                  constants.DefaultEER,
		BoilerEfficiency:     constants.DefaultBoilerEfficiency,
		CoolingFullLoadHours: constants.DefaultCoolingFullLoadHours,
		ElectricityPrice:     constants.DefaultElectricityPrice,
		GasPrice:             constants.DefaultGasPrice,
		UnitCost:             constants.DefaultUnitCost,
		InstallCost:          constants.DefaultInstallCost,
		ContingencyPct:       constants.DefaultContingencyPct,
	}

	applied := make(map[string]any)
	floatFields := map[string]*float64{
		"unit_cost":             &input.UnitCost,
		"install_cost":          &input.InstallCost,
		"contingency_pct":       &input.ContingencyPct,
		"cop":                   &input.COP,
		"eer":                   &input.EER,
		"boiler_efficiency":     &input.BoilerEfficiency,
		"electricity_price":     &input.ElectricityPrice,
		"gas_price":             &input.GasPrice,
		"heating_capacity_kbtu": &input.HeatingCapacityKBtu,
		"cooling_capacity_kbtu": &input.CoolingCapacityKBtu,
	}
	for field, target := range floatFields {
		if v, ok := service.FloatOverride(overrides, field); ok {
			*target = v
			applied[field] = v
		}
	}
	return input, applied, nil
}

// Validate rejects out-of-domain physics and pricing inputs.
func (s *EnergyService) Validate(input any) service.ValidationResult {
	in, ok := input.(calc.EnergyInput)
	if !ok {
		var result service.ValidationResult
		result.AddError("input", "expected calc.EnergyInput")
		return result
	}

	result := service.ValidationResult{Valid: true}
	if in.PTACUnits < 0 {
		result.AddError("ptac_units", "must not be negative")
	}
	if in.COP <= 0 {
		result.AddError("cop", "must be positive")
	}
	if in.EER <= 0 {
		result.AddError("eer", "must be positive")
	}
	if in.BoilerEfficiency <= 0 || in.BoilerEfficiency > 1 {
		result.AddError("boiler_efficiency", "must be in (0, 1]")
	}
	if in.ElectricityPrice < 0 {
		result.AddError("electricity_price", "must not be negative")
	}
	if in.GasPrice < 0 {
		result.AddError("gas_price", "must not be negative")
	}
	if in.UnitCost < 0 {
		result.AddError("unit_cost", "must not be negative")
	}
	if in.InstallCost < 0 {
		result.AddError("install_cost", "must not be negative")
	}
	if in.ContingencyPct < 0 {
		result.AddError("contingency_pct", "must not be negative")
	}

	if in.ConstructionYear <= 0 {
		result.AddWarning("construction_year", "missing; treated as pre-1939 construction")
	}
	if in.ContingencyPct > 0.5 {
		result.AddWarning("contingency_pct", "over 50% is unusually high")
	}
	if in.COP > 6 {
		result.AddWarning("cop", "above realistic PTHP range")
	}
	return result
}

// Compute runs the pure energy comparison.
func (s *EnergyService) Compute(input any) (any, error) {
	return calc.ComputeEnergy(input.(calc.EnergyInput)), nil
}

// Persist writes the stage's published fields.
func (s *EnergyService) Persist(ctx context.Context, id string, output any) error {
	out := output.(calc.EnergyResult)
	return s.store.Update(ctx, id, map[string]any{
		"energy_eflh":              out.EFLH,
		"energy_hp_heating_kwh":    out.HPHeatingKWh,
		"energy_baseline_gas_kbtu": out.BaselineGasKBtu,
		"energy_cooling_kwh":       out.CoolingKWh,
		"energy_baseline_mmbtu":    out.BaselineMMBtu,
		"energy_hp_mmbtu":          out.HPMMBtu,
		"energy_reduction_pct":     out.ReductionPct,
		"energy_baseline_cost":     out.BaselineCost,
		"energy_hp_cost":           out.HPCost,
		"energy_annual_savings":    out.AnnualSavings,
		"energy_retrofit_cost":     out.RetrofitCost,
	})
}
