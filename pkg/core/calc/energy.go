package calc

import (
	"retrofit_valuation/pkg/core/constants"
)

// EnergyInput carries everything the energy stage needs: the PTAC fleet,
// the building attributes driving the EFLH lookup, and the unit economics.
// Every field is either filled from the record or from a named default in
// the constants package before Compute runs.
type EnergyInput struct {
	PTACUnits            int
	ConstructionYear     int
	FloorCount           int
	HeatingCapacityKBtu  float64 // per unit
	CoolingCapacityKBtu  float64 // per unit
	COP                  float64
	EER                  float64
	BoilerEfficiency     float64
	CoolingFullLoadHours float64
	ElectricityPrice     float64 // USD per kWh
	GasPrice             float64 // USD per therm
	UnitCost             float64 // USD per replacement unit
	InstallCost          float64 // USD per replacement unit
	ContingencyPct       float64 // fraction, e.g. 0.10
}

// EnergyResult holds the energy stage outputs, all rounded to 2 decimals.
type EnergyResult struct {
	EFLH            float64
	HPHeatingKWh    float64
	BaselineGasKBtu float64
	CoolingKWh      float64
	BaselineMMBtu   float64
	HPMMBtu         float64
	ReductionPct    float64
	BaselineCost    float64
	HPCost          float64
	AnnualSavings   float64
	RetrofitCost    float64
}

// ComputeEnergy converts the PTAC->PTHP retrofit into annual energy,
// capital cost, and dollar savings figures.
func ComputeEnergy(input EnergyInput) EnergyResult {
	units := float64(input.PTACUnits)

	// 1. Heating demand proxy by construction era and height
	eflh := constants.LookupEFLH(input.ConstructionYear, input.FloorCount)

	// 2. Heat-pump annual heating electricity
	// kWh = (capacity kBtu / 3.412) * (1/COP) * EFLH * units
	hpHeatingKWh := (input.HeatingCapacityKBtu / constants.KBtuPerKWh) * (1 / input.COP) * eflh * units

	// 3. Baseline gas heating input, degraded by boiler efficiency
	baselineGasKBtu := input.HeatingCapacityKBtu * eflh * units / input.BoilerEfficiency

	// 4. Cooling electricity, identical before and after (shared chassis)
	coolingKWh := input.CoolingCapacityKBtu / input.EER * input.CoolingFullLoadHours * units

	// 5. Total site energy, MMBtu, for both systems
	baselineMMBtu := baselineGasKBtu/constants.KBtuPerMMBtu + coolingKWh*constants.KBtuPerKWh/constants.KBtuPerMMBtu
	hpMMBtu := (hpHeatingKWh + coolingKWh) * constants.KBtuPerKWh / constants.KBtuPerMMBtu

	reductionPct := 0.0
	if baselineMMBtu > 0 {
		reductionPct = (baselineMMBtu - hpMMBtu) / baselineMMBtu * 100
	}

	// 6. Annual energy dollar cost: gas billed per therm, electricity per kWh
	baselineCost := baselineGasKBtu/constants.KBtuPerTherm*input.GasPrice + coolingKWh*input.ElectricityPrice
	hpCost := (hpHeatingKWh + coolingKWh) * input.ElectricityPrice

	// 7. Retrofit capital cost with contingency
	retrofitCost := (input.UnitCost + input.InstallCost) * units * (1 + input.ContingencyPct)

	return EnergyResult{
		EFLH:            eflh,
		HPHeatingKWh:    Round2(hpHeatingKWh),
		BaselineGasKBtu: Round2(baselineGasKBtu),
		CoolingKWh:      Round2(coolingKWh),
		BaselineMMBtu:   Round2(baselineMMBtu),
		HPMMBtu:         Round2(hpMMBtu),
		ReductionPct:    Round2(reductionPct),
		BaselineCost:    Round2(baselineCost),
		HPCost:          Round2(hpCost),
		AnnualSavings:   Round2(baselineCost - hpCost),
		RetrofitCost:    Round2(retrofitCost),
	}
}
