package models

import (
	"time"
)

// BuildingInfo holds the raw source characteristics of a building, captured
// once at onboarding. These fields are inputs to the calculation stages and
// are never written by a stage persister.
type BuildingInfo struct {
	Name             string  `json:"name"`
	BBL              string  `json:"bbl"` // NYC Borough-Block-Lot identifier
	Address          string  `json:"address"`
	BuildingClass    string  `json:"building_class"` // e.g. "R6", "D4", "C1"
	BuildingType     string  `json:"building_type"`  // "cooperative", "condominium", "rental"
	ConstructionYear int     `json:"construction_year"`
	FloorCount       int     `json:"floor_count"`
	TotalSqft        float64 `json:"total_sqft"`
	// UseBreakdown maps a use type (e.g. "multifamily", "business") to its
	// square footage. Optional; when empty the whole building is treated as
	// one use derived from BuildingClass.
	UseBreakdown      map[string]float64 `json:"use_breakdown,omitempty"`
	BaselineEmissions float64            `json:"baseline_emissions"` // tCO2e per year
}

// UnitMix is the per-unit-type breakdown produced at onboarding (LLM
// inference, caller input, or the deterministic heuristic).
type UnitMix struct {
	Studio       int    `json:"studio"`
	OneBedroom   int    `json:"one_bedroom"`
	TwoBedroom   int    `json:"two_bedroom"`
	ThreeBedroom int    `json:"three_bedroom"`
	TotalUnits   int    `json:"total_units"`
	PTACUnits    int    `json:"ptac_units"`
	Source       string `json:"source"` // "llm", "manual", "heuristic"
}

// ServiceVersion marks one stage as computed. Presence of an entry in
// CalculationRecord.ServiceVersions is the operational definition of "this
// stage has run at least once since the last reset that touched it".
type ServiceVersion struct {
	Version    string    `json:"version"`
	ComputedAt time.Time `json:"computed_at"`
}

// OverrideEntry records one manually supplied input value, keyed by
// "<stage>.<field>" on the record. Overwrite-per-key; never read back by
// any computation.
type OverrideEntry struct {
	Value interface{} `json:"value"`
	At    time.Time   `json:"at"`
	Actor string      `json:"actor"`
}

// YearValue is one point of a year-by-year series (NOI, property value,
// cumulative savings). Series are kept whole because the front end charts
// them; no stage aggregates them back into period buckets.
type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// CalculationRecord is the single mutable aggregate for one building
// analysis, persisted as one JSON document keyed by ID. Each stage's
// persister writes only its own fields; the json tag is the field's
// addressable name in store.Update partial writes.
type CalculationRecord struct {
	ID        string       `json:"id"`
	Building  BuildingInfo `json:"building"`
	UnitMix   UnitMix      `json:"unit_mix"`
	CreatedAt time.Time    `json:"created_at"`

	// --- unit-breakdown outputs ---
	PTACUnits  int `json:"ptac_units"`
	TotalUnits int `json:"total_units"`

	// --- energy outputs ---
	EnergyEFLH            float64 `json:"energy_eflh"`
	EnergyHPHeatingKWh    float64 `json:"energy_hp_heating_kwh"`
	EnergyBaselineGasKBtu float64 `json:"energy_baseline_gas_kbtu"`
	EnergyCoolingKWh      float64 `json:"energy_cooling_kwh"`
	EnergyBaselineMMBtu   float64 `json:"energy_baseline_mmbtu"`
	EnergyHPMMBtu         float64 `json:"energy_hp_mmbtu"`
	EnergyReductionPct    float64 `json:"energy_reduction_pct"`
	EnergyBaselineCost    float64 `json:"energy_baseline_cost"`
	EnergyHPCost          float64 `json:"energy_hp_cost"`
	EnergyAnnualSavings   float64 `json:"energy_annual_savings"`
	EnergyRetrofitCost    float64 `json:"energy_retrofit_cost"`

	// --- emissions-compliance (LL97) outputs ---
	EmissionsCategory     string    `json:"emissions_category"`
	EmissionsBudgets      []float64 `json:"emissions_budgets"`       // one per compliance period
	EmissionsCurrentFees  []float64 `json:"emissions_current_fees"`  // one per compliance period
	EmissionsAdjusted     []float64 `json:"emissions_adjusted"`      // adjusted tCO2e per period
	EmissionsBECredits    []float64 `json:"emissions_be_credits"`    // one per fee sub-window
	EmissionsAdjustedFees []float64 `json:"emissions_adjusted_fees"` // one per fee sub-window

	// --- financial outputs ---
	FinancialFeeAvoidance      []float64   `json:"financial_fee_avoidance"` // one per fee sub-window
	FinancialCumulativeSavings []YearValue `json:"financial_cumulative_savings"`
	FinancialPaybackYear       int         `json:"financial_payback_year"` // -1 when not achieved
	FinancialLoanTermYears     int         `json:"financial_loan_term_years"`
	FinancialLoanAnnualRate    float64     `json:"financial_loan_annual_rate"`
	FinancialMonthlyPayment    float64     `json:"financial_monthly_payment"`
	FinancialTotalInterest     float64     `json:"financial_total_interest"`
	FinancialLoanBalances      []float64   `json:"financial_loan_balances"` // t=0..termYears

	// --- noi outputs ---
	NOIBaseline    float64     `json:"noi_baseline"`
	NOISource      string      `json:"noi_source"` // "override", "registry", "market-rate"
	NOINoUpgrade   []YearValue `json:"noi_no_upgrade"`
	NOIWithUpgrade []YearValue `json:"noi_with_upgrade"`

	// --- property-value outputs ---
	ValueCapRate     float64     `json:"value_cap_rate"`
	ValueNoUpgrade   []YearValue `json:"value_no_upgrade"`
	ValueWithUpgrade []YearValue `json:"value_with_upgrade"`
	ValueNetGain     float64     `json:"value_net_gain"`     // at the first analysis year
	ValueNetGainMin  float64     `json:"value_net_gain_min"` // conservative minimum across the window

	// ServiceVersions maps stage name -> freshness marker. Reset deletes
	// entries; it never erases the output fields above.
	ServiceVersions map[string]ServiceVersion `json:"service_versions"`

	// Overrides maps "<stage>.<field>" -> audit entry for every manually
	// overridden input. Traceability only.
	Overrides map[string]OverrideEntry `json:"overrides"`
}
