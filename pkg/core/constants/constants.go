// Package constants holds the physical, financial, and regulatory constant
// tables shared by the calculation stages, plus the pure lookup functions
// over them. No state lives here.
package constants

// =============================================================================
// ENERGY CONVERSION
// =============================================================================

const (
	// KBtuPerKWh converts electric energy to site thermal energy.
	KBtuPerKWh = 3.412
	// KBtuPerTherm converts therms of natural gas to kBtu.
	KBtuPerTherm = 100.0
	// KBtuPerMMBtu converts kBtu to MMBtu.
	KBtuPerMMBtu = 1000.0
)

// =============================================================================
// ANALYSIS WINDOW
// =============================================================================

const (
	// AnalysisStartYear is the first year of every projection series.
	AnalysisStartYear = 2024
	// AnalysisEndYear is the last year of every projection series.
	AnalysisEndYear = 2050
	// PaybackNotAchieved is the sentinel payback year used when cumulative
	// savings never reach the retrofit cost inside the analysis window.
	PaybackNotAchieved = -1
)

// =============================================================================
// UNIT ECONOMICS DEFAULTS (PTAC -> PTHP retrofit)
// =============================================================================

const (
	// DefaultUnitCost is the equipment cost per PTHP unit, USD.
	DefaultUnitCost = 1800.0
	// DefaultInstallCost is the installation labor per unit, USD.
	DefaultInstallCost = 1200.0
	// DefaultContingencyPct is the capital-cost contingency fraction.
	DefaultContingencyPct = 0.10
	// DefaultCOP is the heating coefficient of performance for a PTHP.
	DefaultCOP = 3.2
	// DefaultEER is the cooling efficiency shared by PTAC and PTHP chassis.
	DefaultEER = 10.8
	// DefaultBoilerEfficiency is the seasonal efficiency of the baseline
	// gas heating plant.
	DefaultBoilerEfficiency = 0.80
	// DefaultElectricityPrice is USD per kWh.
	DefaultElectricityPrice = 0.22
	// DefaultGasPrice is USD per therm.
	DefaultGasPrice = 1.95
	// DefaultHeatingCapacityKBtu is the heating capacity per unit, kBtu/h.
	DefaultHeatingCapacityKBtu = 8.0
	// DefaultCoolingCapacityKBtu is the cooling capacity per unit, kBtu/h.
	DefaultCoolingCapacityKBtu = 9.0
	// DefaultCoolingFullLoadHours is the annual cooling EFLH for NYC.
	DefaultCoolingFullLoadHours = 700.0
)

// =============================================================================
// FINANCING / VALUATION DEFAULTS
// =============================================================================

const (
	// DefaultLoanTermYears is the retrofit loan term.
	DefaultLoanTermYears = 15
	// DefaultLoanAnnualRate is the retrofit loan annual interest rate.
	DefaultLoanAnnualRate = 0.06
	// DefaultCapRate is the income capitalization rate for property value.
	DefaultCapRate = 0.04
	// DefaultSavingsStartYear is the first year energy savings accrue
	// (retrofit completion plus one).
	DefaultSavingsStartYear = 2026
	// DefaultFeesAssessedYear is the first year avoided LL97 fees count as
	// savings, independent of when energy savings start.
	DefaultFeesAssessedYear = 2026
	// DefaultUpgradeCompleteYear is the year the retrofit finishes; NOI
	// gains begin the following year.
	DefaultUpgradeCompleteYear = 2025
)

// =============================================================================
// NOI MARKET-RATE FALLBACK (per-sqft income & expense medians)
// =============================================================================

const (
	// MarketIncomePerSqft is the deterministic fallback annual income per
	// square foot used when no registry entry exists for a building.
	MarketIncomePerSqft = 32.00
	// MarketExpensePerSqft is the matching fallback annual operating
	// expense per square foot.
	MarketExpensePerSqft = 17.50
)
