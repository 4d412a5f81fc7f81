package constants

import (
	"fmt"
	"strings"
)

// =============================================================================
// LL97 COMPLIANCE PERIODS
// =============================================================================

// CompliancePeriod is one LL97 enforcement window with its own emissions
// limits.
type CompliancePeriod struct {
	Label     string
	StartYear int
	EndYear   int
}

// compliancePeriods are the four fixed LL97 enforcement windows through 2049.
var compliancePeriods = [4]CompliancePeriod{
	{Label: "2024-2029", StartYear: 2024, EndYear: 2029},
	{Label: "2030-2034", StartYear: 2030, EndYear: 2034},
	{Label: "2035-2039", StartYear: 2035, EndYear: 2039},
	{Label: "2040-2049", StartYear: 2040, EndYear: 2049},
}

// CompliancePeriods returns the four LL97 periods in chronological order.
func CompliancePeriods() []CompliancePeriod {
	return compliancePeriods[:]
}

// NumCompliancePeriods is the number of LL97 enforcement windows.
const NumCompliancePeriods = len(compliancePeriods)

// PeriodIndexOf returns the index of the compliance period covering the
// given year, or false when the year falls outside every period.
func PeriodIndexOf(year int) (int, bool) {
	for i, p := range compliancePeriods {
		if year >= p.StartYear && year <= p.EndYear {
			return i, true
		}
	}
	return 0, false
}

// =============================================================================
// FEE SUB-WINDOWS (beneficial electrification credit phase-out)
// =============================================================================

// FeeSubWindow is one window over which the adjusted penalty is constant.
// The first compliance period splits in two because the BE credit rate
// drops at the start of 2027; later sub-windows coincide with the periods.
type FeeSubWindow struct {
	Label        string
	StartYear    int
	EndYear      int
	PeriodIndex  int     // enclosing compliance period
	BECreditRate float64 // tCO2e credited per kWh of heat-pump heating
}

var feeSubWindows = [5]FeeSubWindow{
	{Label: "2024-2026", StartYear: 2024, EndYear: 2026, PeriodIndex: 0, BECreditRate: 0.0013},
	{Label: "2027-2029", StartYear: 2027, EndYear: 2029, PeriodIndex: 0, BECreditRate: 0.00065},
	{Label: "2030-2034", StartYear: 2030, EndYear: 2034, PeriodIndex: 1, BECreditRate: 0},
	{Label: "2035-2039", StartYear: 2035, EndYear: 2039, PeriodIndex: 2, BECreditRate: 0},
	{Label: "2040-2049", StartYear: 2040, EndYear: 2049, PeriodIndex: 3, BECreditRate: 0},
}

// FeeSubWindows returns the five adjusted-fee sub-windows in order.
func FeeSubWindows() []FeeSubWindow {
	return feeSubWindows[:]
}

// NumFeeSubWindows is the number of adjusted-fee sub-windows.
const NumFeeSubWindows = len(feeSubWindows)

// SubWindowIndexOf returns the index of the fee sub-window covering the
// given year, or false when the year falls outside every window.
func SubWindowIndexOf(year int) (int, bool) {
	for i, w := range feeSubWindows {
		if year >= w.StartYear && year <= w.EndYear {
			return i, true
		}
	}
	return 0, false
}

// =============================================================================
// EMISSIONS FACTORS AND PENALTY RATE
// =============================================================================

const (
	// PenaltyRatePerTon is the LL97 fine in USD per tCO2e over the budget.
	PenaltyRatePerTon = 268.0
	// GridFactor2024 is the grid electricity emissions coefficient for the
	// 2024-2029 period, tCO2e per kWh.
	GridFactor2024 = 0.000288962
	// GridFactor2030 is the grid coefficient from 2030 on, reflecting
	// mandated grid decarbonization, tCO2e per kWh.
	GridFactor2030 = 0.000145
	// GasEmissionsFactorPerKBtu converts natural-gas site energy to
	// emissions, tCO2e per kBtu.
	GasEmissionsFactorPerKBtu = 0.00005311
)

// GridFactorForPeriod returns the grid electricity coefficient for a
// compliance period index.
func GridFactorForPeriod(periodIndex int) float64 {
	if periodIndex == 0 {
		return GridFactor2024
	}
	return GridFactor2030
}

// =============================================================================
// EMISSIONS LIMIT CATEGORIES
// =============================================================================

// Emissions-limit categories. The LL97 budget of a building is the sum of
// area x per-period limit over its use types.
const (
	CategoryMultifamily = "multifamily"
	CategoryBusiness    = "business"
	CategoryMercantile  = "mercantile"
	CategoryHotel       = "hotel"
	CategoryAssembly    = "assembly"
	CategoryEducational = "educational"
	CategoryFactory     = "factory"
	CategoryHealthcare  = "healthcare"
	CategoryStorage     = "storage"
)

// emissionsLimits maps a category to its per-period limit in tCO2e per sqft,
// one column per compliance period.
var emissionsLimits = map[string][4]float64{
	CategoryMultifamily: {0.00892, 0.00453, 0.00227, 0.00113},
	CategoryBusiness:    {0.00846, 0.00426, 0.00213, 0.00107},
	CategoryMercantile:  {0.01181, 0.00403, 0.00201, 0.00101},
	CategoryHotel:       {0.00987, 0.00526, 0.00263, 0.00132},
	CategoryAssembly:    {0.01074, 0.00420, 0.00210, 0.00105},
	CategoryEducational: {0.00758, 0.00344, 0.00172, 0.00086},
	CategoryFactory:     {0.00574, 0.00167, 0.00084, 0.00042},
	CategoryHealthcare:  {0.02381, 0.01193, 0.00597, 0.00298},
	CategoryStorage:     {0.00426, 0.00110, 0.00055, 0.00028},
}

// EmissionsLimit returns the tCO2e-per-sqft limit for a category in the
// given compliance period. An unknown category is an error, never a silent
// default: missing mappings understate penalties.
func EmissionsLimit(category string, periodIndex int) (float64, error) {
	limits, ok := emissionsLimits[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		return 0, fmt.Errorf("no emissions limit mapped for use type %q", category)
	}
	if periodIndex < 0 || periodIndex >= NumCompliancePeriods {
		return 0, fmt.Errorf("compliance period index %d out of range", periodIndex)
	}
	return limits[periodIndex], nil
}

// classCategories maps the leading letter of a NYC building class code to
// an emissions-limit category, used when no per-use-type breakdown exists.
var classCategories = map[byte]string{
	'A': CategoryMultifamily, // one-family dwellings
	'B': CategoryMultifamily, // two-family dwellings
	'C': CategoryMultifamily, // walk-up apartments
	'D': CategoryMultifamily, // elevator apartments
	'E': CategoryStorage,     // warehouses
	'F': CategoryFactory,     // factories
	'G': CategoryStorage,     // garages
	'H': CategoryHotel,       // hotels
	'I': CategoryHealthcare,  // hospitals and health facilities
	'J': CategoryAssembly,    // theaters
	'K': CategoryMercantile,  // store buildings
	'L': CategoryFactory,     // lofts
	'O': CategoryBusiness,    // office buildings
	'P': CategoryAssembly,    // places of public assembly
	'R': CategoryMultifamily, // condominiums
	'S': CategoryMultifamily, // residence over store
	'W': CategoryEducational, // educational structures
}

// CategoryForClass maps a NYC building class code (e.g. "R6", "D4") to its
// emissions-limit category. An unmapped class fails loudly for the same
// reason an unmapped use type does.
func CategoryForClass(buildingClass string) (string, error) {
	cls := strings.ToUpper(strings.TrimSpace(buildingClass))
	if cls == "" {
		return "", fmt.Errorf("building class is empty")
	}
	category, ok := classCategories[cls[0]]
	if !ok {
		return "", fmt.Errorf("no emissions category mapped for building class %q", buildingClass)
	}
	return category, nil
}
