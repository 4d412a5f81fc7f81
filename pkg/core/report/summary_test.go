package report

import (
	"strings"
	"testing"
	"time"

	"retrofit_valuation/pkg/core/service"
	"retrofit_valuation/pkg/models"
)

func computedRecord() *models.CalculationRecord {
	now := time.Now().UTC()
	versions := map[string]models.ServiceVersion{}
	for _, stage := range []string{
		service.StageUnitBreakdown,
		service.StageEnergy,
		service.StageEmissionsCompliance,
		service.StageFinancial,
		service.StageNOI,
		service.StagePropertyValue,
	} {
		versions[stage] = models.ServiceVersion{Version: "1.0.0", ComputedAt: now}
	}

	return &models.CalculationRecord{
		ID: "calc-1",
		Building: models.BuildingInfo{
			Name:              "Queensview Tower",
			BBL:               "4012340056",
			Address:           "21-10 33rd Rd, Queens, NY",
			BuildingClass:     "R6",
			BuildingType:      "cooperative",
			ConstructionYear:  1965,
			FloorCount:        12,
			TotalSqft:         100000,
			BaselineEmissions: 1250.5,
		},
		UnitMix: models.UnitMix{
			Studio: 20, OneBedroom: 45, TwoBedroom: 25, ThreeBedroom: 10,
			TotalUnits: 100, Source: "manual",
		},
		PTACUnits:  225,
		TotalUnits: 100,

		EnergyEFLH:            1020,
		EnergyHPHeatingKWh:    168490.62,
		EnergyBaselineGasKBtu: 2295000,
		EnergyCoolingKWh:      131250,
		EnergyBaselineMMBtu:   2295,
		EnergyHPMMBtu:         1022.8,
		EnergyReductionPct:    55.4,
		EnergyBaselineCost:    73627.5,
		EnergyHPCost:          65942.94,
		EnergyAnnualSavings:   7684.56,
		EnergyRetrofitCost:    742500,

		EmissionsCategory:     "multifamily",
		EmissionsBudgets:      []float64{892, 453, 227, 113},
		EmissionsCurrentFees:  []float64{96078, 213730, 274298, 304850},
		EmissionsAdjusted:     []float64{1108.1, 1132.9, 1234.3, 1234.3, 1234.3},
		EmissionsBECredits:    []float64{219.04, 109.52, 0, 0, 0},
		EmissionsAdjustedFees: []float64{37302.3, 66657.4, 182835.6, 243394.4, 273946.4},

		FinancialFeeAvoidance:   []float64{58775.7, 29420.6, 30894.4, 30903.6, 30903.6},
		FinancialPaybackYear:    2041,
		FinancialLoanTermYears:  15,
		FinancialLoanAnnualRate: 0.06,
		FinancialMonthlyPayment: 6266.07,
		FinancialTotalInterest:  385392.6,
		FinancialLoanBalances:   []float64{742500, 707000, 0},

		NOIBaseline: 1450000,
		NOISource:   "registry",
		NOINoUpgrade: []models.YearValue{
			{Year: 2024, Value: 1353922}, {Year: 2050, Value: 1450000},
		},
		NOIWithUpgrade: []models.YearValue{
			{Year: 2024, Value: 1412697.7}, {Year: 2050, Value: 1457684.56},
		},

		ValueCapRate: 0.04,
		ValueNoUpgrade: []models.YearValue{
			{Year: 2024, Value: 33848050}, {Year: 2050, Value: 36250000},
		},
		ValueWithUpgrade: []models.YearValue{
			{Year: 2024, Value: 35317442.5}, {Year: 2050, Value: 36442114},
		},
		ValueNetGain:    1469392.5,
		ValueNetGainMin: 192114,

		ServiceVersions: versions,
	}
}

func TestRenderFullRecord(t *testing.T) {
	md, err := Render(computedRecord())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for _, want := range []string{
		"# Retrofit Analysis: Queensview Tower",
		"- **Built:** 1965, 12 floors, 100,000 sqft",
		"## Unit Mix (manual)",
		"| 20 | 45 | 25 | 10 | 100 |",
		"PTAC fleet to replace: **225 units** across 100 apartments.",
		"## Energy",
		"- Retrofit cost: $742,500.00",
		"## LL97 Compliance (multifamily)",
		"| 2024-2029 | 892.0 | $96,078.00 |",
		"| 2024-2026 | 219.0 | $37,302.30 |",
		"## Financing",
		"- Payback: cumulative savings cover the retrofit in 2041",
		"## Net Operating Income",
		"- Baseline NOI: $1,450,000.00 (registry)",
		"## Property Value",
		"- Net gain from retrofit: **$1,469,392.50**",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected report to contain %q", want)
		}
	}
}

func TestRenderFreshRecord(t *testing.T) {
	record := computedRecord()
	record.ServiceVersions = nil

	md, err := Render(record)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(md, "# Retrofit Analysis: Queensview Tower") {
		t.Error("Expected the building header")
	}
	for _, section := range []string{"## Energy", "## LL97 Compliance", "## Financing", "## Net Operating Income", "## Property Value"} {
		if strings.Contains(md, section) {
			t.Errorf("Expected no %q section before stages run", section)
		}
	}
}

func TestRenderPaybackNotAchieved(t *testing.T) {
	record := computedRecord()
	record.FinancialPaybackYear = -1

	md, err := Render(record)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(md, "- Payback: not achieved within the analysis window") {
		t.Error("Expected the not-achieved payback line")
	}
}

func TestDollarFormatting(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{742500, "$742,500.00"},
		{96078, "$96,078.00"},
		{999, "$999.00"},
		{1234567.891, "$1,234,567.89"},
		{-12.5, "$-12.50"},
		{0, "$0.00"},
	}
	for _, tc := range cases {
		if got := dollars(tc.in); got != tc.want {
			t.Errorf("dollars(%v): expected %s, got %s", tc.in, tc.want, got)
		}
	}
	if got := groupThousands(100000); got != "100,000" {
		t.Errorf("groupThousands(100000): expected 100,000, got %s", got)
	}
}
