// Package report renders calculation records as markdown, shared by the
// HTTP summary endpoint and the CLI runner.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"retrofit_valuation/pkg/core/constants"
	"retrofit_valuation/pkg/core/service"
	"retrofit_valuation/pkg/core/utils"
	"retrofit_valuation/pkg/models"
)

// Render builds a markdown report for a calculation record. Stage sections
// appear only for stages that have computed; a freshly onboarded record
// renders just the building and unit mix. The output is validated as
// parseable markdown before it is returned.
func Render(record *models.CalculationRecord) (string, error) {
	var sb strings.Builder

	b := record.Building
	sb.WriteString(fmt.Sprintf("# Retrofit Analysis: %s\n\n", b.Name))
	if b.Address != "" {
		sb.WriteString(fmt.Sprintf("- **Address:** %s\n", b.Address))
	}
	if b.BBL != "" {
		sb.WriteString(fmt.Sprintf("- **BBL:** %s\n", b.BBL))
	}
	sb.WriteString(fmt.Sprintf("- **Class:** %s (%s)\n", b.BuildingClass, b.BuildingType))
	sb.WriteString(fmt.Sprintf("- **Built:** %d, %d floors, %s sqft\n", b.ConstructionYear, b.FloorCount, groupThousands(b.TotalSqft)))
	sb.WriteString(fmt.Sprintf("- **Baseline emissions:** %.1f tCO2e/yr\n", b.BaselineEmissions))

	mix := record.UnitMix
	sb.WriteString(fmt.Sprintf("\n## Unit Mix (%s)\n\n", mix.Source))
	sb.WriteString("| Studio | 1BR | 2BR | 3BR | Total |\n")
	sb.WriteString("|--------|-----|-----|-----|-------|\n")
	sb.WriteString(fmt.Sprintf("| %d | %d | %d | %d | %d |\n",
		mix.Studio, mix.OneBedroom, mix.TwoBedroom, mix.ThreeBedroom, mix.TotalUnits))

	computed := func(stage string) bool {
		_, ok := record.ServiceVersions[stage]
		return ok
	}

	if computed(service.StageUnitBreakdown) {
		sb.WriteString(fmt.Sprintf("\nPTAC fleet to replace: **%d units** across %d apartments.\n",
			record.PTACUnits, record.TotalUnits))
	}

	if computed(service.StageEnergy) {
		sb.WriteString("\n## Energy\n\n")
		sb.WriteString(fmt.Sprintf("- Heating load hours (EFLH): %.0f\n", record.EnergyEFLH))
		sb.WriteString(fmt.Sprintf("- Heat-pump heating: %s kWh/yr (replaces %s kBtu of gas)\n",
			groupThousands(record.EnergyHPHeatingKWh), groupThousands(record.EnergyBaselineGasKBtu)))
		sb.WriteString(fmt.Sprintf("- Cooling: %s kWh/yr\n", groupThousands(record.EnergyCoolingKWh)))
		sb.WriteString(fmt.Sprintf("- Site energy: %.1f MMBtu baseline vs %.1f MMBtu with heat pumps (%.1f%% reduction)\n",
			record.EnergyBaselineMMBtu, record.EnergyHPMMBtu, record.EnergyReductionPct))
		sb.WriteString(fmt.Sprintf("- Annual utility cost: %s baseline vs %s with heat pumps (saves %s/yr)\n",
			dollars(record.EnergyBaselineCost), dollars(record.EnergyHPCost), dollars(record.EnergyAnnualSavings)))
		sb.WriteString(fmt.Sprintf("- Retrofit cost: %s\n", dollars(record.EnergyRetrofitCost)))
	}

	if computed(service.StageEmissionsCompliance) {
		sb.WriteString(fmt.Sprintf("\n## LL97 Compliance (%s)\n\n", record.EmissionsCategory))
		sb.WriteString("| Period | Budget (tCO2e) | Current annual fee |\n")
		sb.WriteString("|--------|----------------|--------------------|\n")
		for i, p := range constants.CompliancePeriods() {
			if i >= len(record.EmissionsBudgets) || i >= len(record.EmissionsCurrentFees) {
				break
			}
			sb.WriteString(fmt.Sprintf("| %s | %.1f | %s |\n",
				p.Label, record.EmissionsBudgets[i], dollars(record.EmissionsCurrentFees[i])))
		}
		sb.WriteString("\n| Window | BE credit (tCO2e) | Fee after retrofit |\n")
		sb.WriteString("|--------|-------------------|--------------------|\n")
		for i, w := range constants.FeeSubWindows() {
			if i >= len(record.EmissionsBECredits) || i >= len(record.EmissionsAdjustedFees) {
				break
			}
			sb.WriteString(fmt.Sprintf("| %s | %.1f | %s |\n",
				w.Label, record.EmissionsBECredits[i], dollars(record.EmissionsAdjustedFees[i])))
		}
	}

	if computed(service.StageFinancial) {
		sb.WriteString("\n## Financing\n\n")
		sb.WriteString(fmt.Sprintf("- Loan: %d years at %.2f%%, %s/month, %s total interest\n",
			record.FinancialLoanTermYears, record.FinancialLoanAnnualRate*100,
			dollars(record.FinancialMonthlyPayment), dollars(record.FinancialTotalInterest)))
		if record.FinancialPaybackYear >= 0 {
			sb.WriteString(fmt.Sprintf("- Payback: cumulative savings cover the retrofit in %d\n", record.FinancialPaybackYear))
		} else {
			sb.WriteString("- Payback: not achieved within the analysis window\n")
		}
	}

	if computed(service.StageNOI) {
		sb.WriteString("\n## Net Operating Income\n\n")
		sb.WriteString(fmt.Sprintf("- Baseline NOI: %s (%s)\n", dollars(record.NOIBaseline), record.NOISource))
		if first, last, ok := firstLast(record.NOINoUpgrade); ok {
			sb.WriteString(fmt.Sprintf("- Without retrofit: %s in %d falling under LL97 fees, %s by %d\n",
				dollars(first.Value), first.Year, dollars(last.Value), last.Year))
		}
		if first, last, ok := firstLast(record.NOIWithUpgrade); ok {
			sb.WriteString(fmt.Sprintf("- With retrofit: %s in %d, %s by %d\n",
				dollars(first.Value), first.Year, dollars(last.Value), last.Year))
		}
	}

	if computed(service.StagePropertyValue) {
		sb.WriteString("\n## Property Value\n\n")
		sb.WriteString(fmt.Sprintf("- Capitalization rate: %.2f%%\n", record.ValueCapRate*100))
		if first, _, ok := firstLast(record.ValueNoUpgrade); ok {
			sb.WriteString(fmt.Sprintf("- Value without retrofit (%d): %s\n", first.Year, dollars(first.Value)))
		}
		if first, _, ok := firstLast(record.ValueWithUpgrade); ok {
			sb.WriteString(fmt.Sprintf("- Value with retrofit (%d): %s\n", first.Year, dollars(first.Value)))
		}
		sb.WriteString(fmt.Sprintf("- Net gain from retrofit: **%s** (minimum %s across the window)\n",
			dollars(record.ValueNetGain), dollars(record.ValueNetGainMin)))
	}

	md := sb.String()
	if !utils.ValidateMarkdown(md) {
		return "", fmt.Errorf("summary for %s did not render as valid markdown", record.ID)
	}
	return md, nil
}

func firstLast(series []models.YearValue) (models.YearValue, models.YearValue, bool) {
	if len(series) == 0 {
		return models.YearValue{}, models.YearValue{}, false
	}
	return series[0], series[len(series)-1], true
}

// dollars renders a USD amount with thousands separators and two decimals.
func dollars(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	parts := strings.SplitN(s, ".", 2)
	return fmt.Sprintf("$%s%s.%s", sign, insertCommas(parts[0]), parts[1])
}

// groupThousands renders a count with thousands separators and no decimals.
func groupThousands(v float64) string {
	return insertCommas(strconv.FormatFloat(v, 'f', 0, 64))
}

func insertCommas(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var sb strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		sb.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}
