// calc-engine verifies an exported calculation record offline: "check"
// mode confirms the identities that hold across stage outputs, and
// "recalculate" mode re-derives the property values from the stored NOI
// series to cross-check the persisted figures.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"retrofit_valuation/pkg/core/calc"
	"retrofit_valuation/pkg/core/valuation"
	"retrofit_valuation/pkg/models"
)

// tolerance absorbs the cent-rounding applied by every stage.
const tolerance = 0.011

func main() {
	mode := flag.String("mode", "check", "Mode: check or recalculate")
	file := flag.String("record", "", "Path to an exported calculation record (JSON)")
	flag.Parse()

	if *file == "" {
		fmt.Println("Error: No record provided")
		os.Exit(1)
	}
	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Printf("Error reading record: %v\n", err)
		os.Exit(1)
	}
	var record models.CalculationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		fmt.Printf("Error unmarshaling record: %v\n", err)
		os.Exit(1)
	}

	switch *mode {
	case "check":
		problems := runChecks(&record)
		if len(problems) == 0 {
			fmt.Println("Success: record is internally consistent")
			return
		}
		for _, p := range problems {
			fmt.Printf("Error: %s\n", p)
		}
		os.Exit(1)
	case "recalculate":
		if err := runRecalculation(&record); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("Unknown mode: %s\n", *mode)
		os.Exit(1)
	}
}

// runChecks returns one message per violated cross-stage identity. Checks
// apply only to stages whose outputs are present on the record.
func runChecks(record *models.CalculationRecord) []string {
	var problems []string

	mixTotal := record.UnitMix.Studio + record.UnitMix.OneBedroom +
		record.UnitMix.TwoBedroom + record.UnitMix.ThreeBedroom
	if record.TotalUnits != 0 && mixTotal != 0 && record.TotalUnits != mixTotal {
		problems = append(problems, fmt.Sprintf(
			"unit total %d does not match mix total %d", record.TotalUnits, mixTotal))
	}

	if record.EnergyBaselineCost != 0 || record.EnergyHPCost != 0 {
		want := record.EnergyBaselineCost - record.EnergyHPCost
		if math.Abs(record.EnergyAnnualSavings-want) > tolerance {
			problems = append(problems, fmt.Sprintf(
				"annual savings %.2f is not baseline minus heat-pump cost %.2f",
				record.EnergyAnnualSavings, want))
		}
	}

	for i := 1; i < len(record.EmissionsBudgets); i++ {
		if record.EmissionsBudgets[i] > record.EmissionsBudgets[i-1] {
			problems = append(problems, fmt.Sprintf(
				"emissions budget rises from period %d to %d (%.2f -> %.2f)",
				i-1, i, record.EmissionsBudgets[i-1], record.EmissionsBudgets[i]))
		}
	}

	if n := len(record.FinancialLoanBalances); n > 0 {
		if math.Abs(record.FinancialLoanBalances[0]-record.EnergyRetrofitCost) > tolerance {
			problems = append(problems, fmt.Sprintf(
				"loan opens at %.2f but the retrofit costs %.2f",
				record.FinancialLoanBalances[0], record.EnergyRetrofitCost))
		}
		if math.Abs(record.FinancialLoanBalances[n-1]) > tolerance {
			problems = append(problems, fmt.Sprintf(
				"loan does not amortize to zero (final balance %.2f)",
				record.FinancialLoanBalances[n-1]))
		}
	}

	problems = append(problems, checkCapitalization("no-upgrade", record.ValueNoUpgrade, record.NOINoUpgrade, record.ValueCapRate)...)
	problems = append(problems, checkCapitalization("with-upgrade", record.ValueWithUpgrade, record.NOIWithUpgrade, record.ValueCapRate)...)

	return problems
}

// checkCapitalization confirms value = NOI / capRate pointwise.
func checkCapitalization(scenario string, values, noi []models.YearValue, capRate float64) []string {
	if capRate <= 0 || len(values) == 0 {
		return nil
	}
	if len(values) != len(noi) {
		return []string{fmt.Sprintf("%s value series has %d years but NOI has %d", scenario, len(values), len(noi))}
	}
	var problems []string
	for i := range values {
		want := calc.Round2(noi[i].Value / capRate)
		if math.Abs(values[i].Value-want) > tolerance {
			problems = append(problems, fmt.Sprintf(
				"%s value in %d is %.2f, expected %.2f from NOI %.2f at cap rate %.4f",
				scenario, values[i].Year, values[i].Value, want, noi[i].Value, capRate))
		}
	}
	return problems
}

// runRecalculation re-derives the property values from the stored NOI
// series and reports them next to the persisted figures.
func runRecalculation(record *models.CalculationRecord) error {
	result, err := valuation.ComputePropertyValue(valuation.PropertyValueInput{
		NoUpgradeNOI:   record.NOINoUpgrade,
		WithUpgradeNOI: record.NOIWithUpgrade,
		CapRate:        record.ValueCapRate,
	})
	if err != nil {
		return err
	}

	first := result.NoUpgrade[0]
	fmt.Printf("Value without retrofit (%d): %.2f\n", first.Year, first.Value)
	fmt.Printf("Value with retrofit (%d): %.2f\n", result.WithUpgrade[0].Year, result.WithUpgrade[0].Value)
	fmt.Printf("Net gain: %.2f (stored %.2f)\n", result.NetGain, record.ValueNetGain)
	fmt.Println("Calculations complete.")
	return nil
}
