package valuation

import (
	"fmt"

	"retrofit_valuation/pkg/core/calc"
	"retrofit_valuation/pkg/models"
)

// PropertyValueInput holds the two NOI scenarios and the capitalization rate.
type PropertyValueInput struct {
	NoUpgradeNOI   []models.YearValue
	WithUpgradeNOI []models.YearValue
	CapRate        float64 // e.g. 0.04
}

// PropertyValueResult carries the capitalized value series and the net gain
// figures the front end reports.
type PropertyValueResult struct {
	NoUpgrade   []models.YearValue
	WithUpgrade []models.YearValue
	// NetGain is with-upgrade minus no-upgrade value at the first
	// analysis year, the headline figure.
	NetGain float64
	// NetGainMin is the smallest gain across the window, the conservative
	// variant.
	NetGainMin float64
}

// ComputePropertyValue capitalizes both NOI series pointwise: value = NOI / capRate.
func ComputePropertyValue(input PropertyValueInput) (PropertyValueResult, error) {
	if input.CapRate <= 0 {
		return PropertyValueResult{}, fmt.Errorf("cap rate must be positive, got %f", input.CapRate)
	}
	if len(input.NoUpgradeNOI) != len(input.WithUpgradeNOI) {
		return PropertyValueResult{}, fmt.Errorf("NOI series lengths differ: %d vs %d",
			len(input.NoUpgradeNOI), len(input.WithUpgradeNOI))
	}
	if len(input.NoUpgradeNOI) == 0 {
		return PropertyValueResult{}, fmt.Errorf("NOI series is empty")
	}

	noUpgrade := make([]models.YearValue, len(input.NoUpgradeNOI))
	withUpgrade := make([]models.YearValue, len(input.WithUpgradeNOI))

	var netGain float64
	netGainMin := 0.0
	for i := range input.NoUpgradeNOI {
		// 1. Capitalize each scenario
		noUpgrade[i] = models.YearValue{
			Year:  input.NoUpgradeNOI[i].Year,
			Value: calc.Round2(input.NoUpgradeNOI[i].Value / input.CapRate),
		}
		withUpgrade[i] = models.YearValue{
			Year:  input.WithUpgradeNOI[i].Year,
			Value: calc.Round2(input.WithUpgradeNOI[i].Value / input.CapRate),
		}

		// 2. Track the headline and worst-case gains
		gain := calc.Round2(withUpgrade[i].Value - noUpgrade[i].Value)
		if i == 0 {
			netGain = gain
			netGainMin = gain
		} else if gain < netGainMin {
			netGainMin = gain
		}
	}

	return PropertyValueResult{
		NoUpgrade:   noUpgrade,
		WithUpgrade: withUpgrade,
		NetGain:     netGain,
		NetGainMin:  netGainMin,
	}, nil
}
