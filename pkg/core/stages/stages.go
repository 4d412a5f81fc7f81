// Package stages implements the six calculation services behind the
// uniform stage contract: unit-breakdown, energy, emissions-compliance,
// financial, noi, and property-value. Each service builds its typed input
// from the persisted record plus caller overrides, validates it, runs the
// pure algorithm from calc or valuation, and persists its own output
// fields. The services hold no global state; everything is injected here.
package stages

import (
	"context"

	"retrofit_valuation/pkg/core/service"
	"retrofit_valuation/pkg/core/store"
)

// NOILookup resolves a building's baseline net operating income. Lookup
// returns the annual NOI, the source label recorded on the calculation
// ("registry" or "market-rate"), and an error when the registry is
// reachable but the data is unusable or the fetch itself fails.
type NOILookup interface {
	Lookup(ctx context.Context, buildingType string, totalSqft float64) (float64, string, error)
}

// NewRegistry wires all six stage services against the given store and
// NOI lookup and returns them as a service registry with the execution
// order derived from their declared dependencies.
func NewRegistry(s store.CalculationStore, noiLookup NOILookup) (*service.Registry, error) {
	return service.NewRegistry(
		NewUnitBreakdownService(s),
		NewEnergyService(s),
		NewEmissionsService(s),
		NewFinancialService(s),
		NewNOIService(s, noiLookup),
		NewPropertyValueService(s),
	)
}
