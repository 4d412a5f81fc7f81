package service

import (
	"context"
	"reflect"
	"testing"

	"retrofit_valuation/pkg/models"
)

// fakeService is a minimal stage for registry tests.
type fakeService struct {
	name string
	deps []string
}

func (f *fakeService) Name() string           { return f.name }
func (f *fakeService) Version() string        { return "1.0.0" }
func (f *fakeService) Dependencies() []string { return f.deps }
func (f *fakeService) BuildInput(ctx context.Context, record *models.CalculationRecord, overrides map[string]any) (any, map[string]any, error) {
	return nil, nil, nil
}
func (f *fakeService) Validate(input any) ValidationResult { return ValidationResult{Valid: true} }
func (f *fakeService) Compute(input any) (any, error)      { return nil, nil }
func (f *fakeService) Persist(ctx context.Context, id string, output any) error {
	return nil
}

func productionShapedServices() []CalculationService {
	return []CalculationService{
		&fakeService{name: StageUnitBreakdown},
		&fakeService{name: StageEnergy, deps: []string{StageUnitBreakdown}},
		&fakeService{name: StageEmissionsCompliance, deps: []string{StageEnergy}},
		&fakeService{name: StageFinancial, deps: []string{StageEnergy, StageEmissionsCompliance}},
		&fakeService{name: StageNOI, deps: []string{StageFinancial}},
		&fakeService{name: StagePropertyValue, deps: []string{StageNOI}},
	}
}

func TestRegistryDerivesExecutionOrder(t *testing.T) {
	registry, err := NewRegistry(productionShapedServices()...)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := []string{
		StageUnitBreakdown,
		StageEnergy,
		StageEmissionsCompliance,
		StageFinancial,
		StageNOI,
		StagePropertyValue,
	}
	if !reflect.DeepEqual(registry.Order(), expected) {
		t.Errorf("Expected order %v, got %v", expected, registry.Order())
	}

	for i, name := range expected {
		rank, ok := registry.Rank(name)
		if !ok || rank != i+1 {
			t.Errorf("Expected rank %d for %s, got %d (ok=%v)", i+1, name, rank, ok)
		}
	}
}

func TestRegistryOrderIgnoresDeclarationShuffle(t *testing.T) {
	// The production graph has a unique topological order, so declaring
	// the services backwards must not change it.
	services := productionShapedServices()
	shuffled := make([]CalculationService, len(services))
	for i, svc := range services {
		shuffled[len(services)-1-i] = svc
	}

	registry, err := NewRegistry(shuffled...)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := []string{
		StageUnitBreakdown,
		StageEnergy,
		StageEmissionsCompliance,
		StageFinancial,
		StageNOI,
		StagePropertyValue,
	}
	if !reflect.DeepEqual(registry.Order(), expected) {
		t.Errorf("Expected order %v, got %v", expected, registry.Order())
	}
}

func TestRegistryDeclarationOrderBreaksTies(t *testing.T) {
	// Two independent roots feeding one sink: declaration order decides
	// which root runs first.
	registry, err := NewRegistry(
		&fakeService{name: "beta"},
		&fakeService{name: "alpha"},
		&fakeService{name: "sink", deps: []string{"alpha", "beta"}},
	)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := []string{"beta", "alpha", "sink"}
	if !reflect.DeepEqual(registry.Order(), expected) {
		t.Errorf("Expected order %v, got %v", expected, registry.Order())
	}
}

func TestRegistryTransitiveDependents(t *testing.T) {
	registry, err := NewRegistry(productionShapedServices()...)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tests := []struct {
		stage    string
		expected []string
	}{
		{StageUnitBreakdown, []string{StageEnergy, StageEmissionsCompliance, StageFinancial, StageNOI, StagePropertyValue}},
		{StageEnergy, []string{StageEmissionsCompliance, StageFinancial, StageNOI, StagePropertyValue}},
		{StageEmissionsCompliance, []string{StageFinancial, StageNOI, StagePropertyValue}},
		{StageFinancial, []string{StageNOI, StagePropertyValue}},
		{StageNOI, []string{StagePropertyValue}},
		{StagePropertyValue, []string{}},
	}
	for _, tc := range tests {
		got := registry.TransitiveDependents(tc.stage)
		if !reflect.DeepEqual(got, tc.expected) {
			t.Errorf("TransitiveDependents(%s) = %v, expected %v", tc.stage, got, tc.expected)
		}
	}
}

func TestRegistryRejectsUnknownDependency(t *testing.T) {
	_, err := NewRegistry(
		&fakeService{name: "energy", deps: []string{"missing-stage"}},
	)
	if err == nil {
		t.Fatal("Expected error for unregistered dependency")
	}
}

func TestRegistryRejectsCycle(t *testing.T) {
	_, err := NewRegistry(
		&fakeService{name: "a", deps: []string{"b"}},
		&fakeService{name: "b", deps: []string{"a"}},
	)
	if err == nil {
		t.Fatal("Expected error for dependency cycle")
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	_, err := NewRegistry(
		&fakeService{name: "energy"},
		&fakeService{name: "energy"},
	)
	if err == nil {
		t.Fatal("Expected error for duplicate service name")
	}
}
