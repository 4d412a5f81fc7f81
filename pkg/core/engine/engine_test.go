package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"retrofit_valuation/pkg/core/service"
	"retrofit_valuation/pkg/core/store"
	"retrofit_valuation/pkg/models"
)

// --- Mocks ---

type MockStage struct {
	name string
	deps []string

	BuildInputFunc func(ctx context.Context, record *models.CalculationRecord, overrides map[string]any) (any, map[string]any, error)
	ValidateFunc   func(input any) service.ValidationResult
	ComputeFunc    func(input any) (any, error)
	PersistFunc    func(ctx context.Context, id string, output any) error
}

func (m *MockStage) Name() string           { return m.name }
func (m *MockStage) Version() string        { return "test-1" }
func (m *MockStage) Dependencies() []string { return m.deps }

func (m *MockStage) BuildInput(ctx context.Context, record *models.CalculationRecord, overrides map[string]any) (any, map[string]any, error) {
	if m.BuildInputFunc != nil {
		return m.BuildInputFunc(ctx, record, overrides)
	}
	return nil, nil, nil
}

func (m *MockStage) Validate(input any) service.ValidationResult {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(input)
	}
	return service.ValidationResult{Valid: true}
}

func (m *MockStage) Compute(input any) (any, error) {
	if m.ComputeFunc != nil {
		return m.ComputeFunc(input)
	}
	return nil, nil
}

func (m *MockStage) Persist(ctx context.Context, id string, output any) error {
	if m.PersistFunc != nil {
		return m.PersistFunc(ctx, id, output)
	}
	return nil
}

// chainStages builds alpha -> beta -> gamma, each appending its name to
// executed when computed.
func chainStages(executed *[]string) []*MockStage {
	mk := func(name string, deps ...string) *MockStage {
		return &MockStage{
			name: name,
			deps: deps,
			ComputeFunc: func(input any) (any, error) {
				*executed = append(*executed, name)
				return nil, nil
			},
		}
	}
	return []*MockStage{mk("alpha"), mk("beta", "alpha"), mk("gamma", "beta")}
}

func newTestEngine(t *testing.T, stages []*MockStage) (*Engine, *store.MemoryStore) {
	t.Helper()
	services := make([]service.CalculationService, len(stages))
	for i, s := range stages {
		services[i] = s
	}
	registry, err := service.NewRegistry(services...)
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}
	memStore := store.NewMemoryStore()
	if err := memStore.Create(context.Background(), &models.CalculationRecord{ID: "calc-1"}); err != nil {
		t.Fatalf("Failed to seed record: %v", err)
	}
	return New(registry, memStore), memStore
}

// --- Tests ---

func TestEngineExecuteAllServices(t *testing.T) {
	ctx := context.Background()
	var executed []string
	engine, memStore := newTestEngine(t, chainStages(&executed))

	if err := engine.ExecuteAllServices(ctx, "calc-1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := []string{"alpha", "beta", "gamma"}
	if fmt.Sprint(executed) != fmt.Sprint(expected) {
		t.Errorf("Expected execution order %v, got %v", expected, executed)
	}

	record, _ := memStore.Get(ctx, "calc-1")
	for _, name := range expected {
		if _, ok := record.ServiceVersions[name]; !ok {
			t.Errorf("Expected version entry for %s", name)
		}
	}
}

func TestEngineCascadeRunsOnlyDependents(t *testing.T) {
	ctx := context.Background()
	var executed []string
	engine, _ := newTestEngine(t, chainStages(&executed))

	if err := engine.ExecuteAllServices(ctx, "calc-1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	executed = executed[:0]

	// Re-running beta with cascade touches beta and gamma, never alpha.
	err := engine.ExecuteService(ctx, "calc-1", "beta", ExecuteOptions{Cascade: true})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fmt.Sprint(executed) != fmt.Sprint([]string{"beta", "gamma"}) {
		t.Errorf("Expected [beta gamma], got %v", executed)
	}
}

func TestEngineCascadeDisabled(t *testing.T) {
	ctx := context.Background()
	var executed []string
	engine, _ := newTestEngine(t, chainStages(&executed))

	if err := engine.ExecuteAllServices(ctx, "calc-1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	executed = executed[:0]

	err := engine.ExecuteService(ctx, "calc-1", "beta", ExecuteOptions{Cascade: false})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fmt.Sprint(executed) != fmt.Sprint([]string{"beta"}) {
		t.Errorf("Expected [beta] only, got %v", executed)
	}
}

func TestEngineCascadedStagesNeverSeeOverrides(t *testing.T) {
	ctx := context.Background()
	var executed []string
	stages := chainStages(&executed)

	seen := make(map[string]int)
	for _, s := range stages {
		stage := s
		stage.BuildInputFunc = func(ctx context.Context, record *models.CalculationRecord, overrides map[string]any) (any, map[string]any, error) {
			seen[stage.name] = len(overrides)
			return nil, nil, nil
		}
	}
	engine, _ := newTestEngine(t, stages)
	if err := engine.ExecuteAllServices(ctx, "calc-1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	err := engine.ExecuteService(ctx, "calc-1", "alpha", ExecuteOptions{
		Overrides: map[string]any{"x": 1.0},
		Cascade:   true,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if seen["alpha"] != 1 {
		t.Errorf("Expected alpha to receive 1 override, got %d", seen["alpha"])
	}
	if seen["beta"] != 0 || seen["gamma"] != 0 {
		t.Errorf("Cascaded stages must run override-free, got beta=%d gamma=%d", seen["beta"], seen["gamma"])
	}
}

func TestEngineDependencyNotSatisfied(t *testing.T) {
	ctx := context.Background()
	var executed []string
	engine, _ := newTestEngine(t, chainStages(&executed))

	// Nothing has run yet, so beta's dependency on alpha is unmet.
	err := engine.ExecuteService(ctx, "calc-1", "beta", ExecuteOptions{Cascade: true})
	var depErr *service.DependencyNotSatisfiedError
	if !errors.As(err, &depErr) {
		t.Fatalf("Expected DependencyNotSatisfiedError, got %v", err)
	}
	if len(depErr.Missing) != 1 || depErr.Missing[0] != "alpha" {
		t.Errorf("Expected missing [alpha], got %v", depErr.Missing)
	}
	if len(executed) != 0 {
		t.Errorf("Nothing should have executed, got %v", executed)
	}
}

func TestEngineCascadeAbortsOnFailure(t *testing.T) {
	ctx := context.Background()
	var executed []string
	stages := chainStages(&executed)
	stages[1].ComputeFunc = func(input any) (any, error) {
		return nil, fmt.Errorf("beta exploded")
	}
	engine, _ := newTestEngine(t, stages)

	err := engine.ExecuteAllServices(ctx, "calc-1")
	var cascadeErr *CascadeError
	if !errors.As(err, &cascadeErr) {
		t.Fatalf("Expected CascadeError, got %v", err)
	}
	if cascadeErr.FailedStage != "beta" {
		t.Errorf("Expected failed stage beta, got %s", cascadeErr.FailedStage)
	}
	if fmt.Sprint(cascadeErr.Completed) != fmt.Sprint([]string{"alpha"}) {
		t.Errorf("Expected completed [alpha], got %v", cascadeErr.Completed)
	}
	// gamma never ran.
	if fmt.Sprint(executed) != fmt.Sprint([]string{"alpha"}) {
		t.Errorf("Expected only alpha to execute, got %v", executed)
	}

	var compErr *service.ComputationError
	if !errors.As(err, &compErr) {
		t.Errorf("Expected the cause to be a ComputationError, got %v", err)
	}
}

func TestEngineValidationBlocksStage(t *testing.T) {
	ctx := context.Background()
	var executed []string
	stages := chainStages(&executed)
	stages[0].ValidateFunc = func(input any) service.ValidationResult {
		var r service.ValidationResult
		r.AddError("ptac_units", "must not be negative")
		return r
	}
	engine, memStore := newTestEngine(t, stages)

	err := engine.ExecuteService(ctx, "calc-1", "alpha", ExecuteOptions{Cascade: true})
	var valErr *service.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if len(valErr.Errors) != 1 || valErr.Errors[0].Field != "ptac_units" {
		t.Errorf("Expected field-level detail, got %+v", valErr.Errors)
	}
	if len(executed) != 0 {
		t.Errorf("Compute must not run on invalid input, got %v", executed)
	}

	record, _ := memStore.Get(ctx, "calc-1")
	if _, ok := record.ServiceVersions["alpha"]; ok {
		t.Error("A blocked stage must not be marked as computed")
	}
}

func TestEngineResetCalculation(t *testing.T) {
	ctx := context.Background()
	var executed []string
	engine, memStore := newTestEngine(t, chainStages(&executed))

	if err := engine.ExecuteAllServices(ctx, "calc-1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Reset from beta clears beta and gamma, leaves alpha fresh.
	if err := engine.ResetCalculation(ctx, "calc-1", "beta"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	status, err := engine.GetServiceStatus(ctx, "calc-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !status["alpha"] || status["beta"] || status["gamma"] {
		t.Errorf("Expected alpha fresh and beta/gamma stale, got %v", status)
	}

	// A full reset clears everything.
	if err := engine.ResetCalculation(ctx, "calc-1", ""); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	record, _ := memStore.Get(ctx, "calc-1")
	if len(record.ServiceVersions) != 0 {
		t.Errorf("Expected no version entries after full reset, got %v", record.ServiceVersions)
	}
}

func TestEngineRecordsOverrideAudit(t *testing.T) {
	ctx := context.Background()
	var executed []string
	stages := chainStages(&executed)
	stages[0].BuildInputFunc = func(ctx context.Context, record *models.CalculationRecord, overrides map[string]any) (any, map[string]any, error) {
		applied := make(map[string]any)
		if v, ok := service.FloatOverride(overrides, "unit_cost"); ok {
			applied["unit_cost"] = v
		}
		return nil, applied, nil
	}
	engine, memStore := newTestEngine(t, stages)
	if err := engine.ExecuteAllServices(ctx, "calc-1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	err := engine.ExecuteService(ctx, "calc-1", "alpha", ExecuteOptions{
		Overrides: map[string]any{"unit_cost": 2100.0, "bogus": "ignored"},
		Cascade:   false,
		Actor:     "analyst@example.com",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	record, _ := memStore.Get(ctx, "calc-1")
	entry, ok := record.Overrides["alpha.unit_cost"]
	if !ok {
		t.Fatalf("Expected audit entry for alpha.unit_cost, got %v", record.Overrides)
	}
	if entry.Actor != "analyst@example.com" {
		t.Errorf("Expected actor recorded, got %q", entry.Actor)
	}
	if v, ok := entry.Value.(float64); !ok || v != 2100 {
		t.Errorf("Expected recorded value 2100, got %v", entry.Value)
	}
	if entry.At.IsZero() {
		t.Error("Expected a timestamp on the audit entry")
	}
	// The unknown field was ignored, not audited.
	if _, ok := record.Overrides["alpha.bogus"]; ok {
		t.Error("Unknown override fields must not be audited")
	}
}

func TestEngineVersionTimestampsRespectCascadeOrder(t *testing.T) {
	ctx := context.Background()
	var executed []string
	engine, memStore := newTestEngine(t, chainStages(&executed))

	if err := engine.ExecuteAllServices(ctx, "calc-1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	before, _ := memStore.Get(ctx, "calc-1")
	alphaBefore := before.ServiceVersions["alpha"].ComputedAt

	if err := engine.ExecuteService(ctx, "calc-1", "beta", ExecuteOptions{Cascade: true}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	after, _ := memStore.Get(ctx, "calc-1")
	if !after.ServiceVersions["alpha"].ComputedAt.Equal(alphaBefore) {
		t.Error("Upstream stage alpha must not be touched by a beta cascade")
	}
	beta := after.ServiceVersions["beta"].ComputedAt
	gamma := after.ServiceVersions["gamma"].ComputedAt
	if gamma.Before(beta) {
		t.Errorf("Dependent gamma must run after beta: %v < %v", gamma, beta)
	}
}

func TestEngineUnknownStage(t *testing.T) {
	ctx := context.Background()
	var executed []string
	engine, _ := newTestEngine(t, chainStages(&executed))

	if err := engine.ExecuteService(ctx, "calc-1", "nonexistent", ExecuteOptions{}); !errors.Is(err, ErrUnknownStage) {
		t.Errorf("Expected ErrUnknownStage, got %v", err)
	}
	if err := engine.ResetCalculation(ctx, "calc-1", "nonexistent"); !errors.Is(err, ErrUnknownStage) {
		t.Errorf("Expected ErrUnknownStage resetting from unknown stage, got %v", err)
	}
}

func TestEngineMissingCalculation(t *testing.T) {
	ctx := context.Background()
	var executed []string
	engine, _ := newTestEngine(t, chainStages(&executed))

	err := engine.ExecuteAllServices(ctx, "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
