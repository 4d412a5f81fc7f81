// Package engine decides what runs and in what order. It executes stages
// through the uniform service contract, marks freshness in the
// service-version map, records override audits, and cascades
// recomputation to every transitive dependent of a changed stage.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retrofit_valuation/pkg/core/service"
	"retrofit_valuation/pkg/core/store"
	"retrofit_valuation/pkg/models"
)

// ErrUnknownStage reports a stage name absent from the registry.
var ErrUnknownStage = errors.New("unknown stage")

// ExecuteOptions controls a single ExecuteService call.
type ExecuteOptions struct {
	// Overrides maps field name -> value for the target stage only.
	// Unknown fields are ignored. Cascaded stages never see overrides.
	Overrides map[string]any
	// Cascade re-runs every transitive dependent after the target stage.
	Cascade bool
	// Actor is recorded in the override audit trail.
	Actor string
}

// CascadeError reports a stage failure mid-run: which stage failed, the
// underlying error, and which stages had already completed.
type CascadeError struct {
	FailedStage string
	Completed   []string
	Err         error
}

// Error implements the error interface.
func (e *CascadeError) Error() string {
	return fmt.Sprintf("stage %s failed after %d completed stages %v: %v",
		e.FailedStage, len(e.Completed), e.Completed, e.Err)
}

// Unwrap returns the underlying error.
func (e *CascadeError) Unwrap() error {
	return e.Err
}

// Engine executes calculation stages against a record store.
type Engine struct {
	registry *service.Registry
	store    store.CalculationStore
}

// New creates an engine over a wired service registry and record store.
func New(registry *service.Registry, s store.CalculationStore) *Engine {
	return &Engine{registry: registry, store: s}
}

// ExecuteService runs one stage with the caller's overrides, then, when
// opts.Cascade is set, re-runs every transitive dependent in execution
// order with no overrides. A dependent failure aborts the remainder and
// the returned CascadeError lists what completed.
func (e *Engine) ExecuteService(ctx context.Context, id, stageName string, opts ExecuteOptions) error {
	svc, ok := e.registry.Get(stageName)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownStage, stageName)
	}

	missing, err := e.missingDependencies(ctx, id, svc)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return &service.DependencyNotSatisfiedError{Stage: stageName, Missing: missing}
	}

	if err := e.runStage(ctx, id, svc, opts.Overrides, opts.Actor); err != nil {
		return err
	}

	if !opts.Cascade {
		return nil
	}

	dependents := e.registry.TransitiveDependents(stageName)
	if len(dependents) == 0 {
		return nil
	}
	fmt.Printf("[ENGINE] Cascading %d dependent stage(s) of %s for %s\n", len(dependents), stageName, id)
	cascadeLength.Observe(float64(len(dependents)))

	completed := []string{stageName}
	for _, dependent := range dependents {
		depSvc, _ := e.registry.Get(dependent)
		if err := e.runStage(ctx, id, depSvc, nil, ""); err != nil {
			return &CascadeError{FailedStage: dependent, Completed: completed, Err: err}
		}
		completed = append(completed, dependent)
	}
	fmt.Printf("[ENGINE] Cascade complete for %s: executed %v\n", id, completed)
	return nil
}

// ExecuteAllServices runs every registered stage once in execution order,
// regardless of current version state. Used at calculation creation.
func (e *Engine) ExecuteAllServices(ctx context.Context, id string) error {
	var completed []string
	for _, name := range e.registry.Order() {
		svc, _ := e.registry.Get(name)
		if err := e.runStage(ctx, id, svc, nil, ""); err != nil {
			return &CascadeError{FailedStage: name, Completed: completed, Err: err}
		}
		completed = append(completed, name)
	}
	fmt.Printf("[ENGINE] Full run complete for %s: executed %v\n", id, completed)
	return nil
}

// AreDependenciesSatisfied reports whether every declared dependency of a
// stage has a version entry. Zero-dependency stages are always satisfied.
func (e *Engine) AreDependenciesSatisfied(ctx context.Context, id, stageName string) (bool, error) {
	svc, ok := e.registry.Get(stageName)
	if !ok {
		return false, fmt.Errorf("%w %q", ErrUnknownStage, stageName)
	}
	missing, err := e.missingDependencies(ctx, id, svc)
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

// GetServiceStatus reports, per stage, whether it has been computed at
// least once since the last reset that touched it.
func (e *Engine) GetServiceStatus(ctx context.Context, id string) (map[string]bool, error) {
	record, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	status := make(map[string]bool, len(e.registry.Order()))
	for _, name := range e.registry.Order() {
		_, computed := record.ServiceVersions[name]
		status[name] = computed
	}
	return status, nil
}

// ResetCalculation erases the freshness markers for fromStage and every
// transitive dependent (all stages when fromStage is empty). Persisted
// field values survive; they are just no longer trusted as current.
func (e *Engine) ResetCalculation(ctx context.Context, id, fromStage string) error {
	record, err := e.store.Get(ctx, id)
	if err != nil {
		return err
	}

	var toClear []string
	if fromStage == "" {
		toClear = e.registry.Order()
	} else {
		if _, ok := e.registry.Get(fromStage); !ok {
			return fmt.Errorf("%w %q", ErrUnknownStage, fromStage)
		}
		toClear = append([]string{fromStage}, e.registry.TransitiveDependents(fromStage)...)
	}

	versions := make(map[string]models.ServiceVersion, len(record.ServiceVersions))
	for name, v := range record.ServiceVersions {
		versions[name] = v
	}
	for _, name := range toClear {
		delete(versions, name)
	}

	if err := e.store.Update(ctx, id, map[string]any{"service_versions": versions}); err != nil {
		return fmt.Errorf("failed to reset %s: %w", id, err)
	}
	fmt.Printf("[ENGINE] Reset %s: cleared %v\n", id, toClear)
	return nil
}

// runStage executes one stage through the full contract: build, validate,
// compute, persist, then mark the version and record applied overrides.
func (e *Engine) runStage(ctx context.Context, id string, svc service.CalculationService, overrides map[string]any, actor string) error {
	name := svc.Name()
	start := time.Now()
	fmt.Printf("[ENGINE] Executing stage %s for %s\n", name, id)

	err := e.runStageInner(ctx, id, svc, overrides, actor)
	stageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		stageFailures.WithLabelValues(name).Inc()
		fmt.Printf("[ENGINE] Stage %s failed for %s: %v\n", name, id, err)
		return err
	}
	stageExecutions.WithLabelValues(name).Inc()
	fmt.Printf("[ENGINE] Stage %s complete for %s in %v\n", name, id, time.Since(start))
	return nil
}

func (e *Engine) runStageInner(ctx context.Context, id string, svc service.CalculationService, overrides map[string]any, actor string) error {
	name := svc.Name()

	record, err := e.store.Get(ctx, id)
	if err != nil {
		return err
	}

	input, applied, err := svc.BuildInput(ctx, record, overrides)
	if err != nil {
		return &service.ComputationError{Stage: name, Cause: err}
	}

	validation := svc.Validate(input)
	for _, w := range validation.Warnings {
		fmt.Printf("[ENGINE] Warning for %s.%s: %s\n", name, w.Field, w.Message)
	}
	if !validation.Valid {
		return &service.ValidationError{Stage: name, Errors: validation.Errors}
	}

	output, err := svc.Compute(input)
	if err != nil {
		return &service.ComputationError{Stage: name, Cause: err}
	}

	if err := svc.Persist(ctx, id, output); err != nil {
		return fmt.Errorf("failed to persist stage %s output: %w", name, err)
	}

	return e.markExecuted(ctx, id, svc, applied, actor)
}

// markExecuted stamps the stage's version entry and merges any applied
// overrides into the audit map, in one store write.
func (e *Engine) markExecuted(ctx context.Context, id string, svc service.CalculationService, applied map[string]any, actor string) error {
	record, err := e.store.Get(ctx, id)
	if err != nil {
		return err
	}

	versions := make(map[string]models.ServiceVersion, len(record.ServiceVersions)+1)
	for name, v := range record.ServiceVersions {
		versions[name] = v
	}
	versions[svc.Name()] = models.ServiceVersion{
		Version:    svc.Version(),
		ComputedAt: time.Now().UTC(),
	}
	fields := map[string]any{"service_versions": versions}

	if len(applied) > 0 {
		audits := make(map[string]models.OverrideEntry, len(record.Overrides)+len(applied))
		for key, entry := range record.Overrides {
			audits[key] = entry
		}
		now := time.Now().UTC()
		for field, value := range applied {
			audits[svc.Name()+"."+field] = models.OverrideEntry{
				Value: value,
				At:    now,
				Actor: actor,
			}
		}
		fields["overrides"] = audits
	}

	if err := e.store.Update(ctx, id, fields); err != nil {
		return fmt.Errorf("failed to mark stage %s executed: %w", svc.Name(), err)
	}
	return nil
}

// missingDependencies lists the declared dependencies of a stage that have
// no version entry yet.
func (e *Engine) missingDependencies(ctx context.Context, id string, svc service.CalculationService) ([]string, error) {
	deps := svc.Dependencies()
	if len(deps) == 0 {
		return nil, nil
	}
	record, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, dep := range deps {
		if _, ok := record.ServiceVersions[dep]; !ok {
			missing = append(missing, dep)
		}
	}
	return missing, nil
}
