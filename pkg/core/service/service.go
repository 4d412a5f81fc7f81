// Package service defines the uniform stage contract every calculation
// stage implements, the typed errors the engine reports, and the registry
// that derives the execution order from declared dependencies.
package service

import (
	"context"

	"retrofit_valuation/pkg/models"
)

// Stage names. These are the registry keys, the service-version map keys,
// and the prefix of every override-audit entry.
const (
	StageUnitBreakdown       = "unit-breakdown"
	StageEnergy              = "energy"
	StageEmissionsCompliance = "emissions-compliance"
	StageFinancial           = "financial"
	StageNOI                 = "noi"
	StagePropertyValue       = "property-value"
)

// FieldError pins a validation failure to the input field that caused it.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldWarning flags a suspicious but legal input value. Warnings never
// block computation.
type FieldWarning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is what a stage's Validate returns. Valid=false blocks
// the stage; warnings ride along with successful results.
type ValidationResult struct {
	Valid    bool           `json:"valid"`
	Errors   []FieldError   `json:"errors,omitempty"`
	Warnings []FieldWarning `json:"warnings,omitempty"`
}

// AddError appends a field error and marks the result invalid.
func (r *ValidationResult) AddError(field, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

// AddWarning appends a field warning without affecting validity.
func (r *ValidationResult) AddWarning(field, message string) {
	r.Warnings = append(r.Warnings, FieldWarning{Field: field, Message: message})
}

// CalculationService is the contract every stage implements.
//
// BuildInput reads the stage's upstream fields from the record and merges
// caller overrides (caller values win; unknown override fields are ignored).
// It returns the typed input plus the map of override fields it actually
// applied, which the engine records in the audit map. Compute must be a
// pure function of the input: no store reads, no clock, no randomness.
// Persist writes the stage's published output fields back onto the record.
type CalculationService interface {
	Name() string
	Version() string
	Dependencies() []string
	BuildInput(ctx context.Context, record *models.CalculationRecord, overrides map[string]any) (any, map[string]any, error)
	Validate(input any) ValidationResult
	Compute(input any) (any, error)
	Persist(ctx context.Context, id string, output any) error
}

// FloatOverride reads a numeric override, accepting the types JSON decoding
// and typed callers actually produce.
func FloatOverride(overrides map[string]any, field string) (float64, bool) {
	raw, ok := overrides[field]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// IntOverride reads an integer override. JSON numbers arrive as float64,
// so whole-valued floats are accepted.
func IntOverride(overrides map[string]any, field string) (int, bool) {
	raw, ok := overrides[field]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}

// StringOverride reads a string override.
func StringOverride(overrides map[string]any, field string) (string, bool) {
	raw, ok := overrides[field]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}
