package service

import (
	"fmt"
	"strings"
)

// ValidationError reports that a stage's input failed validation. It blocks
// that stage only; the caller sees the field-level detail, never a bare
// internal error.
type ValidationError struct {
	Stage  string
	Errors []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	fields := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		fields[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return fmt.Sprintf("validation failed for stage %s: %s", e.Stage, strings.Join(fields, "; "))
}

// ComputationError reports that a stage's algorithm hit an invariant it
// cannot satisfy (e.g. an unmapped emissions category). It fails the stage
// and aborts the remainder of any cascade, since downstream inputs would be
// built from incomplete data.
type ComputationError struct {
	Stage string
	Cause error
}

// Error implements the error interface.
func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation failed for stage %s: %v", e.Stage, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ComputationError) Unwrap() error {
	return e.Cause
}

// DependencyNotSatisfiedError reports an attempt to run a stage before one
// of its declared upstream stages has ever completed.
type DependencyNotSatisfiedError struct {
	Stage   string
	Missing []string
}

// Error implements the error interface.
func (e *DependencyNotSatisfiedError) Error() string {
	return fmt.Sprintf("stage %s has unsatisfied dependencies: %s",
		e.Stage, strings.Join(e.Missing, ", "))
}
