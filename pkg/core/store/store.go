// Package store persists calculation records. Three backends share one
// contract: Postgres (JSONB), SQLite (single-file, pure Go driver), and
// an in-memory store for tests and local runs. Update is a shallow merge
// of top-level JSON fields so every stage can persist only the fields it
// owns.
package store

import (
	"context"
	"errors"

	"retrofit_valuation/pkg/models"
)

// ErrNotFound is returned when no record exists for the requested id.
var ErrNotFound = errors.New("calculation not found")

// CalculationStore is the record store contract the engine and the stage
// services consume.
type CalculationStore interface {
	// Create inserts a new record. The id must not already exist.
	Create(ctx context.Context, record *models.CalculationRecord) error
	// Get loads the full record for an id.
	Get(ctx context.Context, id string) (*models.CalculationRecord, error)
	// Update merges the given top-level JSON fields onto the stored
	// record, leaving every other field untouched.
	Update(ctx context.Context, id string, fields map[string]any) error
	// List returns the ids of all stored calculations.
	List(ctx context.Context) ([]string, error)
}
