package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"retrofit_valuation/pkg/models"
)

// PostgresStore keeps each calculation as one JSONB row. Update leans on
// the `||` operator: a shallow merge of top-level fields done in a single
// statement on the server.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an initialized connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create inserts a new calculation record.
func (s *PostgresStore) Create(ctx context.Context, record *models.CalculationRecord) error {
	if s.pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	query := `INSERT INTO calculations (id, data, updated_at) VALUES ($1, $2, $3)`
	if _, err := s.pool.Exec(ctx, query, record.ID, data, time.Now()); err != nil {
		return fmt.Errorf("failed to create calculation %s: %w", record.ID, err)
	}
	return nil
}

// Get loads the full record for an id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*models.CalculationRecord, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	var data []byte
	query := `SELECT data FROM calculations WHERE id = $1`
	if err := s.pool.QueryRow(ctx, query, id).Scan(&data); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load calculation %s: %w", id, err)
	}

	var record models.CalculationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal calculation %s: %w", id, err)
	}
	return &record, nil
}

// Update merges the given fields onto the stored JSONB document.
func (s *PostgresStore) Update(ctx context.Context, id string, fields map[string]any) error {
	if s.pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	if len(fields) == 0 {
		return nil
	}

	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal update fields: %w", err)
	}

	query := `UPDATE calculations SET data = data || $2::jsonb, updated_at = $3 WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id, patch, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update calculation %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all calculation ids, most recently updated first.
func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rows, err := s.pool.Query(ctx, `SELECT id FROM calculations ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list calculations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan calculation id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
