package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"retrofit_valuation/pkg/models"
)

// SQLiteStore keeps each calculation as a JSON blob in a single-file
// database. SQLite has no JSONB merge operator, so Update does a
// read-merge-write under a mutex; the engine runs one cascade per id at a
// time, the lock just keeps concurrent ids from interleaving a write.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database file and its table.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "retrofit_valuation.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS calculations (
		id TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("failed to create calculations table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create inserts a new calculation record.
func (s *SQLiteStore) Create(ctx context.Context, record *models.CalculationRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO calculations (id, data, updated_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, record.ID, data, time.Now().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to create calculation %s: %w", record.ID, err)
	}
	return nil
}

// Get loads the full record for an id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.CalculationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ctx, id)
}

func (s *SQLiteStore) get(ctx context.Context, id string) (*models.CalculationRecord, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM calculations WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load calculation %s: %w", id, err)
	}

	var record models.CalculationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal calculation %s: %w", id, err)
	}
	return &record, nil
}

// Update merges the given fields onto the stored JSON document.
func (s *SQLiteStore) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM calculations WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load calculation %s: %w", id, err)
	}

	merged, err := mergeJSONFields(data, fields)
	if err != nil {
		return fmt.Errorf("failed to merge fields for calculation %s: %w", id, err)
	}

	query := `UPDATE calculations SET data = ?, updated_at = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, merged, time.Now().Format(time.RFC3339Nano), id); err != nil {
		return fmt.Errorf("failed to update calculation %s: %w", id, err)
	}
	return nil
}

// List returns all calculation ids, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM calculations ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list calculations: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

// mergeJSONFields applies a shallow top-level merge of fields onto a JSON
// document, mirroring the Postgres `data || patch` operator.
func mergeJSONFields(data []byte, fields map[string]any) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	// Round-trip the patch through JSON so typed values land in the
	// document exactly as the Postgres backend would store them.
	patch, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var normalized map[string]any
	if err := json.Unmarshal(patch, &normalized); err != nil {
		return nil, err
	}

	for k, v := range normalized {
		doc[k] = v
	}
	return json.Marshal(doc)
}
