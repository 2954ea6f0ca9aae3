package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// ExtractionRepo persists Extraction rows, spec.md §9.
type ExtractionRepo struct {
	db *sqlx.DB
}

// Create inserts a new extraction run in the pending/running state.
func (r *ExtractionRepo) Create(ctx context.Context, ex *Extraction) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO extractions (
			id, locid, variant, status, input_text, result_json, error, started_at, completed_at
		) VALUES (
			:id, :locid, :variant, :status, :input_text, :result_json, :error, :started_at, :completed_at
		)`, ex)
	return err
}

// Complete records a successful extraction's result.
func (r *ExtractionRepo) Complete(ctx context.Context, id string, resultJSON string, completedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE extractions SET status = ?, result_json = ?, completed_at = ? WHERE id = ?`,
		ExtractionDone, resultJSON, completedAt, id)
	return err
}

// Fail records a failed extraction's error.
func (r *ExtractionRepo) Fail(ctx context.Context, id string, errMsg string, completedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE extractions SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		ExtractionFailed, errMsg, completedAt, id)
	return err
}

// Get returns one extraction by ID.
func (r *ExtractionRepo) Get(ctx context.Context, id string) (*Extraction, error) {
	var ex Extraction
	err := r.db.GetContext(ctx, &ex, `SELECT * FROM extractions WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

// ListByLocation returns every extraction run for a location, most
// recent first.
func (r *ExtractionRepo) ListByLocation(ctx context.Context, locationID string) ([]Extraction, error) {
	var rows []Extraction
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM extractions WHERE locid = ? ORDER BY started_at DESC`, locationID)
	return rows, err
}
