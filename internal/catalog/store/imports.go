package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// ImportSessionRepo persists Import session rows, spec.md §3/§4.E.
type ImportSessionRepo struct {
	db *sqlx.DB
}

// Create inserts a fresh session in the pending state.
func (r *ImportSessionRepo) Create(ctx context.Context, sess *ImportSession) error {
	sess.CreatedAt = time.Now().UTC()
	sess.Status = SessionPending
	sess.Resumable = true
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO import_sessions (
			id, target_locid, status, source_paths_json,
			total_count, total_bytes, resumable, last_step, cancelled, created_at
		) VALUES (
			:id, :target_locid, :status, :source_paths_json,
			:total_count, :total_bytes, :resumable, :last_step, :cancelled, :created_at
		)`, sess)
	return err
}

// Get returns a session by id.
func (r *ImportSessionRepo) Get(ctx context.Context, id string) (*ImportSession, error) {
	var sess ImportSession
	err := r.db.GetContext(ctx, &sess, `SELECT * FROM import_sessions WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// AdvancePhase persists a phase's result blob and moves last_step
// forward, satisfying the crash-resume contract of spec.md §4.E: "each
// phase writes its result blob into the session row before advancing."
func (r *ImportSessionRepo) AdvancePhase(ctx context.Context, id string, step int, status ImportSessionStatus, resultColumn string, resultJSON string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE import_sessions SET last_step = ?, status = ?, `+resultColumn+` = ? WHERE id = ?`,
		step, status, resultJSON, id)
	return err
}

// Complete marks a session finished, per spec.md §4.E phase 5.
func (r *ImportSessionRepo) Complete(ctx context.Context, tx *sqlx.Tx, id string, finalizeResultJSON string) error {
	now := time.Now().UTC()
	_, err := tx.ExecContext(ctx, `
		UPDATE import_sessions SET status = ?, finalize_result_json = ?, completed_at = ?, resumable = 0 WHERE id = ?`,
		SessionCompleted, finalizeResultJSON, now, id)
	return err
}

// Cancel transitions a session to cancelled, per spec.md §4.E's
// cancellation semantics.
func (r *ImportSessionRepo) Cancel(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE import_sessions SET status = ?, cancelled = 1, resumable = 0 WHERE id = ?`, SessionCancelled, id)
	return err
}

// Fail transitions a session to failed.
func (r *ImportSessionRepo) Fail(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE import_sessions SET status = ? WHERE id = ?`, SessionFailed, id)
	return err
}

// IsCancelled reports the session's cooperative cancel flag, polled
// between items per spec.md §5's suspension-point rule.
func (r *ImportSessionRepo) IsCancelled(ctx context.Context, id string) (bool, error) {
	var cancelled bool
	err := r.db.GetContext(ctx, &cancelled, `SELECT cancelled FROM import_sessions WHERE id = ?`, id)
	return cancelled, err
}

// ListResumable returns sessions left in-flight by a previous process
// exit, for startup recovery.
func (r *ImportSessionRepo) ListResumable(ctx context.Context) ([]ImportSession, error) {
	var sessions []ImportSession
	err := r.db.SelectContext(ctx, &sessions, `SELECT * FROM import_sessions WHERE resumable = 1 AND status NOT IN (?, ?, ?)`,
		SessionCompleted, SessionCancelled, SessionFailed)
	return sessions, err
}
