package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// JobRepo persists Job, JobAuditEntry, and DeadLetter rows, spec.md
// §3/§4.F.
type JobRepo struct {
	db *sqlx.DB
}

// namedExecer is satisfied by both *sqlx.DB and *sqlx.Tx, letting
// Enqueue run standalone or as part of a larger transaction (e.g. import
// finalize enqueuing derived jobs in the same commit).
type namedExecer interface {
	NamedExecContext(context.Context, string, interface{}) (sql.Result, error)
}

// Enqueue inserts a pending job using exec, which may be the Store's DB
// handle or an open transaction.
func (r *JobRepo) Enqueue(ctx context.Context, exec namedExecer, j *Job) error {
	j.CreatedAt = time.Now().UTC()
	j.Status = JobPending
	_, err := exec.NamedExecContext(ctx, `
		INSERT INTO jobs (
			id, queue, priority, status, payload_json, depends_on,
			attempts, max_attempts, created_at
		) VALUES (
			:id, :queue, :priority, :status, :payload_json, :depends_on,
			:attempts, :max_attempts, :created_at
		)`, j)
	return err
}

// ClaimNext implements the dispatch query from spec.md §4.F: filters
// pending jobs whose retry_after has elapsed and whose dependency (if
// any) has completed, orders by priority DESC then created_at ASC, and
// atomically claims exactly one row for workerID via a transactional
// compare-and-swap on status. Returns nil, nil when no job is claimable.
func (r *JobRepo) ClaimNext(ctx context.Context, queue, workerID string, now time.Time) (*Job, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var j Job
	err = tx.GetContext(ctx, &j, `
		SELECT jobs.* FROM jobs
		WHERE queue = ?
		  AND status = ?
		  AND (retry_after IS NULL OR retry_after <= ?)
		  AND (depends_on IS NULL OR depends_on IN (SELECT id FROM jobs WHERE status = ?))
		ORDER BY priority DESC, created_at ASC
		LIMIT 1
	`, queue, JobPending, now, JobCompleted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE jobs SET status = ?, locked_by = ?, locked_at = ?, started_at = ?
		WHERE id = ? AND status = ?`,
		JobProcessing, workerID, now, now, j.ID, JobPending)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// lost the compare-and-swap race to another worker.
		return nil, tx.Commit()
	}
	j.Status = JobProcessing
	j.LockedBy = &workerID
	j.LockedAt = &now
	j.StartedAt = &now

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &j, nil
}

// ClaimByID claims a specific job by id for workerID, using the same
// transactional compare-and-swap as ClaimNext but filtered to one row
// instead of picking the dispatch order itself. It backs the in-memory
// heap's Pop-then-claim path: the heap already decided which job comes
// next, so this only needs to confirm the row is still claimable.
// Returns nil, nil if the job is no longer pending (already claimed,
// its dependency isn't done yet, or it's gone).
func (r *JobRepo) ClaimByID(ctx context.Context, id, workerID string, now time.Time) (*Job, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var j Job
	err = tx.GetContext(ctx, &j, `
		SELECT jobs.* FROM jobs
		WHERE id = ?
		  AND status = ?
		  AND (retry_after IS NULL OR retry_after <= ?)
		  AND (depends_on IS NULL OR depends_on IN (SELECT id FROM jobs WHERE status = ?))
	`, id, JobPending, now, JobCompleted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE jobs SET status = ?, locked_by = ?, locked_at = ?, started_at = ?
		WHERE id = ? AND status = ?`,
		JobProcessing, workerID, now, now, j.ID, JobPending)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, tx.Commit()
	}
	j.Status = JobProcessing
	j.LockedBy = &workerID
	j.LockedAt = &now
	j.StartedAt = &now

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &j, nil
}

// MarkCompleted records a successful run.
func (r *JobRepo) MarkCompleted(ctx context.Context, id string, resultJSON string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, result_json = ?, completed_at = ?, locked_by = NULL, locked_at = NULL WHERE id = ?`,
		JobCompleted, resultJSON, now, id)
	return err
}

// MarkRetry schedules a retry at retryAfter and increments attempts, per
// spec.md §4.F's failure-with-attempts-remaining path.
func (r *JobRepo) MarkRetry(ctx context.Context, id string, attempts int, retryAfter time.Time, lastError string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, attempts = ?, retry_after = ?, last_error = ?, locked_by = NULL, locked_at = NULL WHERE id = ?`,
		JobPending, attempts, retryAfter, lastError, id)
	return err
}

// MarkDead transitions a job to dead and appends a dead-letter row, per
// spec.md §4.F's exhausted-retries path. Both writes happen in one
// transaction.
func (r *JobRepo) MarkDead(ctx context.Context, job *Job, attempts int, lastError string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE jobs SET status = ?, attempts = ?, last_error = ?, locked_by = NULL, locked_at = NULL WHERE id = ?`,
		JobDead, attempts, lastError, job.ID); err != nil {
		return err
	}

	dl := DeadLetter{
		ID:          job.ID,
		Queue:       job.Queue,
		PayloadJSON: job.PayloadJSON,
		Error:       lastError,
		Attempts:    attempts,
		FailedAt:    time.Now().UTC(),
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO dead_letter (id, queue, payload_json, error, attempts, failed_at, acknowledged)
		VALUES (:id, :queue, :payload_json, :error, :attempts, :failed_at, :acknowledged)`, dl); err != nil {
		return err
	}
	return tx.Commit()
}

// MarkDependencyFailed transitions a job straight to dead with a fixed
// reason, per spec.md §8: "a job whose depends_on is failed never leaves
// pending; it is transitioned to dead with reason dependency_failed."
func (r *JobRepo) MarkDependencyFailed(ctx context.Context, id string) error {
	return r.MarkDead(ctx, &Job{ID: id}, 0, "dependency_failed")
}

// ReclaimStale returns processing jobs whose lock predates the cutoff to
// pending, incrementing their attempt counter, per spec.md §4.F's
// stale-lock recovery janitor.
func (r *JobRepo) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, attempts = attempts + 1, locked_by = NULL, locked_at = NULL
		WHERE status = ? AND locked_at < ?`,
		JobPending, JobProcessing, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Get returns a job by id.
func (r *JobRepo) Get(ctx context.Context, id string) (*Job, error) {
	var j Job
	if err := r.db.GetContext(ctx, &j, `SELECT * FROM jobs WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &j, nil
}

// ListPending returns every pending job in a queue, used to hydrate the
// in-memory priority heap on worker-pool start (SPEC_FULL.md §4.F).
func (r *JobRepo) ListPending(ctx context.Context, queue string) ([]Job, error) {
	var jobs []Job
	err := r.db.SelectContext(ctx, &jobs, `
		SELECT * FROM jobs WHERE queue = ? AND status = ? ORDER BY priority DESC, created_at ASC`,
		queue, JobPending)
	return jobs, err
}

// AppendAudit writes one job_audit_log row. The table is append-only per
// SPEC_FULL.md's data-model supplement; this is its only write method.
func (r *JobRepo) AppendAudit(ctx context.Context, entry *JobAuditEntry) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO job_audit_log (id, job_id, queue, started_at, completed_at, duration_ms, status, attempt, error, result_json)
		VALUES (:id, :job_id, :queue, :started_at, :completed_at, :duration_ms, :status, :attempt, :error, :result_json)`, entry)
	return err
}

// ListDeadLetters returns unacknowledged dead-letter rows for a queue,
// surfaced via a health check per spec.md §7's propagation policy.
func (r *JobRepo) ListDeadLetters(ctx context.Context, queue string) ([]DeadLetter, error) {
	var rows []DeadLetter
	err := r.db.SelectContext(ctx, &rows, `SELECT * FROM dead_letter WHERE queue = ? AND acknowledged = 0`, queue)
	return rows, err
}

// AcknowledgeDeadLetter marks a dead-letter row as reviewed.
func (r *JobRepo) AcknowledgeDeadLetter(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dead_letter SET acknowledged = 1 WHERE id = ?`, id)
	return err
}
