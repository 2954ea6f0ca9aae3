package migrations

import "github.com/bizzlechizzle/archivist-core/internal/tagsql"

// jobSteps creates jobs, job_audit_log, and dead_letter, versions 8-10.
// Additive.
func jobSteps(db tagsql.DB) []*Step {
	return []*Step{
		sqlStep(db, 8, "create jobs table", `
			CREATE TABLE IF NOT EXISTS jobs (
				id TEXT PRIMARY KEY,
				queue TEXT NOT NULL,
				priority INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL DEFAULT 'pending',
				payload_json TEXT NOT NULL,
				depends_on TEXT REFERENCES jobs(id),

				attempts INTEGER NOT NULL DEFAULT 0,
				max_attempts INTEGER NOT NULL DEFAULT 5,

				result_json TEXT,
				last_error TEXT,

				created_at TIMESTAMP NOT NULL,
				started_at TIMESTAMP,
				completed_at TIMESTAMP,

				locked_by TEXT,
				locked_at TIMESTAMP,

				retry_after TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_jobs_queue_status ON jobs(queue, status, priority DESC, created_at ASC)`,
			`CREATE INDEX IF NOT EXISTS idx_jobs_depends_on ON jobs(depends_on)`,
		),
		sqlStep(db, 9, "create job_audit_log table", `
			CREATE TABLE IF NOT EXISTS job_audit_log (
				id TEXT PRIMARY KEY,
				job_id TEXT NOT NULL,
				queue TEXT NOT NULL,
				started_at TIMESTAMP,
				completed_at TIMESTAMP,
				duration_ms INTEGER,
				status TEXT NOT NULL,
				attempt INTEGER NOT NULL DEFAULT 0,
				error TEXT,
				result_json TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_job_audit_log_job_id ON job_audit_log(job_id)`,
		),
		sqlStep(db, 10, "create dead_letter table", `
			CREATE TABLE IF NOT EXISTS dead_letter (
				id TEXT PRIMARY KEY,
				queue TEXT NOT NULL,
				payload_json TEXT NOT NULL,
				error TEXT NOT NULL,
				attempts INTEGER NOT NULL,
				failed_at TIMESTAMP NOT NULL,
				acknowledged INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE INDEX IF NOT EXISTS idx_dead_letter_queue ON dead_letter(queue, acknowledged)`,
		),
	}
}
