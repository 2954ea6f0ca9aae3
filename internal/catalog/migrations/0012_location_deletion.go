package migrations

import "github.com/bizzlechizzle/archivist-core/internal/tagsql"

// locationDeletionSteps creates the location_deletion_log table, version
// 25. Additive. Holds the child-row counts recorded ahead of a cascading
// location delete, per spec.md's Lifecycle rule: "deletion is hard
// (cascades), preceded by an audit log entry containing child counts."
func locationDeletionSteps(db tagsql.DB) []*Step {
	return []*Step{
		sqlStep(db, 25, "create location_deletion_log table", `
			CREATE TABLE IF NOT EXISTS location_deletion_log (
				id TEXT PRIMARY KEY,
				locid TEXT NOT NULL,
				name TEXT NOT NULL,
				child_counts_json TEXT NOT NULL,
				deleted_by TEXT NOT NULL,
				deleted_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_location_deletion_log_locid ON location_deletion_log(locid)`,
		),
	}
}
