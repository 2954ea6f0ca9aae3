package migrations

import "github.com/bizzlechizzle/archivist-core/internal/tagsql"

// importSessionSteps creates the import_sessions table, version 7.
// Additive.
func importSessionSteps(db tagsql.DB) []*Step {
	return []*Step{
		sqlStep(db, 7, "create import_sessions table", `
			CREATE TABLE IF NOT EXISTS import_sessions (
				id TEXT PRIMARY KEY,
				target_locid TEXT NOT NULL REFERENCES locs(id) ON DELETE CASCADE,
				status TEXT NOT NULL DEFAULT 'pending',
				source_paths_json TEXT NOT NULL,

				scan_result_json TEXT,
				hash_result_json TEXT,
				copy_result_json TEXT,
				validate_result_json TEXT,
				finalize_result_json TEXT,

				total_count INTEGER NOT NULL DEFAULT 0,
				total_bytes INTEGER NOT NULL DEFAULT 0,

				resumable INTEGER NOT NULL DEFAULT 1,
				last_step INTEGER NOT NULL DEFAULT 0,
				cancelled INTEGER NOT NULL DEFAULT 0,

				created_at TIMESTAMP NOT NULL,
				completed_at TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_import_sessions_locid ON import_sessions(target_locid)`,
			`CREATE INDEX IF NOT EXISTS idx_import_sessions_resumable ON import_sessions(resumable, status)`,
		),
	}
}
