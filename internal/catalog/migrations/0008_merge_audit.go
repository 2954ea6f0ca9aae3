package migrations

import "github.com/bizzlechizzle/archivist-core/internal/tagsql"

// mergeAuditSteps creates merge_audit_log, version 18. Additive.
func mergeAuditSteps(db tagsql.DB) []*Step {
	return []*Step{
		sqlStep(db, 18, "create merge_audit_log table", `
			CREATE TABLE IF NOT EXISTS merge_audit_log (
				id TEXT PRIMARY KEY,
				survivor_id TEXT NOT NULL,
				merged_id TEXT NOT NULL,
				match_type TEXT NOT NULL,
				distance_meters REAL,
				name_similarity REAL,
				shared_tokens_json TEXT NOT NULL DEFAULT '[]',
				auto_merge INTEGER NOT NULL DEFAULT 0,
				blocked INTEGER NOT NULL DEFAULT 0,
				fields_updated_json TEXT NOT NULL DEFAULT '[]',
				created_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_merge_audit_log_survivor ON merge_audit_log(survivor_id)`,
			`CREATE INDEX IF NOT EXISTS idx_merge_audit_log_merged ON merge_audit_log(merged_id)`,
		),
	}
}
