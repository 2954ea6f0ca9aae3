package migrations

import "github.com/bizzlechizzle/archivist-core/internal/tagsql"

// extractionSteps creates the extractions table, version 24. Additive.
// Holds the result of one NLP/LLM extraction run against a location's
// notes and descriptions, regardless of which provider variant produced
// it (spec.md §9's capability-variant redesign).
func extractionSteps(db tagsql.DB) []*Step {
	return []*Step{
		sqlStep(db, 24, "create extractions table", `
			CREATE TABLE IF NOT EXISTS extractions (
				id TEXT PRIMARY KEY,
				locid TEXT NOT NULL REFERENCES locs(id) ON DELETE CASCADE,
				variant TEXT NOT NULL,
				status TEXT NOT NULL,
				input_text TEXT NOT NULL,
				result_json TEXT,
				error TEXT,
				started_at TIMESTAMP NOT NULL,
				completed_at TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_extractions_locid ON extractions(locid)`,
		),
	}
}
