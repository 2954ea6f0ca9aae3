package migrations

import "github.com/bizzlechizzle/archivist-core/internal/tagsql"

// timelineSteps creates location_timeline, version 17. Additive.
func timelineSteps(db tagsql.DB) []*Step {
	return []*Step{
		sqlStep(db, 17, "create location_timeline table", `
			CREATE TABLE IF NOT EXISTS location_timeline (
				id TEXT PRIMARY KEY,
				locid TEXT NOT NULL REFERENCES locs(id) ON DELETE CASCADE,
				sublocid TEXT REFERENCES sublocs(id) ON DELETE SET NULL,
				type TEXT NOT NULL,
				subtype TEXT,
				date_start TIMESTAMP NOT NULL,
				date_end TIMESTAMP,
				precision TEXT NOT NULL DEFAULT 'exact',
				sort_order INTEGER NOT NULL DEFAULT 0,
				source_type TEXT NOT NULL DEFAULT '',
				media_count INTEGER NOT NULL DEFAULT 0,
				media_hashes_json TEXT NOT NULL DEFAULT '[]',
				auto_approved INTEGER NOT NULL DEFAULT 0,
				user_approved INTEGER NOT NULL DEFAULT 0,
				confidence REAL NOT NULL DEFAULT 0,
				description TEXT,
				source_refs_json TEXT NOT NULL DEFAULT '[]',
				verb_context TEXT,
				prompt_version TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_location_timeline_locid ON location_timeline(locid, date_start)`,
			`CREATE INDEX IF NOT EXISTS idx_location_timeline_type ON location_timeline(locid, type)`,
		),
	}
}
