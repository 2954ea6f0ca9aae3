package migrations

import "github.com/bizzlechizzle/archivist-core/internal/tagsql"

// notesSteps creates notes and bookmarks, versions 19-20. Additive.
func notesSteps(db tagsql.DB) []*Step {
	return []*Step{
		sqlStep(db, 19, "create notes table", `
			CREATE TABLE IF NOT EXISTS notes (
				id TEXT PRIMARY KEY,
				locid TEXT NOT NULL REFERENCES locs(id) ON DELETE CASCADE,
				sublocid TEXT REFERENCES sublocs(id) ON DELETE SET NULL,
				author TEXT NOT NULL DEFAULT '',
				body TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_notes_locid ON notes(locid)`,
		),
		sqlStep(db, 20, "create bookmarks table", `
			CREATE TABLE IF NOT EXISTS bookmarks (
				id TEXT PRIMARY KEY,
				locid TEXT NOT NULL REFERENCES locs(id) ON DELETE CASCADE,
				sublocid TEXT REFERENCES sublocs(id) ON DELETE SET NULL,
				label TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_bookmarks_locid ON bookmarks(locid)`,
		),
	}
}
