package migrations

import "github.com/bizzlechizzle/archivist-core/internal/tagsql"

// refMapSteps creates ref_maps, ref_map_points, and location_exclusions,
// versions 11-13. Additive.
func refMapSteps(db tagsql.DB) []*Step {
	return []*Step{
		sqlStep(db, 11, "create ref_maps table", `
			CREATE TABLE IF NOT EXISTS ref_maps (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				file_path TEXT NOT NULL,
				file_type TEXT NOT NULL,
				point_count INTEGER NOT NULL DEFAULT 0,
				importer TEXT NOT NULL DEFAULT '',
				imported_at TIMESTAMP NOT NULL
			)`,
		),
		sqlStep(db, 12, "create ref_map_points table", `
			CREATE TABLE IF NOT EXISTS ref_map_points (
				id TEXT PRIMARY KEY,
				parent_map_id TEXT NOT NULL REFERENCES ref_maps(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				description TEXT,
				lat REAL NOT NULL,
				lng REAL NOT NULL,
				state TEXT,
				category TEXT,
				raw_metadata_json TEXT,
				aka_names TEXT,
				linked_locid TEXT REFERENCES locs(id) ON DELETE SET NULL,
				linked_at TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_ref_map_points_map ON ref_map_points(parent_map_id)`,
			`CREATE INDEX IF NOT EXISTS idx_ref_map_points_coords ON ref_map_points(lat, lng)`,
			`CREATE INDEX IF NOT EXISTS idx_ref_map_points_linked ON ref_map_points(linked_locid)`,
		),
		sqlStep(db, 13, "create location_exclusions table", `
			CREATE TABLE IF NOT EXISTS location_exclusions (
				id TEXT PRIMARY KEY,
				name_a TEXT NOT NULL,
				name_b TEXT NOT NULL,
				decision TEXT NOT NULL,
				decided_by TEXT NOT NULL DEFAULT '',
				decided_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_location_exclusions_pair ON location_exclusions(name_a, name_b)`,
		),
	}
}
