package migrations

import "github.com/bizzlechizzle/archivist-core/internal/tagsql"

// locationSteps creates the Location and Sub-location tables (spec.md
// §3), versions 1-2. Additive steps per spec.md §4.C kind 1.
func locationSteps(db tagsql.DB) []*Step {
	return []*Step{
		sqlStep(db, 1, "create locs table", `
			CREATE TABLE IF NOT EXISTS locs (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				short_name TEXT,
				alternate_name TEXT,
				category TEXT NOT NULL DEFAULT '',
				class TEXT NOT NULL DEFAULT '',

				gps_lat REAL,
				gps_lng REAL,
				gps_accuracy REAL,
				gps_source TEXT,
				gps_tier TEXT,
				gps_verified_on_map INTEGER NOT NULL DEFAULT 0,
				gps_verification_meta TEXT,

				addr_street TEXT,
				addr_city TEXT,
				addr_county TEXT,
				addr_state TEXT,
				addr_zipcode TEXT,
				addr_confidence REAL,
				addr_raw TEXT,
				addr_normalized TEXT,
				addr_parsed TEXT,
				addr_source TEXT,
				addr_verified INTEGER NOT NULL DEFAULT 0,

				census_region TEXT,
				census_division TEXT,
				state_direction TEXT,
				cultural_region TEXT,
				country_cultural_region TEXT,
				country TEXT,
				continent TEXT,

				built_year INTEGER,
				built_year_precision TEXT,
				abandoned_year INTEGER,
				abandoned_year_precision TEXT,

				docs_interior INTEGER NOT NULL DEFAULT 0,
				docs_exterior INTEGER NOT NULL DEFAULT 0,
				docs_drone INTEGER NOT NULL DEFAULT 0,
				docs_web_history INTEGER NOT NULL DEFAULT 0,
				docs_map_find INTEGER NOT NULL DEFAULT 0,

				is_project INTEGER NOT NULL DEFAULT 0,
				is_favorite INTEGER NOT NULL DEFAULT 0,
				is_historic INTEGER NOT NULL DEFAULT 0,
				host_only INTEGER NOT NULL DEFAULT 0,

				hero_image_hash TEXT,
				hero_focal_x REAL,
				hero_focal_y REAL,

				created_by TEXT NOT NULL DEFAULT '',
				modified_by TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL,

				count_images INTEGER NOT NULL DEFAULT 0,
				count_videos INTEGER NOT NULL DEFAULT 0,
				count_docs INTEGER NOT NULL DEFAULT 0,
				count_maps INTEGER NOT NULL DEFAULT 0,
				total_bytes INTEGER NOT NULL DEFAULT 0,
				earliest_media_date TIMESTAMP,
				latest_media_date TIMESTAMP,

				bagit_status TEXT NOT NULL DEFAULT 'none',
				bagit_last_verified TIMESTAMP,
				bagit_last_error TEXT,

				view_count INTEGER NOT NULL DEFAULT 0,

				CHECK ((gps_lat IS NULL) = (gps_lng IS NULL)),
				CHECK (addr_state IS NULL OR length(addr_state) = 2)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_locs_name ON locs(name)`,
		),
		sqlStep(db, 2, "create sublocs table", `
			CREATE TABLE IF NOT EXISTS sublocs (
				id TEXT PRIMARY KEY,
				parent_locid TEXT NOT NULL REFERENCES locs(id) ON DELETE CASCADE,
				is_primary INTEGER NOT NULL DEFAULT 0,
				name TEXT NOT NULL,
				category TEXT NOT NULL DEFAULT '',
				class TEXT NOT NULL DEFAULT '',
				gps_lat REAL,
				gps_lng REAL,
				created_by TEXT NOT NULL DEFAULT '',
				modified_by TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL,
				bagit_status TEXT NOT NULL DEFAULT 'none',
				view_count INTEGER NOT NULL DEFAULT 0,
				CHECK ((gps_lat IS NULL) = (gps_lng IS NULL))
			)`,
			`CREATE INDEX IF NOT EXISTS idx_sublocs_parent ON sublocs(parent_locid)`,
		),
	}
}
