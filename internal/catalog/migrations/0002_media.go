package migrations

import "github.com/bizzlechizzle/archivist-core/internal/tagsql"

// mediaColumns is the shared column set across the four per-kind media
// tables (imgs, vids, docs, maps), versions 3-6. Additive steps.
const mediaColumns = `
	hash TEXT PRIMARY KEY,
	original_filename TEXT NOT NULL,
	canonical_filename TEXT NOT NULL,
	archive_path TEXT NOT NULL,
	original_path TEXT NOT NULL,

	locid TEXT REFERENCES locs(id) ON DELETE CASCADE,
	sublocid TEXT REFERENCES sublocs(id) ON DELETE SET NULL,

	importer_identity TEXT NOT NULL DEFAULT '',
	import_source TEXT NOT NULL DEFAULT '',
	is_contribution INTEGER NOT NULL DEFAULT 0,
	contribution_source TEXT,
	hidden INTEGER NOT NULL DEFAULT 0,
	hidden_reason TEXT,
	is_live_photo INTEGER NOT NULL DEFAULT 0,

	file_size_bytes INTEGER NOT NULL DEFAULT 0,

	image_width INTEGER,
	image_height INTEGER,

	video_duration_seconds REAL,
	video_codec TEXT,
	video_fps REAL,

	document_page_count INTEGER,
	document_author TEXT,
	document_title TEXT,

	exif_blob TEXT,
	gps_lat REAL,
	gps_lng REAL,

	thumb_sm_path TEXT,
	thumb_lg_path TEXT,
	thumb_preview_path TEXT,

	auto_tags_json TEXT,
	confidence_json TEXT,
	view_type TEXT,
	quality_score REAL,
	vlm_block TEXT,

	perceptual_hash TEXT,
	web_source_id TEXT REFERENCES web_sources(id) ON DELETE SET NULL,

	imported_at TIMESTAMP NOT NULL,

	CHECK ((gps_lat IS NULL) = (gps_lng IS NULL))
`

func mediaSteps(db tagsql.DB) []*Step {
	steps := []*Step{}
	tables := []string{"imgs", "vids", "docs", "maps"}
	for i, table := range tables {
		steps = append(steps,
			sqlStep(db, 3+i, "create "+table+" table",
				`CREATE TABLE IF NOT EXISTS `+table+` (`+mediaColumns+`)`,
				`CREATE INDEX IF NOT EXISTS idx_`+table+`_locid ON `+table+`(locid)`,
				`CREATE INDEX IF NOT EXISTS idx_`+table+`_sublocid ON `+table+`(sublocid)`,
				`CREATE INDEX IF NOT EXISTS idx_`+table+`_perceptual_hash ON `+table+`(substr(perceptual_hash, 1, 4))`,
			),
		)
	}
	return steps
}
