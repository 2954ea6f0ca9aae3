package migrations

import (
	"context"

	"go.uber.org/zap"

	"github.com/bizzlechizzle/archivist-core/internal/tagsql"
)

// locsRebuildColumns lists every locs column in table-definition order,
// used by the constraint-rebuild step below. Kept in one place so the
// CREATE/INSERT/DROP/RENAME sequence stays in sync with 0001_locations.go.
const locsRebuildColumns = `
	id, name, short_name, alternate_name, category, class,
	gps_lat, gps_lng, gps_accuracy, gps_source, gps_tier, gps_verified_on_map, gps_verification_meta,
	addr_street, addr_city, addr_county, addr_state, addr_zipcode, addr_confidence, addr_raw, addr_normalized, addr_parsed, addr_source, addr_verified,
	census_region, census_division, state_direction, cultural_region, country_cultural_region, country, continent,
	built_year, built_year_precision, abandoned_year, abandoned_year_precision,
	docs_interior, docs_exterior, docs_drone, docs_web_history, docs_map_find,
	is_project, is_favorite, is_historic, host_only,
	hero_image_hash, hero_focal_x, hero_focal_y,
	created_by, modified_by, created_at, updated_at,
	count_images, count_videos, count_docs, count_maps, total_bytes, earliest_media_date, latest_media_date,
	bagit_status, bagit_last_verified, bagit_last_error, view_count
`

// constraintAndBackfillSteps demonstrates the two remaining step kinds
// from spec.md §4.C alongside the additive steps elsewhere in this
// package: a constraint-modification rebuild (version 21, adding a
// foreign key that SQLite cannot ALTER in place) and a data backfill
// (versions 22-23, the "copies auth_imp into created_by" style migration
// spec.md names directly).
func constraintAndBackfillSteps(db tagsql.DB) []*Step {
	return []*Step{
		{
			DB:          &db,
			Description: "add foreign key from locs.hero_image_hash to imgs.hash via table rebuild",
			Version:     21,
			SeparateTx:  true,
			Action: Func(func(ctx context.Context, log *zap.Logger, db tagsql.DB, tx tagsql.Tx) error {
				stmts := []string{
					`PRAGMA foreign_keys=OFF`,
					`CREATE TABLE locs_new (
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
						hero_image_hash TEXT REFERENCES imgs(hash) ON DELETE SET NULL,
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
					`INSERT INTO locs_new (` + locsRebuildColumns + `) SELECT ` + locsRebuildColumns + ` FROM locs`,
					`DROP TABLE locs`,
					`ALTER TABLE locs_new RENAME TO locs`,
					`CREATE INDEX IF NOT EXISTS idx_locs_name ON locs(name)`,
					`PRAGMA foreign_keys=ON`,
				}
				for _, stmt := range stmts {
					if _, err := tx.ExecContext(ctx, stmt); err != nil {
						return err
					}
				}
				return nil
			}),
		},
		sqlStep(db, 22, "add legacy_auth_imp column to locs for backfill source", `
			ALTER TABLE locs ADD COLUMN legacy_auth_imp TEXT`,
		),
		sqlStep(db, 23, "backfill created_by from legacy_auth_imp where unset", `
			UPDATE locs SET created_by = legacy_auth_imp WHERE (created_by = '' OR created_by IS NULL) AND legacy_auth_imp IS NOT NULL`,
		),
	}
}
