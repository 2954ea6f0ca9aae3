package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bizzlechizzle/archivist-core/internal/errs2"
)

// LocationRepo persists Location rows.
type LocationRepo struct {
	db *sqlx.DB
}

// Get returns a Location by id, or sql.ErrNoRows if absent.
func (r *LocationRepo) Get(ctx context.Context, id string) (*Location, error) {
	var loc Location
	err := r.db.GetContext(ctx, &loc, `SELECT * FROM locs WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// Create inserts a new Location inside tx, recording modifier identity and
// timestamp per spec.md §3's lifecycle rule ("mutated only inside a
// transaction that records modifier identity and timestamp").
func (r *LocationRepo) Create(ctx context.Context, tx *sqlx.Tx, loc *Location) error {
	now := time.Now().UTC()
	loc.CreatedAt, loc.UpdatedAt = now, now
	if loc.ModifiedBy == "" {
		loc.ModifiedBy = loc.CreatedBy
	}
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO locs (
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
		) VALUES (
			:id, :name, :short_name, :alternate_name, :category, :class,
			:gps_lat, :gps_lng, :gps_accuracy, :gps_source, :gps_tier, :gps_verified_on_map, :gps_verification_meta,
			:addr_street, :addr_city, :addr_county, :addr_state, :addr_zipcode, :addr_confidence, :addr_raw, :addr_normalized, :addr_parsed, :addr_source, :addr_verified,
			:census_region, :census_division, :state_direction, :cultural_region, :country_cultural_region, :country, :continent,
			:built_year, :built_year_precision, :abandoned_year, :abandoned_year_precision,
			:docs_interior, :docs_exterior, :docs_drone, :docs_web_history, :docs_map_find,
			:is_project, :is_favorite, :is_historic, :host_only,
			:hero_image_hash, :hero_focal_x, :hero_focal_y,
			:created_by, :modified_by, :created_at, :updated_at,
			:count_images, :count_videos, :count_docs, :count_maps, :total_bytes, :earliest_media_date, :latest_media_date,
			:bagit_status, :bagit_last_verified, :bagit_last_error, :view_count
		)`, loc)
	if err != nil {
		return errs2.ForeignKeyViolation.Wrap(err)
	}
	return nil
}

// UpdateGPS writes a GPS triple, enforcing Invariant 3 (lat/lng both
// present or both absent) at the call boundary before the statement runs.
func (r *LocationRepo) UpdateGPS(ctx context.Context, tx *sqlx.Tx, id string, lat, lng *float64, modifiedBy string) error {
	if (lat == nil) != (lng == nil) {
		return errs2.SchemaMismatch.New("gps_lat and gps_lng must both be present or both absent")
	}
	_, err := tx.ExecContext(ctx, `
		UPDATE locs SET gps_lat = ?, gps_lng = ?, modified_by = ?, updated_at = ? WHERE id = ?`,
		lat, lng, modifiedBy, time.Now().UTC(), id)
	return err
}

// UpdateCachedCounts recomputes and writes the media-count cache fields
// for id, following an import finalize, per spec.md §4.E phase 5.
func (r *LocationRepo) UpdateCachedCounts(ctx context.Context, tx *sqlx.Tx, id string) error {
	var counts struct {
		Images    int        `db:"images"`
		Videos    int        `db:"videos"`
		Docs      int        `db:"docs"`
		Maps      int        `db:"maps"`
		Bytes     int64      `db:"bytes"`
		Earliest  *time.Time `db:"earliest"`
		Latest    *time.Time `db:"latest"`
	}
	err := tx.GetContext(ctx, &counts, `
		SELECT
			(SELECT COUNT(*) FROM imgs WHERE locid = ?) AS images,
			(SELECT COUNT(*) FROM vids WHERE locid = ?) AS videos,
			(SELECT COUNT(*) FROM docs WHERE locid = ?) AS docs,
			(SELECT COUNT(*) FROM maps WHERE locid = ?) AS maps,
			COALESCE((
				SELECT SUM(file_size_bytes) FROM (
					SELECT file_size_bytes FROM imgs WHERE locid = ?
					UNION ALL SELECT file_size_bytes FROM vids WHERE locid = ?
					UNION ALL SELECT file_size_bytes FROM docs WHERE locid = ?
					UNION ALL SELECT file_size_bytes FROM maps WHERE locid = ?
				)
			), 0) AS bytes,
			(
				SELECT MIN(imported_at) FROM (
					SELECT imported_at FROM imgs WHERE locid = ?
					UNION ALL SELECT imported_at FROM vids WHERE locid = ?
					UNION ALL SELECT imported_at FROM docs WHERE locid = ?
					UNION ALL SELECT imported_at FROM maps WHERE locid = ?
				)
			) AS earliest,
			(
				SELECT MAX(imported_at) FROM (
					SELECT imported_at FROM imgs WHERE locid = ?
					UNION ALL SELECT imported_at FROM vids WHERE locid = ?
					UNION ALL SELECT imported_at FROM docs WHERE locid = ?
					UNION ALL SELECT imported_at FROM maps WHERE locid = ?
				)
			) AS latest
	`, id, id, id, id, id, id, id, id, id, id, id, id, id, id, id)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE locs SET count_images = ?, count_videos = ?, count_docs = ?, count_maps = ?,
			total_bytes = ?, earliest_media_date = ?, latest_media_date = ?, updated_at = ?
		WHERE id = ?`,
		counts.Images, counts.Videos, counts.Docs, counts.Maps,
		counts.Bytes, counts.Earliest, counts.Latest, time.Now().UTC(), id)
	return err
}

// SetBagItStatus records a validator outcome, per spec.md §4.K.
func (r *LocationRepo) SetBagItStatus(ctx context.Context, id string, status BagItStatus, lastError *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE locs SET bagit_status = ?, bagit_last_verified = ?, bagit_last_error = ? WHERE id = ?`,
		status, time.Now().UTC(), lastError, id)
	return err
}

// DeleteCascade writes a location_deletion_log row recording child
// counts, then removes the location, relying on the schema's ON DELETE
// CASCADE foreign keys to remove media, sub-locations, notes, bookmarks,
// import sessions, timeline events, and web sources, per spec.md
// Invariant 2. The audit row is written before the delete statement
// runs, per the Lifecycle rule ("deletion is hard, preceded by an audit
// log entry containing child counts"); both happen inside tx so the
// ordering is atomic with the delete itself.
func (r *LocationRepo) DeleteCascade(ctx context.Context, tx *sqlx.Tx, id, deletedBy string) (childCounts map[string]int, err error) {
	var loc Location
	if err := tx.GetContext(ctx, &loc, `SELECT * FROM locs WHERE id = ?`, id); err != nil {
		return nil, err
	}

	childCounts = map[string]int{}
	tables := []string{"imgs", "vids", "docs", "maps", "sublocs", "notes", "bookmarks", "import_sessions", "location_timeline", "web_sources"}
	for _, table := range tables {
		column := "locid"
		switch table {
		case "sublocs":
			column = "parent_locid"
		case "import_sessions":
			column = "target_locid"
		}
		var n int
		if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+table+` WHERE `+column+` = ?`, id); err != nil {
			return nil, err
		}
		childCounts[table] = n
	}

	countsJSON, err := json.Marshal(childCounts)
	if err != nil {
		return nil, err
	}
	entry := LocationDeletionLog{
		ID:              uuid.NewString(),
		LocID:           id,
		Name:            loc.Name,
		ChildCountsJSON: string(countsJSON),
		DeletedBy:       deletedBy,
		DeletedAt:       time.Now().UTC(),
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO location_deletion_log (id, locid, name, child_counts_json, deleted_by, deleted_at)
		VALUES (:id, :locid, :name, :child_counts_json, :deleted_by, :deleted_at)`, entry); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM locs WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return childCounts, nil
}

// IncrementViewCount bumps view_count for a single-row read interaction.
func (r *LocationRepo) IncrementViewCount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE locs SET view_count = view_count + 1 WHERE id = ?`, id)
	return err
}

// FindByName looks up a location by exact name, used by the Merge Engine
// for name-based candidate generation.
func (r *LocationRepo) FindByName(ctx context.Context, name string) (*Location, error) {
	var loc Location
	err := r.db.GetContext(ctx, &loc, `SELECT * FROM locs WHERE name = ?`, name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// ListWithGPS returns every location with a non-null GPS pair, used by
// the Reference-Map linking pass.
func (r *LocationRepo) ListWithGPS(ctx context.Context) ([]Location, error) {
	var locs []Location
	err := r.db.SelectContext(ctx, &locs, `SELECT * FROM locs WHERE gps_lat IS NOT NULL AND gps_lng IS NOT NULL`)
	return locs, err
}

// SubLocationRepo persists SubLocation rows.
type SubLocationRepo struct {
	db *sqlx.DB
}

// Create inserts a new sub-location under tx.
func (r *SubLocationRepo) Create(ctx context.Context, tx *sqlx.Tx, sl *SubLocation) error {
	now := time.Now().UTC()
	sl.CreatedAt, sl.UpdatedAt = now, now
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO sublocs (
			id, parent_locid, is_primary, name, category, class,
			gps_lat, gps_lng, created_by, modified_by, created_at, updated_at,
			bagit_status, view_count
		) VALUES (
			:id, :parent_locid, :is_primary, :name, :category, :class,
			:gps_lat, :gps_lng, :created_by, :modified_by, :created_at, :updated_at,
			:bagit_status, :view_count
		)`, sl)
	return err
}

// ListByParent returns every sub-location of a location.
func (r *SubLocationRepo) ListByParent(ctx context.Context, parentID string) ([]SubLocation, error) {
	var subs []SubLocation
	err := r.db.SelectContext(ctx, &subs, `SELECT * FROM sublocs WHERE parent_locid = ?`, parentID)
	return subs, err
}
