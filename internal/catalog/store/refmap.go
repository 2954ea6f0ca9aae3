package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// RefMapRepo persists RefMap, RefMapPoint, and LocationExclusion rows,
// spec.md §3/§4.G.
type RefMapRepo struct {
	db *sqlx.DB
}

// Import inserts a RefMap and all of its points in one transaction,
// rolling back both on failure, per spec.md §4.G: "Import is
// transactional: insert one ref_maps row, then all ref_map_points rows."
func (r *RefMapRepo) Import(ctx context.Context, m *RefMap, points []RefMapPoint) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	m.ImportedAt = time.Now().UTC()
	m.PointCount = len(points)
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO ref_maps (id, name, file_path, file_type, point_count, importer, imported_at)
		VALUES (:id, :name, :file_path, :file_type, :point_count, :importer, :imported_at)`, m); err != nil {
		return err
	}

	for i := range points {
		points[i].ParentMapID = m.ID
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO ref_map_points (id, parent_map_id, name, description, lat, lng, state, category, raw_metadata_json, aka_names, linked_locid, linked_at)
			VALUES (:id, :parent_map_id, :name, :description, :lat, :lng, :state, :category, :raw_metadata_json, :aka_names, :linked_locid, :linked_at)`,
			points[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListPointsByMap returns all points belonging to a ref map.
func (r *RefMapRepo) ListPointsByMap(ctx context.Context, mapID string) ([]RefMapPoint, error) {
	var points []RefMapPoint
	err := r.db.SelectContext(ctx, &points, `SELECT * FROM ref_map_points WHERE parent_map_id = ?`, mapID)
	return points, err
}

// ListUnlinkedPoints returns points with no linked_locid, i.e. the
// engine's Atlas-layer candidate set per spec.md §4.G.
func (r *RefMapRepo) ListUnlinkedPoints(ctx context.Context, mapID string) ([]RefMapPoint, error) {
	var points []RefMapPoint
	err := r.db.SelectContext(ctx, &points, `SELECT * FROM ref_map_points WHERE parent_map_id = ? AND linked_locid IS NULL`, mapID)
	return points, err
}

// MergePointsInto collapses duplicate-coordinate points into survivor,
// accumulating the losers' names into aka_names, per spec.md Invariant 7.
// All rows besides survivor are deleted.
func (r *RefMapRepo) MergePointsInto(ctx context.Context, survivorID string, akaNames string, loserIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE ref_map_points SET aka_names = ? WHERE id = ?`, akaNames, survivorID); err != nil {
		return err
	}
	for _, loser := range loserIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM ref_map_points WHERE id = ?`, loser); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LinkPoint writes linked_locid/linked_at onto a point without deleting
// it, per spec.md §4.G's linking rule.
func (r *RefMapRepo) LinkPoint(ctx context.Context, pointID, locationID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE ref_map_points SET linked_locid = ?, linked_at = ? WHERE id = ?`,
		locationID, time.Now().UTC(), pointID)
	return err
}

// ExclusionRepo persists LocationExclusion rows.
type ExclusionRepo struct {
	db *sqlx.DB
}

// IsExcluded reports whether (nameA, nameB) has a recorded "different
// place" decision, in either name order, per spec.md §4.H's exclusion
// override.
func (r *ExclusionRepo) IsExcluded(ctx context.Context, nameA, nameB string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM location_exclusions
		WHERE (name_a = ? AND name_b = ?) OR (name_a = ? AND name_b = ?)`,
		nameA, nameB, nameB, nameA)
	return n > 0, err
}

// Add records a rejected-merge decision.
func (r *ExclusionRepo) Add(ctx context.Context, ex *LocationExclusion) error {
	ex.DecidedAt = time.Now().UTC()
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO location_exclusions (id, name_a, name_b, decision, decided_by, decided_at)
		VALUES (:id, :name_a, :name_b, :decision, :decided_by, :decided_at)`, ex)
	return err
}
