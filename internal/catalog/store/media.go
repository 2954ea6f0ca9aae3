package store

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// MediaRepo persists rows across the four media tables (imgs, vids, docs,
// maps), dispatching on Media.Kind per spec.md §3.
type MediaRepo struct {
	db *sqlx.DB
}

func tableFor(kind MediaKind) string {
	switch kind {
	case MediaImage:
		return "imgs"
	case MediaVideo:
		return "vids"
	case MediaDocument:
		return "docs"
	case MediaMap:
		return "maps"
	default:
		return ""
	}
}

// Exists reports whether a hash is already present in the table for kind,
// used by the Import Pipeline's duplicate-detection check (spec.md §4.E
// phase 3).
func (r *MediaRepo) Exists(ctx context.Context, kind MediaKind, hash string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+tableFor(kind)+` WHERE hash = ?`, hash)
	return n > 0, err
}

// FindAnyExisting looks a hash up across all four media tables
// regardless of kind, returning the kind it was found under. Used to
// confirm cross-table uniqueness of the content-hash dedup key.
func (r *MediaRepo) FindAnyExisting(ctx context.Context, hash string) (MediaKind, bool, error) {
	for _, kind := range []MediaKind{MediaImage, MediaVideo, MediaDocument, MediaMap} {
		ok, err := r.Exists(ctx, kind, hash)
		if err != nil {
			return "", false, err
		}
		if ok {
			return kind, true, nil
		}
	}
	return "", false, nil
}

// InsertIfAbsent inserts m under tx using INSERT ... WHERE NOT EXISTS,
// guaranteeing the hash-check-and-insert is atomic against the catalog as
// required by spec.md §4.E's duplicate policy (no TOCTOU race between
// concurrent imports targeting the same hash). Returns inserted=false
// when the row already existed.
func (r *MediaRepo) InsertIfAbsent(ctx context.Context, tx *sqlx.Tx, m *Media) (inserted bool, err error) {
	table := tableFor(m.Kind)
	res, err := tx.NamedExecContext(ctx, `
		INSERT INTO `+table+` (
			hash, original_filename, canonical_filename, archive_path, original_path,
			locid, sublocid, importer_identity, import_source, is_contribution, contribution_source,
			hidden, hidden_reason, is_live_photo, file_size_bytes,
			image_width, image_height,
			video_duration_seconds, video_codec, video_fps,
			document_page_count, document_author, document_title,
			exif_blob, gps_lat, gps_lng,
			thumb_sm_path, thumb_lg_path, thumb_preview_path,
			auto_tags_json, confidence_json, view_type, quality_score, vlm_block,
			perceptual_hash, web_source_id, imported_at
		)
		SELECT
			:hash, :original_filename, :canonical_filename, :archive_path, :original_path,
			:locid, :sublocid, :importer_identity, :import_source, :is_contribution, :contribution_source,
			:hidden, :hidden_reason, :is_live_photo, :file_size_bytes,
			:image_width, :image_height,
			:video_duration_seconds, :video_codec, :video_fps,
			:document_page_count, :document_author, :document_title,
			:exif_blob, :gps_lat, :gps_lng,
			:thumb_sm_path, :thumb_lg_path, :thumb_preview_path,
			:auto_tags_json, :confidence_json, :view_type, :quality_score, :vlm_block,
			:perceptual_hash, :web_source_id, :imported_at
		WHERE NOT EXISTS (SELECT 1 FROM `+table+` WHERE hash = :hash)
	`, m)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Get returns a media row by kind and hash.
func (r *MediaRepo) Get(ctx context.Context, kind MediaKind, hash string) (*Media, error) {
	var m Media
	err := r.db.GetContext(ctx, &m, `SELECT * FROM `+tableFor(kind)+` WHERE hash = ?`, hash)
	if err != nil {
		return nil, err
	}
	m.Kind = kind
	return &m, nil
}

// ListByLocation returns every media row of a kind attached to a
// location, used by timeline backfill and BagIt manifest generation.
func (r *MediaRepo) ListByLocation(ctx context.Context, kind MediaKind, locationID string) ([]Media, error) {
	var rows []Media
	err := r.db.SelectContext(ctx, &rows, `SELECT * FROM `+tableFor(kind)+` WHERE locid = ?`, locationID)
	for i := range rows {
		rows[i].Kind = kind
	}
	return rows, err
}

// ReattachLocation updates every media row's locid, used by the Merge
// Engine to reattach a merged entity's children to the survivor (spec.md
// §4.H: "all child records ... are reattached to the survivor").
func (r *MediaRepo) ReattachLocation(ctx context.Context, tx *sqlx.Tx, fromLocationID, toLocationID string) (int64, error) {
	var total int64
	for _, table := range []string{"imgs", "vids", "docs", "maps"} {
		res, err := tx.ExecContext(ctx, `UPDATE `+table+` SET locid = ? WHERE locid = ?`, toLocationID, fromLocationID)
		if err != nil {
			return total, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// CountByHash returns how many rows across all tables reference hash,
// used by the import-pipeline validate phase's integrity checks.
func (r *MediaRepo) CountByHash(ctx context.Context, hash string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
		SELECT
			(SELECT COUNT(*) FROM imgs WHERE hash = ?) +
			(SELECT COUNT(*) FROM vids WHERE hash = ?) +
			(SELECT COUNT(*) FROM docs WHERE hash = ?) +
			(SELECT COUNT(*) FROM maps WHERE hash = ?)
	`, hash, hash, hash, hash)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return n, err
}

// UpdateThumbnails persists the generated thumbnail paths for one media
// row, run by the thumbnail queue's worker after the Thumbnail
// Generator writes the three sizes to disk.
func (r *MediaRepo) UpdateThumbnails(ctx context.Context, kind MediaKind, hash string, small, large, preview string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE `+tableFor(kind)+` SET thumb_sm_path = ?, thumb_lg_path = ?, thumb_preview_path = ? WHERE hash = ?`,
		small, large, preview, hash)
	return err
}

// UpdatePerceptualHash persists a (re)computed perceptual hash, run by
// the perceptual-hash queue's worker for media kinds where it wasn't
// available at import time (e.g. a RAW preview rendered afterward).
func (r *MediaRepo) UpdatePerceptualHash(ctx context.Context, kind MediaKind, hash, perceptualHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE `+tableFor(kind)+` SET perceptual_hash = ? WHERE hash = ?`,
		perceptualHash, hash)
	return err
}
