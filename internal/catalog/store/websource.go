package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// WebSourceRepo persists WebSource and WebSourceVersion rows, spec.md
// §3/§4.L. Full-text search over extracted_text is handled by an FTS5
// virtual table kept in sync via triggers created in the migrations
// package, not by this repo.
type WebSourceRepo struct {
	db *sqlx.DB
}

// Upsert inserts a new web source or updates an existing one (the id is
// the BLAKE3 of the URL, so re-archiving the same URL is an update).
func (r *WebSourceRepo) Upsert(ctx context.Context, tx *sqlx.Tx, ws *WebSource) error {
	now := time.Now().UTC()
	ws.UpdatedAt = now
	var existing int
	if err := tx.GetContext(ctx, &existing, `SELECT COUNT(*) FROM web_sources WHERE id = ?`, ws.ID); err != nil {
		return err
	}
	if existing == 0 {
		ws.CreatedAt = now
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO web_sources (
				id, url, title, locid, source_type, status, component_status_json, extracted_text,
				screenshot_path, screenshot_hash, pdf_path, pdf_hash, html_path, html_hash, warc_path, warc_hash,
				metadata_json, created_at, updated_at
			) VALUES (
				:id, :url, :title, :locid, :source_type, :status, :component_status_json, :extracted_text,
				:screenshot_path, :screenshot_hash, :pdf_path, :pdf_hash, :html_path, :html_hash, :warc_path, :warc_hash,
				:metadata_json, :created_at, :updated_at
			)`, ws)
		return err
	}
	_, err := tx.NamedExecContext(ctx, `
		UPDATE web_sources SET
			title = :title, status = :status, component_status_json = :component_status_json,
			extracted_text = :extracted_text,
			screenshot_path = :screenshot_path, screenshot_hash = :screenshot_hash,
			pdf_path = :pdf_path, pdf_hash = :pdf_hash,
			html_path = :html_path, html_hash = :html_hash,
			warc_path = :warc_path, warc_hash = :warc_hash,
			metadata_json = :metadata_json, updated_at = :updated_at
		WHERE id = :id`, ws)
	return err
}

// Get returns a web source by id.
func (r *WebSourceRepo) Get(ctx context.Context, id string) (*WebSource, error) {
	var ws WebSource
	if err := r.db.GetContext(ctx, &ws, `SELECT * FROM web_sources WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &ws, nil
}

// Search runs an FTS5 match query against extracted_text, returning
// matching web source ids ordered by relevance (bm25).
func (r *WebSourceRepo) Search(ctx context.Context, query string) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `
		SELECT web_sources.id FROM web_sources_fts
		JOIN web_sources ON web_sources.rowid = web_sources_fts.rowid
		WHERE web_sources_fts MATCH ?
		ORDER BY bm25(web_sources_fts)`, query)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ids, err
}

// AppendVersion records a re-capture, setting version_number to one past
// the highest stored version; content_changed is stored as the caller
// set it on v, per spec.md §4.L.
func (r *WebSourceRepo) AppendVersion(ctx context.Context, tx *sqlx.Tx, v *WebSourceVersion) error {
	var maxVersion sql.NullInt64
	if err := tx.GetContext(ctx, &maxVersion, `SELECT MAX(version_number) FROM web_source_versions WHERE web_source_id = ?`, v.WebSourceID); err != nil {
		return err
	}
	v.VersionNumber = int(maxVersion.Int64) + 1
	v.CapturedAt = time.Now().UTC()
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO web_source_versions (id, web_source_id, version_number, screenshot_hash, pdf_hash, html_hash, warc_hash, content_changed, captured_at)
		VALUES (:id, :web_source_id, :version_number, :screenshot_hash, :pdf_hash, :html_hash, :warc_hash, :content_changed, :captured_at)`, v)
	return err
}

// ListVersions returns every capture version for a web source, oldest
// first.
func (r *WebSourceRepo) ListVersions(ctx context.Context, webSourceID string) ([]WebSourceVersion, error) {
	var versions []WebSourceVersion
	err := r.db.SelectContext(ctx, &versions, `SELECT * FROM web_source_versions WHERE web_source_id = ? ORDER BY version_number ASC`, webSourceID)
	return versions, err
}

// LatestVersion returns the most recent version row, or nil if none
// exists yet.
func (r *WebSourceRepo) LatestVersion(ctx context.Context, webSourceID string) (*WebSourceVersion, error) {
	var v WebSourceVersion
	err := r.db.GetContext(ctx, &v, `
		SELECT * FROM web_source_versions WHERE web_source_id = ? ORDER BY version_number DESC LIMIT 1`, webSourceID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}
