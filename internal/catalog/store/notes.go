package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// NotesRepo persists the supplemental Note and Bookmark tables, per
// SPEC_FULL.md's data-model supplement.
type NotesRepo struct {
	db *sqlx.DB
}

// AddNote inserts a free-text note scoped to a location.
func (r *NotesRepo) AddNote(ctx context.Context, n *Note) error {
	now := time.Now().UTC()
	n.CreatedAt, n.UpdatedAt = now, now
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO notes (id, locid, sublocid, author, body, created_at, updated_at)
		VALUES (:id, :locid, :sublocid, :author, :body, :created_at, :updated_at)`, n)
	return err
}

// ListNotes returns every note for a location, oldest first.
func (r *NotesRepo) ListNotes(ctx context.Context, locationID string) ([]Note, error) {
	var notes []Note
	err := r.db.SelectContext(ctx, &notes, `SELECT * FROM notes WHERE locid = ? ORDER BY created_at ASC`, locationID)
	return notes, err
}

// AddBookmark inserts a labeled bookmark for a location.
func (r *NotesRepo) AddBookmark(ctx context.Context, b *Bookmark) error {
	b.CreatedAt = time.Now().UTC()
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO bookmarks (id, locid, sublocid, label, created_at)
		VALUES (:id, :locid, :sublocid, :label, :created_at)`, b)
	return err
}

// ListBookmarks returns every bookmark for a location.
func (r *NotesRepo) ListBookmarks(ctx context.Context, locationID string) ([]Bookmark, error) {
	var bookmarks []Bookmark
	err := r.db.SelectContext(ctx, &bookmarks, `SELECT * FROM bookmarks WHERE locid = ? ORDER BY created_at ASC`, locationID)
	return bookmarks, err
}
