package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// TimelineRepo persists TimelineEvent rows, spec.md §3/§4.I.
type TimelineRepo struct {
	db *sqlx.DB
}

// FindMatching returns an existing event of the same type on the same
// location whose date lies within windowDays of newDate, per spec.md
// §4.I's merge-window rule. Returns nil if none matches.
func (r *TimelineRepo) FindMatching(ctx context.Context, locationID, eventType string, newDate time.Time, windowDays int) (*TimelineEvent, error) {
	lo := newDate.AddDate(0, 0, -windowDays)
	hi := newDate.AddDate(0, 0, windowDays)
	var ev TimelineEvent
	err := r.db.GetContext(ctx, &ev, `
		SELECT * FROM location_timeline
		WHERE locid = ? AND type = ? AND date_start BETWEEN ? AND ?
		ORDER BY date_start ASC LIMIT 1`,
		locationID, eventType, lo, hi)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// Create inserts a new timeline event.
func (r *TimelineRepo) Create(ctx context.Context, ev *TimelineEvent) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO location_timeline (
			id, locid, sublocid, type, subtype, date_start, date_end, precision, sort_order,
			source_type, media_count, media_hashes_json, auto_approved, user_approved, confidence,
			description, source_refs_json, verb_context, prompt_version
		) VALUES (
			:id, :locid, :sublocid, :type, :subtype, :date_start, :date_end, :precision, :sort_order,
			:source_type, :media_count, :media_hashes_json, :auto_approved, :user_approved, :confidence,
			:description, :source_refs_json, :verb_context, :prompt_version
		)`, ev)
	return err
}

// Update persists an in-place merge of ev (date/precision/description/
// confidence/source_refs already recomputed by the caller), per spec.md
// §4.I's merge rules.
func (r *TimelineRepo) Update(ctx context.Context, ev *TimelineEvent) error {
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE location_timeline SET
			date_start = :date_start, date_end = :date_end, precision = :precision,
			media_count = :media_count, media_hashes_json = :media_hashes_json,
			description = :description, confidence = :confidence, source_refs_json = :source_refs_json
		WHERE id = :id`, ev)
	return err
}

// ListByLocation returns every timeline event for a location, ordered for
// display.
func (r *TimelineRepo) ListByLocation(ctx context.Context, locationID string) ([]TimelineEvent, error) {
	var events []TimelineEvent
	err := r.db.SelectContext(ctx, &events, `SELECT * FROM location_timeline WHERE locid = ? ORDER BY sort_order ASC, date_start ASC`, locationID)
	return events, err
}

// MergeAuditRepo persists MergeAuditEntry rows. The table is append-only
// per SPEC_FULL.md's data-model supplement.
type MergeAuditRepo struct {
	db *sqlx.DB
}

// Append writes one merge_audit_log row, per spec.md §4.H.
func (r *MergeAuditRepo) Append(ctx context.Context, tx *sqlx.Tx, entry *MergeAuditEntry) error {
	entry.CreatedAt = time.Now().UTC()
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO merge_audit_log (
			id, survivor_id, merged_id, match_type, distance_meters, name_similarity,
			shared_tokens_json, auto_merge, blocked, fields_updated_json, created_at
		) VALUES (
			:id, :survivor_id, :merged_id, :match_type, :distance_meters, :name_similarity,
			:shared_tokens_json, :auto_merge, :blocked, :fields_updated_json, :created_at
		)`, entry)
	return err
}

// ListForEntity returns every merge audit row where entityID appears as
// either survivor or merged entity.
func (r *MergeAuditRepo) ListForEntity(ctx context.Context, entityID string) ([]MergeAuditEntry, error) {
	var rows []MergeAuditEntry
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM merge_audit_log WHERE survivor_id = ? OR merged_id = ? ORDER BY created_at ASC`,
		entityID, entityID)
	return rows, err
}
