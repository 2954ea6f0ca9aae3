// Package timeline implements the Timeline Merger (spec.md §4.I):
// window-based consolidation of dated events into one timeline per
// location, preferring higher precision and combining provenance.
package timeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
)

// defaultMergeWindowDays is spec.md §4.I's configurable default.
const defaultMergeWindowDays = 365

// descriptionPrefixLen is the "leading 50-character prefix" spec.md
// names for the already-present check before concatenating descriptions.
const descriptionPrefixLen = 50

// cellphoneMakes auto-approve their events on creation: their capture
// date is trustworthy without human review.
var cellphoneMakes = map[string]bool{
	"apple": true, "samsung": true, "google": true, "oneplus": true,
}

// filmScannerMakes are excluded from backfill entirely: their EXIF date
// reflects when the print was scanned, not when the photo was taken.
var filmScannerMakes = map[string]bool{
	"noritsu": true, "fuji frontier": true, "epson": true,
}

// ShouldBackfill reports whether an image's camera make is eligible for
// timeline backfill, per spec.md §4.I.
func ShouldBackfill(cameraMake string) bool {
	return !filmScannerMakes[strings.ToLower(cameraMake)]
}

func autoApprove(cameraMake string) bool {
	return cellphoneMakes[strings.ToLower(cameraMake)]
}

// NewEvent builds a fresh, unmerged timeline event for one dated item.
func NewEvent(id, locationID, eventType, cameraMake string, date time.Time, precision store.DatePrecision, mediaHash string, sourceRef string) (*store.TimelineEvent, error) {
	hashesJSON, err := json.Marshal([]string{mediaHash})
	if err != nil {
		return nil, err
	}
	refsJSON, err := json.Marshal([]string{sourceRef})
	if err != nil {
		return nil, err
	}
	return &store.TimelineEvent{
		ID:              id,
		LocationID:      locationID,
		Type:            eventType,
		DateStart:       date,
		Precision:       precision,
		SourceType:      "image_backfill",
		MediaCount:      1,
		MediaHashesJSON: string(hashesJSON),
		AutoApproved:    autoApprove(cameraMake),
		Confidence:      1.0,
		SourceRefsJSON:  string(refsJSON),
	}, nil
}

// Upsert finds an existing event within the merge window and folds ev
// into it, or inserts ev as a new event if none is found, per spec.md
// §4.I's merge rule.
func Upsert(ctx context.Context, repo *store.TimelineRepo, ev *store.TimelineEvent, windowDays int) error {
	if windowDays <= 0 {
		windowDays = defaultMergeWindowDays
	}

	existing, err := repo.FindMatching(ctx, ev.LocationID, ev.Type, ev.DateStart, windowDays)
	if err != nil {
		return err
	}
	if existing == nil {
		return repo.Create(ctx, ev)
	}

	merged, err := Combine(existing, ev)
	if err != nil {
		return err
	}
	return repo.Update(ctx, merged)
}

// Combine merges new into existing per spec.md §4.I: source refs union,
// higher-precision date wins, descriptions concatenate only when
// substantially different, confidence takes the max.
func Combine(existing, next *store.TimelineEvent) (*store.TimelineEvent, error) {
	merged := *existing

	if store.HigherPrecision(next.Precision, existing.Precision) {
		merged.DateStart = next.DateStart
		merged.DateEnd = next.DateEnd
		merged.Precision = next.Precision
	}

	mediaHashes, err := unionJSONStrings(existing.MediaHashesJSON, next.MediaHashesJSON)
	if err != nil {
		return nil, err
	}
	mediaHashesJSON, err := json.Marshal(mediaHashes)
	if err != nil {
		return nil, err
	}
	merged.MediaHashesJSON = string(mediaHashesJSON)
	merged.MediaCount = len(mediaHashes)

	sourceRefs, err := unionJSONStrings(existing.SourceRefsJSON, next.SourceRefsJSON)
	if err != nil {
		return nil, err
	}
	sourceRefsJSON, err := json.Marshal(sourceRefs)
	if err != nil {
		return nil, err
	}
	merged.SourceRefsJSON = string(sourceRefsJSON)

	merged.Description = mergeDescriptions(existing.Description, next.Description)

	if next.Confidence > merged.Confidence {
		merged.Confidence = next.Confidence
	}

	return &merged, nil
}

// unionJSONStrings decodes two JSON string-array columns and returns
// their deduplicated union, satisfying Invariant 8's "source_refs is
// always a set" rule.
func unionJSONStrings(a, b string) ([]string, error) {
	var aVals, bVals []string
	if a != "" {
		if err := json.Unmarshal([]byte(a), &aVals); err != nil {
			return nil, err
		}
	}
	if b != "" {
		if err := json.Unmarshal([]byte(b), &bVals); err != nil {
			return nil, err
		}
	}
	seen := make(map[string]bool, len(aVals)+len(bVals))
	var result []string
	for _, v := range append(aVals, bVals...) {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result, nil
}

// mergeDescriptions concatenates next onto existing only when next's
// leading descriptionPrefixLen-byte prefix is not already present in
// existing, per spec.md §4.I.
func mergeDescriptions(existing, next *string) *string {
	if next == nil || *next == "" {
		return existing
	}
	if existing == nil || *existing == "" {
		return next
	}

	prefix := *next
	if len(prefix) > descriptionPrefixLen {
		prefix = prefix[:descriptionPrefixLen]
	}
	if strings.Contains(*existing, prefix) {
		return existing
	}

	combined := *existing + "; " + *next
	return &combined
}
