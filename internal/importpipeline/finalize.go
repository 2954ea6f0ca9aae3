package importpipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
)

// FinalizeInput carries everything Finalize needs to reconcile a
// completed Copy/Validate pass into the catalog.
type FinalizeInput struct {
	SessionID        string
	TargetLocationID string
	ImporterIdentity string
	ImportSource     string
	Items            []ScanItem
	Hashes           HashPhaseResult
	Copies           CopyPhaseResult
	Validations      ValidatePhaseResult
}

// Finalize runs the single commit transaction of spec.md §4.E phase 5:
// every validated, non-duplicate item is inserted into the catalog,
// reattached to its target location, the location's cached counts are
// recomputed, and the session is marked complete. Duplicates are
// counted; corrupt copies are counted and, like per-file errors, folded
// into ImportResult as warnings rather than failing the whole import.
func Finalize(ctx context.Context, db *sqlx.DB, media *store.MediaRepo, locations *store.LocationRepo, sessions *store.ImportSessionRepo, in FinalizeInput) (ImportResult, error) {
	var result ImportResult

	byHash := make(map[string]ValidateResult, len(in.Validations.Results))
	for _, v := range in.Validations.Results {
		byHash[v.Hash] = v
	}
	copyByHash := make(map[string]CopyResult, len(in.Copies.Results))
	for _, c := range in.Copies.Results {
		if c.Hash != "" {
			copyByHash[c.Hash] = c
		}
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return result, err
	}
	defer tx.Rollback()

	for _, hr := range in.Hashes.Results {
		item := in.Items[hr.ScanIndex]

		if hr.Error != nil {
			result.Warnings = append(result.Warnings, Warning{Item: item.Path, Kind: "hash_error", Err: *hr.Error})
			continue
		}

		copyRes, ok := copyByHash[hr.Hash]
		if !ok {
			continue // cancelled before this item reached copy
		}

		switch copyRes.Status {
		case CopyStatusDuplicate:
			result.Duplicate++
			continue
		case CopyStatusError:
			errMsg := ""
			if copyRes.Error != nil {
				errMsg = *copyRes.Error
			}
			result.Warnings = append(result.Warnings, Warning{Item: item.Path, Kind: "copy_error", Err: errMsg})
			continue
		}

		v, ok := byHash[hr.Hash]
		if !ok || !v.Valid {
			result.Corrupt++
			errMsg := "validation did not pass"
			if ok && v.Error != nil {
				errMsg = *v.Error
			}
			result.Warnings = append(result.Warnings, Warning{Item: item.Path, Kind: "corrupt", Err: errMsg})
			continue
		}

		m := &store.Media{
			Hash:             hr.Hash,
			Kind:             mediaKindOf(item.DetectedKind),
			OriginalFilename: item.Path,
			ArchivePath:      copyRes.ArchivePath,
			OriginalPath:     item.Path,
			LocationID:       in.TargetLocationID,
			ImporterIdentity: in.ImporterIdentity,
			ImportSource:     in.ImportSource,
			Hidden:           item.Hidden,
			FileSizeBytes:    item.Bytes,
			PerceptualHash:   hr.PerceptualHash,
			ImportedAt:       time.Now().UTC(),
		}
		if item.Hidden {
			reason := string(item.HiddenReason)
			m.HiddenReason = &reason
		}

		inserted, err := media.InsertIfAbsent(ctx, tx, m)
		if err != nil {
			return result, err
		}
		if inserted {
			result.Imported++
		} else {
			result.Duplicate++
		}
	}

	if err := locations.UpdateCachedCounts(ctx, tx, in.TargetLocationID); err != nil {
		return result, err
	}

	resultJSON, err := json.Marshal(FinalizePhaseResult{Result: result})
	if err != nil {
		return result, err
	}
	if err := sessions.Complete(ctx, tx, in.SessionID, string(resultJSON)); err != nil {
		return result, err
	}

	if err := tx.Commit(); err != nil {
		return result, err
	}
	return result, nil
}

func mediaKindOf(detected string) store.MediaKind {
	switch detected {
	case "image":
		return store.MediaImage
	case "video":
		return store.MediaVideo
	case "map":
		return store.MediaMap
	default:
		return store.MediaDocument
	}
}
