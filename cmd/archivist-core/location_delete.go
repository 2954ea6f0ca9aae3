package main

import (
	"context"
	"encoding/json"

	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
)

// locationDeleteRequest is the payload for the "location.delete" RPC
// method: the Lifecycle rule's hard-delete path writes the
// location_deletion_log row and removes the location (and everything
// ON DELETE CASCADE reaches from it) in one transaction.
type locationDeleteRequest struct {
	LocationID string `json:"location_id"`
	DeletedBy  string `json:"deleted_by"`
}

func locationDeleteMethod(s *store.Store) rpcMethodHandler {
	return func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req locationDeleteRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}

		tx, err := s.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		counts, err := s.Locations.DeleteCascade(ctx, tx, req.LocationID, req.DeletedBy)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}

		return map[string]any{"location_id": req.LocationID, "child_counts": counts}, nil
	}
}
