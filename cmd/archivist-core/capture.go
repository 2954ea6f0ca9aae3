package main

import (
	"context"
	"encoding/json"

	"github.com/bizzlechizzle/archivist-core/internal/webarchive"
)

// captureRequest is the payload for the "webarchive.capture" RPC
// method: web-source capture is triggered on demand by the UI shell
// rather than through the job queue's fixed set of named queues.
type captureRequest struct {
	URL        string `json:"url"`
	LocationID string `json:"location_id"`
}

func captureMethod(archiver *webarchive.Archiver) rpcMethodHandler {
	return func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req captureRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}
		return archiver.Capture(ctx, req.URL, req.LocationID)
	}
}
