package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
	"github.com/bizzlechizzle/archivist-core/internal/refmap"
)

// refMapImportRequest is the payload for the "refmap.import" RPC
// method. file_path is a path on the local filesystem: the UI shell and
// core share one machine, so the core reads the file directly rather
// than accepting an upload body. Linking its points to locations runs
// separately as the ref-map-point-match job, once import has committed.
type refMapImportRequest struct {
	FilePath string `json:"file_path"`
	Importer string `json:"importer"`
}

func refMapImportMethod(repo *store.RefMapRepo) rpcMethodHandler {
	return func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req refMapImportRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}
		importer := req.Importer
		if importer == "" {
			importer = "ui"
		}

		f, err := os.Open(req.FilePath)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		return refmap.Import(ctx, repo, f, req.FilePath, importer)
	}
}
