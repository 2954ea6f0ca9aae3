package main

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/bizzlechizzle/archivist-core/internal/archive"
	"github.com/bizzlechizzle/archivist-core/internal/bagit"
	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
	"github.com/bizzlechizzle/archivist-core/internal/errs2"
	"github.com/bizzlechizzle/archivist-core/internal/extraction"
	"github.com/bizzlechizzle/archivist-core/internal/hashing"
	"github.com/bizzlechizzle/archivist-core/internal/importpipeline"
	"github.com/bizzlechizzle/archivist-core/internal/jobqueue"
	"github.com/bizzlechizzle/archivist-core/internal/proxy"
	"github.com/bizzlechizzle/archivist-core/internal/refmap"
	"github.com/bizzlechizzle/archivist-core/internal/thumbnail"
)

// components bundles everything a job handler needs, built once at
// startup and closed over by each queue's Handler.
type components struct {
	log        *zap.Logger
	store      *store.Store
	planner    *archive.Planner
	hasher     *hashing.Hasher
	dispatcher *extraction.Dispatcher
	proxyGen   *proxy.Generator
	session    *importpipeline.Session
}

// handlersByQueue returns the Handler for every named queue the job
// system dispatches to, per spec.md §4.F's queue list.
func (c *components) handlersByQueue() map[string]jobqueue.Handler {
	return map[string]jobqueue.Handler{
		jobqueue.QueueImport:          c.handleImport,
		jobqueue.QueueExiftool:        c.handleExiftool,
		jobqueue.QueueThumbnail:       c.handleThumbnail,
		jobqueue.QueueProxy:           c.handleProxy,
		jobqueue.QueuePerceptualHash:  c.handlePerceptualHash,
		jobqueue.QueueRefMapPointMatch: c.handleRefMapPointMatch,
		jobqueue.QueueBagItValidate:   c.handleBagItValidate,
		jobqueue.QueueExtraction:      c.handleExtraction,
		jobqueue.QueueLocationStats:   c.handleLocationStats,
	}
}

type importPayload struct {
	SessionID        string `json:"session_id"`
	ScanCeilingBytes int64  `json:"scan_ceiling_bytes"`
}

func (c *components) handleImport(ctx context.Context, payloadJSON string) (string, error) {
	var p importPayload
	if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
		return "", err
	}
	result, err := c.session.Resume(ctx, p.SessionID, p.ScanCeilingBytes)
	if err != nil {
		return "", err
	}
	return jobqueue.MarshalPayload(result)
}

// handleExiftool is a placeholder: no native EXIF-extraction helper is
// wired into this build, and the import pipeline's hash phase computes
// only content and perceptual hashes, not metadata; this
// queue exists for a future out-of-process exiftool-style helper per
// spec.md's threading model, and reports itself unavailable until one
// is configured.
func (c *components) handleExiftool(ctx context.Context, payloadJSON string) (string, error) {
	return "", errs2.ExternalHelperUnavailable.New("no exiftool helper configured")
}

type mediaFilePayload struct {
	Kind store.MediaKind `json:"kind"`
	Hash string          `json:"hash"`
	Path string          `json:"path"`
}

func (c *components) handleThumbnail(ctx context.Context, payloadJSON string) (string, error) {
	var p mediaFilePayload
	if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
		return "", err
	}
	small, large, preview, err := thumbnail.Generate(c.planner, p.Path, p.Hash)
	if err != nil {
		return "", err
	}
	if err := c.store.Media.UpdateThumbnails(ctx, p.Kind, p.Hash, small, large, preview); err != nil {
		return "", err
	}
	return jobqueue.MarshalPayload(map[string]string{"small": small, "large": large, "preview": preview})
}

func (c *components) handleProxy(ctx context.Context, payloadJSON string) (string, error) {
	var p mediaFilePayload
	if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
		return "", err
	}
	dest, err := c.proxyGen.Generate(ctx, p.Path, p.Hash)
	if err != nil {
		return "", err
	}
	return jobqueue.MarshalPayload(map[string]string{"proxy_path": dest})
}

func (c *components) handlePerceptualHash(ctx context.Context, payloadJSON string) (string, error) {
	var p mediaFilePayload
	if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
		return "", err
	}
	pHash, err := hashing.PerceptualHashFile(p.Path)
	if err != nil {
		return "", err
	}
	if err := c.store.Media.UpdatePerceptualHash(ctx, p.Kind, p.Hash, pHash); err != nil {
		return "", err
	}
	return jobqueue.MarshalPayload(map[string]string{"perceptual_hash": pHash})
}

type refMapMatchPayload struct {
	MapID string `json:"map_id"`
}

// handleRefMapPointMatch links every still-unlinked point of one
// imported reference map to its nearest known location, per spec.md
// §4.G's GPS-proximity linking rule.
func (c *components) handleRefMapPointMatch(ctx context.Context, payloadJSON string) (string, error) {
	var p refMapMatchPayload
	if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
		return "", err
	}

	points, err := c.store.RefMaps.ListUnlinkedPoints(ctx, p.MapID)
	if err != nil {
		return "", err
	}
	candidates, err := c.store.Locations.ListWithGPS(ctx)
	if err != nil {
		return "", err
	}

	linked := 0
	for _, pt := range points {
		nearest, _, ok := refmap.NearestLocation(refmap.Point{Lat: pt.Lat, Lng: pt.Lng}, candidates)
		if !ok {
			continue
		}
		if err := c.store.RefMaps.LinkPoint(ctx, pt.ID, nearest.ID); err != nil {
			return "", err
		}
		linked++
	}
	return jobqueue.MarshalPayload(map[string]int{"linked": linked, "candidates": len(points)})
}

type bagItValidatePayload struct {
	LocationID string `json:"location_id"`
	Dir        string `json:"dir"`
}

func (c *components) handleBagItValidate(ctx context.Context, payloadJSON string) (string, error) {
	var p bagItValidatePayload
	if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
		return "", err
	}
	result, err := bagit.ValidateAndRecord(ctx, p.Dir, c.hasher, c.store.Locations, p.LocationID)
	if err != nil {
		return "", err
	}
	return jobqueue.MarshalPayload(result)
}

type extractionPayload struct {
	LocationID string                   `json:"location_id"`
	Variant    store.ExtractionVariant  `json:"variant"`
	Input      string                   `json:"input"`
}

func (c *components) handleExtraction(ctx context.Context, payloadJSON string) (string, error) {
	var p extractionPayload
	if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
		return "", err
	}
	ex, err := c.dispatcher.Run(ctx, p.LocationID, p.Variant, p.Input)
	if err != nil {
		return "", err
	}
	if ex.Status == store.ExtractionFailed && ex.Error != nil {
		return "", fmt.Errorf("extraction: %s", *ex.Error)
	}
	return jobqueue.MarshalPayload(ex)
}

type locationStatsPayload struct {
	LocationID string `json:"location_id"`
}

func (c *components) handleLocationStats(ctx context.Context, payloadJSON string) (string, error) {
	var p locationStatsPayload
	if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
		return "", err
	}
	tx, err := c.store.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()
	if err := c.store.Locations.UpdateCachedCounts(ctx, tx, p.LocationID); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return jobqueue.MarshalPayload(map[string]string{"location_id": p.LocationID})
}
