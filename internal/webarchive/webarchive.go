// Package webarchive implements the Web-Source Archiver (spec.md
// §4.L): given a URL tied to a location, it fetches and stores four
// artifacts (screenshot, PDF, single-file HTML, WARC), extracts
// page-level metadata and full text for search indexing, and versions
// re-captures by comparing content hashes.
package webarchive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/bizzlechizzle/archivist-core/internal/archive"
	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
	"github.com/bizzlechizzle/archivist-core/internal/errs2"
	"github.com/bizzlechizzle/archivist-core/internal/hashing"
)

// Archiver captures a URL into the four archive components.
type Archiver struct {
	log        *zap.Logger
	httpClient *http.Client
	planner    *archive.Planner
	hasher     *hashing.Hasher
	sources    *store.WebSourceRepo
	db         *store.Store

	// Screenshot and PDF capture need a real rendering engine this
	// process doesn't provide; ScreenshotCmd/PDFCmd are external
	// subprocess templates (e.g. a headless browser binary) supplied by
	// configuration. A nil command makes that component's capture a
	// no-op warning rather than a fatal error, per spec.md §7's
	// ExternalHelperUnavailable class.
	ScreenshotCmd ExternalCommand
	PDFCmd        ExternalCommand
}

// New builds an Archiver.
func New(log *zap.Logger, s *store.Store, planner *archive.Planner, hasher *hashing.Hasher) *Archiver {
	return &Archiver{
		log:        log,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		planner:    planner,
		hasher:     hasher,
		sources:    s.WebSources,
		db:         s,
	}
}

// Capture fetches url, stores its four artifacts under the location's
// web-sources folder, extracts metadata and text, and upserts the
// web_sources row plus a new web_source_versions record, per spec.md
// §4.L.
func (a *Archiver) Capture(ctx context.Context, url, locationID string) (*store.WebSource, error) {
	id := hashing.NewEntityID(url)
	dir := a.planner.WebSourceDir(locationID, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs2.IOError.Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs2.IOError.Wrap(err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, errs2.IOError.Wrap(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs2.CorruptInput.Wrap(err)
	}

	doc, err := html.Parse(bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, errs2.CorruptInput.Wrap(err)
	}
	metadata := ExtractMetadata(doc)
	extractedText := ExtractText(doc)

	now := time.Now().UTC()
	componentStatus := map[string]string{}

	htmlPath, htmlHash, err := a.writeCompressed(filepath.Join(dir, "page.html.zst"), bodyBytes)
	if err != nil {
		return nil, err
	}
	componentStatus["html"] = "complete"

	warcPath, warcHash, err := a.captureWARC(dir, url, now, resp, bodyBytes)
	if err != nil {
		componentStatus["warc"] = "failed"
	} else {
		componentStatus["warc"] = "complete"
	}

	screenshotPath, screenshotHash := a.captureExternal(ctx, a.ScreenshotCmd, url, filepath.Join(dir, "screenshot.png"), componentStatus, "screenshot")
	pdfPath, pdfHash := a.captureExternal(ctx, a.PDFCmd, url, filepath.Join(dir, "capture.pdf"), componentStatus, "pdf")

	componentStatusJSON, err := json.Marshal(componentStatus)
	if err != nil {
		return nil, err
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}

	ws := &store.WebSource{
		ID:                  id,
		URL:                 url,
		LocationID:          locationID,
		SourceType:          "webpage",
		Status:              overallStatus(componentStatus),
		ComponentStatusJSON: string(componentStatusJSON),
		ExtractedText:       strPtr(extractedText),
		ScreenshotPath:      screenshotPath,
		ScreenshotHash:      screenshotHash,
		PDFPath:             pdfPath,
		PDFHash:             pdfHash,
		HTMLPath:            strPtr(htmlPath),
		HTMLHash:            strPtr(htmlHash),
		WARCPath:            strPtr(warcPath),
		WARCHash:            strPtr(warcHash),
		MetadataJSON:        strPtr(string(metadataJSON)),
	}
	if metadata.Title != "" {
		ws.Title = strPtr(metadata.Title)
	}

	previous, err := a.sources.LatestVersion(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := a.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := a.sources.Upsert(ctx, tx, ws); err != nil {
		return nil, err
	}

	version := &store.WebSourceVersion{
		ID:             hashing.NewEntityID(fmt.Sprintf("%s:%d", id, now.UnixNano())),
		WebSourceID:    id,
		ScreenshotHash: screenshotHash,
		PDFHash:        pdfHash,
		HTMLHash:       strPtr(htmlHash),
		WARCHash:       strPtr(warcHash),
		ContentChanged: previous == nil || previous.HTMLHash == nil || *previous.HTMLHash != htmlHash,
	}
	if err := a.sources.AppendVersion(ctx, tx, version); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ws, nil
}

// captureWARC writes a one-page WARC/1.1 capture of the fetched
// response to dir/page.warc.zst and hashes it.
func (a *Archiver) captureWARC(dir, url string, capturedAt time.Time, resp *http.Response, body []byte) (path, hash string, err error) {
	var raw bytes.Buffer
	fmt.Fprintf(&raw, "HTTP/1.1 %d %s\r\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	for k, vs := range resp.Header {
		for _, v := range vs {
			fmt.Fprintf(&raw, "%s: %s\r\n", k, v)
		}
	}
	raw.WriteString("\r\n")
	raw.Write(body)

	var warcBuf bytes.Buffer
	if err := WriteWARC(&warcBuf, url, capturedAt, raw.Bytes()); err != nil {
		return "", "", err
	}
	return a.writeCompressed(filepath.Join(dir, "page.warc.zst"), warcBuf.Bytes())
}

// captureExternal runs an optional external helper command (screenshot
// or PDF rendering). A failure or unconfigured command is recorded as a
// non-fatal per-component status rather than aborting the capture, per
// spec.md §7.
func (a *Archiver) captureExternal(ctx context.Context, cmd ExternalCommand, url, outputPath string, status map[string]string, label string) (path, hash *string) {
	if err := cmd.run(ctx, url, outputPath); err != nil {
		a.log.Warn("external capture helper unavailable", zap.String("component", label), zap.Error(err))
		status[label] = "failed"
		return nil, nil
	}
	h, _, err := a.hasher.HashFile(outputPath)
	if err != nil {
		status[label] = "failed"
		return nil, nil
	}
	status[label] = "complete"
	return strPtr(outputPath), strPtr(h)
}

// writeCompressed zstd-compresses content to path and returns the path
// and content hash (computed on the uncompressed bytes, so re-capture
// comparisons are insensitive to compression-level changes).
func (a *Archiver) writeCompressed(path string, content []byte) (string, string, error) {
	hash, _, err := a.hasher.HashReader(bytes.NewReader(content))
	if err != nil {
		return "", "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", "", errs2.IOError.Wrap(err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return "", "", errs2.IOError.Wrap(err)
	}
	if _, err := enc.Write(content); err != nil {
		enc.Close()
		return "", "", errs2.IOError.Wrap(err)
	}
	if err := enc.Close(); err != nil {
		return "", "", errs2.IOError.Wrap(err)
	}
	return path, hash, nil
}

// overallStatus rolls the per-component results into one status. HTML
// is the only component this process can always produce itself, so its
// failure is the only one that fails the whole capture; screenshot/PDF
// depend on an external helper that may simply not be installed, and
// their absence still leaves a usable archive.
func overallStatus(componentStatus map[string]string) store.WebSourceStatus {
	if componentStatus["html"] != "complete" {
		return store.WebSourceFailed
	}
	return store.WebSourceComplete
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
