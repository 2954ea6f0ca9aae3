// Package mediaserver implements the Media Protocol Server (spec.md
// §4.J): an http.Handler that serves archive files by absolute path,
// Range-capable, with cache headers forced to no-cache on every response so
// regenerated derivatives (thumbnails, proxies) are never served stale.
//
// The UI shell (out of scope here, per spec.md §1) is responsible for
// registering this handler against the custom media:// scheme; Go has
// no portable way to register a URL scheme outside a webview host.
package mediaserver

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/bizzlechizzle/archivist-core/internal/archive"
)

// extensionContentTypes is the extension table from spec.md §4.J, plus
// the still/map formats the Import Pipeline already classifies. An
// extension not listed here falls through to mimetype's content
// sniffing.
var extensionContentTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".gif":  "image/gif",
	".heic": "image/heic",
	".pdf":  "application/pdf",
}

// Handler serves archive files for the media:// scheme.
type Handler struct {
	log     *zap.Logger
	planner *archive.Planner
}

// New builds a Handler rooted at planner's archive directory. Every
// request path is validated against planner before the file is opened.
func New(log *zap.Logger, planner *archive.Planner) *Handler {
	return &Handler{log: log, planner: planner}
}

// ServeHTTP decodes the request path as an absolute archive file path,
// per spec.md §4.J. It 403s on a path outside the archive root and 404s
// on a miss. Every other request, video or not, is served through
// http.ServeContent, which answers a Range request with 206 Partial
// Content (this handler never reimplements RFC 7233 byte-range parsing),
// and every response has its cache headers forced to no-cache.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := decodePath(r.URL.Path)

	resolved, err := h.planner.ValidateArchivePath(path)
	if err != nil {
		h.log.Warn("rejected path outside archive root", zap.String("path", path), zap.Error(err))
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	f, fi, err := openRegular(resolved)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType(resolved))
	overwriteCacheHeaders(w)

	http.ServeContent(w, r, filepath.Base(resolved), fi.ModTime(), f)
}

// overwriteCacheHeaders forces every response to bypass caches, since
// thumbnail and proxy regeneration must be visible immediately without
// cache-invalidation games, per spec.md §4.J.
func overwriteCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

// contentType resolves a file extension to a MIME type using the
// extension table from spec.md §4.J, falling back to mimetype's content
// sniffing for anything not in that table (e.g. extensionless files).
func contentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := extensionContentTypes[ext]; ok {
		return ct
	}
	if detected, err := mimetype.DetectFile(path); err == nil {
		return detected.String()
	}
	return "application/octet-stream"
}

// openRegular opens path for reading, refusing anything that isn't a
// regular file (a directory, device, or named pipe reached by a
// manipulated path) the same way the only other serving code in this
// corpus does it.
func openRegular(path string) (*os.File, os.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !fi.Mode().IsRegular() {
		f.Close()
		return nil, nil, os.ErrNotExist
	}
	return f, fi, nil
}

// decodePath normalizes a media:// request path into a filesystem path,
// handling the leading slash net/http leaves on the URL path and
// Windows drive-letter paths that arrive as "/C:/...".
func decodePath(urlPath string) string {
	p := strings.TrimPrefix(urlPath, "/")
	if len(p) >= 2 && p[1] == ':' {
		return p // drive-letter path, e.g. "C:/archive/..."
	}
	return "/" + p
}
