// Package archive implements the Media Path Planner (spec.md §4.D): a
// deterministic hash-to-path mapping bucketed by the first two hex
// characters of the content hash, with guaranteed directory creation and
// an escape check. Grounded on the content-addressable bucket layout
// documented in other_examples' distribution registry path mapper
// (blobPathSpec: <root>/blobs/<algorithm>/<first two hex bytes>/<hex
// digest>) and on the teacher's per-piece-store layout in pkg/pstore.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bizzlechizzle/archivist-core/internal/errs2"
)

// ThumbnailSize names one of the three cached thumbnail tiers.
type ThumbnailSize string

const (
	ThumbnailSmall   ThumbnailSize = "sm"
	ThumbnailLarge   ThumbnailSize = "lg"
	ThumbnailPreview ThumbnailSize = "preview"
)

// Planner maps content hashes to on-disk paths under an archive root.
type Planner struct {
	root string
}

// New returns a Planner rooted at root. root is made absolute immediately
// so later escape checks are robust to working-directory changes.
func New(root string) (*Planner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errs2.IOError.Wrap(err)
	}
	return &Planner{root: abs}, nil
}

// Root returns the archive root directory.
func (p *Planner) Root() string { return p.root }

func bucket(hash string) (string, error) {
	if len(hash) < 2 {
		return "", fmt.Errorf("archive: hash %q too short to bucket", hash)
	}
	return strings.ToLower(hash[:2]), nil
}

// MediaPath returns the canonical path for a media file, given its full
// content hash and file extension (without leading dot).
func (p *Planner) MediaPath(hash, ext string) (string, error) {
	b, err := bucket(hash)
	if err != nil {
		return "", err
	}
	name := hash
	if ext != "" {
		name += "." + strings.TrimPrefix(ext, ".")
	}
	return filepath.Join(p.root, b, name), nil
}

// ThumbnailPath returns the path for a cached thumbnail of the given size
// tier.
func (p *Planner) ThumbnailPath(hash string, size ThumbnailSize) (string, error) {
	b, err := bucket(hash)
	if err != nil {
		return "", err
	}
	return filepath.Join(p.root, "thumbnails", string(size), b, hash+".jpg"), nil
}

// ProxyPath returns the path for a video playback proxy.
func (p *Planner) ProxyPath(hash string) (string, error) {
	b, err := bucket(hash)
	if err != nil {
		return "", err
	}
	return filepath.Join(p.root, "proxies", b, hash+".proxy.mp4"), nil
}

// LocationDir returns the BagIt-style per-location folder for a 16-hex
// location id.
func (p *Planner) LocationDir(locationID string) string {
	return filepath.Join(p.root, "locations", locationID)
}

// WebSourceDir returns the folder holding a web source's captured
// artifacts.
func (p *Planner) WebSourceDir(locationID, sourceID string) string {
	return filepath.Join(p.LocationDir(locationID), "web-sources", sourceID)
}

// EnsureDirectories creates the three thumbnail-tier roots (and the
// archive root itself) if missing. Any filesystem failure is wrapped with
// the path that failed, per spec.md §4.D.
func (p *Planner) EnsureDirectories() error {
	dirs := []string{
		p.root,
		filepath.Join(p.root, "thumbnails", string(ThumbnailSmall)),
		filepath.Join(p.root, "thumbnails", string(ThumbnailLarge)),
		filepath.Join(p.root, "thumbnails", string(ThumbnailPreview)),
		filepath.Join(p.root, "proxies"),
		filepath.Join(p.root, "locations"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs2.IOError.New("create directory %s: %v", dir, err)
		}
	}
	return nil
}

// EnsureParent creates the parent directory of path, if missing.
func (p *Planner) EnsureParent(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs2.IOError.New("create directory %s: %v", dir, err)
	}
	return nil
}

// ValidateArchivePath canonicalizes candidate and confirms it is a
// descendant of the archive root, per spec.md §4.D. A symlink or ".."
// component that would escape the root fails with errs2.PathEscape.
func (p *Planner) ValidateArchivePath(candidate string) (string, error) {
	abs, err := filepath.Abs(candidate)
	if err != nil {
		return "", errs2.IOError.Wrap(err)
	}

	resolved := abs
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		resolved = real
	}
	// A path that does not exist yet cannot be symlink-resolved; fall back
	// to resolving its existing parent and re-joining the missing tail.
	if _, statErr := os.Lstat(abs); os.IsNotExist(statErr) {
		resolved, err = resolveMissing(abs)
		if err != nil {
			return "", err
		}
	}

	rootResolved := p.root
	if real, err := filepath.EvalSymlinks(p.root); err == nil {
		rootResolved = real
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", errs2.PathEscape.Wrap(err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errs2.PathEscape.New("%s escapes archive root %s", candidate, p.root)
	}
	return resolved, nil
}

// resolveMissing walks up candidate's ancestors until it finds one that
// exists, resolves symlinks on that ancestor, then re-appends the missing
// tail components unresolved.
func resolveMissing(candidate string) (string, error) {
	tail := []string{}
	dir := candidate
	for {
		if _, err := os.Lstat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// reached filesystem root without finding an existing ancestor
			return candidate, nil
		}
		tail = append([]string{filepath.Base(dir)}, tail...)
		dir = parent
	}
	resolvedDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", errs2.IOError.Wrap(err)
	}
	return filepath.Join(append([]string{resolvedDir}, tail...)...), nil
}
