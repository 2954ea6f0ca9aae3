package importpipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/bizzlechizzle/archivist-core/internal/archive"
)

// defaultCopyWorkers mirrors the Hash phase's default parallelism; the
// spec gives no separate figure for Copy so the same bound is reused.
const defaultCopyWorkers = 4

// ExistsChecker reports whether a content hash is already present in the
// catalog, used to short-circuit a copy as a duplicate.
type ExistsChecker func(ctx context.Context, hash string) (bool, error)

// CopyPhase copies every non-duplicate hashed item to its Media Path
// Planner destination, atomically (tmp-neighbor then rename), per
// spec.md §4.E phase 3. Per-file errors are recorded and do not stop the
// phase.
func CopyPhase(ctx context.Context, planner *archive.Planner, items []ScanItem, hashes HashPhaseResult, exists ExistsChecker, workers int, isCancelled func() bool) (CopyPhaseResult, []string, error) {
	if workers <= 0 {
		workers = defaultCopyWorkers
	}

	results := make([]CopyResult, len(hashes.Results))
	var copiedPaths []string
	var mu sync.Mutex

	sem := semaphore.NewWeighted(int64(workers))
	group, gctx := errgroup.WithContext(ctx)

	for i, hr := range hashes.Results {
		i, hr := i, hr
		if hr.Hash == "" {
			continue // hash phase failed or was cancelled for this item
		}
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		group.Go(func() error {
			defer sem.Release(1)

			if isCancelled() {
				return nil
			}

			already, err := exists(gctx, hr.Hash)
			if err != nil {
				errMsg := err.Error()
				mu.Lock()
				results[i] = CopyResult{Hash: hr.Hash, Status: CopyStatusError, Error: &errMsg}
				mu.Unlock()
				return nil
			}
			if already {
				mu.Lock()
				results[i] = CopyResult{Hash: hr.Hash, Status: CopyStatusDuplicate}
				mu.Unlock()
				return nil
			}

			ext := strings.TrimPrefix(filepath.Ext(items[hr.ScanIndex].Path), ".")
			dest, err := planner.MediaPath(hr.Hash, ext)
			if err != nil {
				errMsg := err.Error()
				mu.Lock()
				results[i] = CopyResult{Hash: hr.Hash, Status: CopyStatusError, Error: &errMsg}
				mu.Unlock()
				return nil
			}

			if err := atomicCopy(planner, items[hr.ScanIndex].Path, dest, items[hr.ScanIndex].Mtime); err != nil {
				errMsg := err.Error()
				mu.Lock()
				results[i] = CopyResult{Hash: hr.Hash, Status: CopyStatusError, Error: &errMsg}
				mu.Unlock()
				return nil
			}

			mu.Lock()
			results[i] = CopyResult{Hash: hr.Hash, ArchivePath: dest, Status: CopyStatusCopied}
			copiedPaths = append(copiedPaths, dest)
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return CopyPhaseResult{}, copiedPaths, err
	}

	return CopyPhaseResult{Results: results}, copiedPaths, nil
}

// atomicCopy writes src's bytes to a tmp neighbor of dest, then renames
// into place, per spec.md §4.E phase 3: "Every copy is atomic: write to
// tmp neighbor then rename." mtime is preserved on the final file.
func atomicCopy(planner *archive.Planner, src, dest string, mtime time.Time) error {
	if err := planner.EnsureParent(dest); err != nil {
		return err
	}

	tmp := dest + ".tmp"
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return err
	}

	_ = os.Chtimes(dest, mtime, mtime)
	return nil
}
