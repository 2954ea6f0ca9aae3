package importpipeline

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/bizzlechizzle/archivist-core/internal/archive"
	"github.com/bizzlechizzle/archivist-core/internal/hashing"
)

// defaultValidateWorkers mirrors the other phases' default parallelism.
const defaultValidateWorkers = 4

// ValidatePhase re-hashes every copied file at its archive path and
// compares it to the hash recorded in phase 2, per spec.md §4.E phase 4:
// "the copy is re-hashed from disk; a mismatch means the copy is
// corrupt." A mismatch deletes the copy to avoid leaving an orphaned,
// wrongly-named file in the archive, and the planner re-validates the
// archive path itself before any file is touched.
func ValidatePhase(ctx context.Context, planner *archive.Planner, hasher *hashing.Hasher, copies []CopyResult, workers int, isCancelled func() bool) (ValidatePhaseResult, error) {
	if workers <= 0 {
		workers = defaultValidateWorkers
	}

	results := make([]ValidateResult, len(copies))
	sem := semaphore.NewWeighted(int64(workers))
	group, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex

	for i, c := range copies {
		i, c := i, c
		if c.Status != CopyStatusCopied {
			continue
		}
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		group.Go(func() error {
			defer sem.Release(1)

			if isCancelled() {
				results[i] = ValidateResult{Hash: c.Hash}
				return nil
			}

			archivePath, err := planner.ValidateArchivePath(c.ArchivePath)
			if err != nil {
				errMsg := err.Error()
				mu.Lock()
				results[i] = ValidateResult{Hash: c.Hash, Error: &errMsg}
				mu.Unlock()
				return nil
			}

			onDisk, _, err := hasher.HashFile(archivePath)
			if err != nil {
				errMsg := err.Error()
				mu.Lock()
				results[i] = ValidateResult{Hash: c.Hash, Error: &errMsg}
				mu.Unlock()
				return nil
			}

			if onDisk != c.Hash {
				_ = os.Remove(archivePath)
				errMsg := "hash mismatch after copy: corrupt"
				mu.Lock()
				results[i] = ValidateResult{Hash: c.Hash, Valid: false, Error: &errMsg}
				mu.Unlock()
				return nil
			}

			mu.Lock()
			results[i] = ValidateResult{Hash: c.Hash, Valid: true}
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return ValidatePhaseResult{}, err
	}

	return ValidatePhaseResult{Results: results}, nil
}
