package importpipeline

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/bizzlechizzle/archivist-core/internal/hashing"
)

// defaultHashWorkers matches spec.md §4.E phase 2's "default 4 workers".
const defaultHashWorkers = 4

// HashPhase computes BLAKE3 (and, for images, the perceptual hash) for
// every scanned item with bounded parallelism. Single-file failures are
// recorded in the per-item Error field and never stop the phase, per
// spec.md §4.E phase 2. isCancelled is polled between items.
func HashPhase(ctx context.Context, hasher *hashing.Hasher, items []ScanItem, workers int, isCancelled func() bool) (HashPhaseResult, error) {
	if workers <= 0 {
		workers = defaultHashWorkers
	}

	results := make([]HashResult, len(items))
	sem := semaphore.NewWeighted(int64(workers))
	group, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var cancelled bool

	for i, item := range items {
		i, item := i, item
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		group.Go(func() error {
			defer sem.Release(1)

			mu.Lock()
			stop := cancelled || isCancelled()
			mu.Unlock()
			if stop {
				mu.Lock()
				cancelled = true
				mu.Unlock()
				results[i] = HashResult{ScanIndex: i}
				return nil
			}

			full, _, err := hasher.HashFile(item.Path)
			if err != nil {
				errMsg := err.Error()
				results[i] = HashResult{ScanIndex: i, Error: &errMsg}
				return nil
			}

			hr := HashResult{ScanIndex: i, Hash: full}
			if item.DetectedKind == "image" {
				if ph, err := perceptualHashOf(item.Path); err == nil {
					hr.PerceptualHash = &ph
				}
			}
			results[i] = hr
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return HashPhaseResult{}, err
	}

	return HashPhaseResult{Results: results}, nil
}

func perceptualHashOf(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	return hashing.PerceptualHash(img)
}
