package importpipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bizzlechizzle/archivist-core/internal/importpipeline"
)

func TestFolderWatcherReportsSettledFile(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var seen []string
	w, err := importpipeline.NewFolderWatcher(zaptest.NewLogger(t), func(path string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, path)
	})
	require.NoError(t, err)
	require.NoError(t, w.Add(dir))
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	target := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(target, []byte("data"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, p := range seen {
			if p == target {
				return true
			}
		}
		return false
	}, 5*time.Second, 50*time.Millisecond)
}
