package importpipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bizzlechizzle/archivist-core/internal/archive"
	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
	"github.com/bizzlechizzle/archivist-core/internal/hashing"
	"github.com/bizzlechizzle/archivist-core/internal/importpipeline"
)

func setup(t *testing.T) (*store.Store, *archive.Planner, context.Context) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, zaptest.NewLogger(t), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	planner, err := archive.New(filepath.Join(t.TempDir(), "archive"))
	require.NoError(t, err)
	require.NoError(t, planner.EnsureDirectories())

	return s, planner, ctx
}

func writeSourceFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScanClassifiesAndFlagsHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "photo.jpg", "fake-jpeg-bytes")
	writeSourceFile(t, dir, ".DS_Store", "junk")
	writeSourceFile(t, dir, "clip.srt", "1\n00:00:00,000 --> 00:00:01,000\nhi\n")

	result, err := importpipeline.Scan([]string{dir}, 0)
	require.NoError(t, err)
	require.Equal(t, 3, result.TotalCount)

	byName := map[string]importpipeline.ScanItem{}
	for _, item := range result.Items {
		byName[filepath.Base(item.Path)] = item
	}

	require.Equal(t, "image", byName["photo.jpg"].DetectedKind)
	require.False(t, byName["photo.jpg"].Hidden)
	require.True(t, byName[".DS_Store"].Hidden)
	require.Equal(t, importpipeline.HiddenReasonDotfile, byName[".DS_Store"].HiddenReason)
	require.True(t, byName["clip.srt"].Hidden)
	require.Equal(t, importpipeline.HiddenReasonMetadataSidecar, byName["clip.srt"].HiddenReason)
}

func TestScanFlagsFilesOverCeiling(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "big.bin", "0123456789")

	result, err := importpipeline.Scan([]string{dir}, 5)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.True(t, result.Items[0].Hidden)
	require.Equal(t, importpipeline.HiddenReasonOverCeiling, result.Items[0].HiddenReason)
}

func TestHashPhaseProducesDeterministicHashes(t *testing.T) {
	dir := t.TempDir()
	path := writeSourceFile(t, dir, "a.txt", "hello archivist")

	items := []importpipeline.ScanItem{{Path: path, DetectedKind: "document"}}
	hasher := hashing.New(0)

	result, err := importpipeline.HashPhase(context.Background(), hasher, items, 0, func() bool { return false })
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	require.Nil(t, result.Results[0].Error)
	require.Len(t, result.Results[0].Hash, 64)

	result2, err := importpipeline.HashPhase(context.Background(), hasher, items, 0, func() bool { return false })
	require.NoError(t, err)
	require.Equal(t, result.Results[0].Hash, result2.Results[0].Hash)
}

func TestFullPipelineImportsAndDedupesOnSecondRun(t *testing.T) {
	s, planner, ctx := setup(t)

	srcDir := t.TempDir()
	writeSourceFile(t, srcDir, "note.txt", "a document worth keeping")

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	loc := &store.Location{ID: "1111222233334444", Name: "Test Site", CreatedBy: "tester"}
	require.NoError(t, s.Locations.Create(ctx, tx, loc))
	require.NoError(t, tx.Commit())

	hasher := hashing.New(0)
	sess := importpipeline.NewSession(zaptest.NewLogger(t), s, planner, hasher, 0)

	result, err := sess.Start(ctx, &store.ImportSession{ID: "sess-1", TargetLocationID: loc.ID}, []string{srcDir}, 0)
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)
	require.Equal(t, 0, result.Duplicate)
	require.Equal(t, 0, result.Corrupt)

	result2, err := sess.Start(ctx, &store.ImportSession{ID: "sess-2", TargetLocationID: loc.ID}, []string{srcDir}, 0)
	require.NoError(t, err)
	require.Equal(t, 0, result2.Imported)
	require.Equal(t, 1, result2.Duplicate)

	got, err := s.Locations.Get(ctx, loc.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.CountDocs)
}

func TestFullPipelineDetectsCorruptionAndRemovesOrphan(t *testing.T) {
	s, planner, ctx := setup(t)

	srcDir := t.TempDir()
	path := writeSourceFile(t, srcDir, "doc.txt", "content to corrupt")

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	loc := &store.Location{ID: "5555666677778888", Name: "Corrupt Site", CreatedBy: "tester"}
	require.NoError(t, s.Locations.Create(ctx, tx, loc))
	require.NoError(t, tx.Commit())

	hasher := hashing.New(0)

	scanResult, err := importpipeline.Scan([]string{path}, 0)
	require.NoError(t, err)
	hashResult, err := importpipeline.HashPhase(ctx, hasher, scanResult.Items, 0, func() bool { return false })
	require.NoError(t, err)

	existsFn := func(ctx context.Context, hash string) (bool, error) {
		_, ok, err := s.Media.FindAnyExisting(ctx, hash)
		return ok, err
	}
	copyResult, copied, err := importpipeline.CopyPhase(ctx, planner, scanResult.Items, hashResult, existsFn, 0, func() bool { return false })
	require.NoError(t, err)
	require.Len(t, copied, 1)

	require.NoError(t, os.WriteFile(copied[0], []byte("tampered bytes"), 0o644))

	validateResult, err := importpipeline.ValidatePhase(ctx, planner, hasher, copyResult.Results, 0, func() bool { return false })
	require.NoError(t, err)
	require.False(t, validateResult.Results[0].Valid)

	_, statErr := os.Stat(copied[0])
	require.Error(t, statErr, "a corrupt copy must be removed from the archive")
}
