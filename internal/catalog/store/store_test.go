package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
)

func openStore(t *testing.T) (*store.Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := store.Open(ctx, zaptest.NewLogger(t), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, ctx
}

func TestOpenRunsMigrationsAndIsReopenable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	s1, err := store.Open(ctx, log, path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := store.Open(ctx, log, path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestCreateLocationAndCascadeDelete(t *testing.T) {
	s, ctx := openStore(t)

	loc := &store.Location{ID: "0123456789abcdef", Name: "Old Quarry Hospital", CreatedBy: "tester"}
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Locations.Create(ctx, tx, loc))
	require.NoError(t, tx.Commit())

	got, err := s.Locations.Get(ctx, loc.ID)
	require.NoError(t, err)
	require.Equal(t, "Old Quarry Hospital", got.Name)

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	media := &store.Media{
		Hash: "ab00000000000000000000000000000000000000000000000000000000ff",
		Kind: store.MediaImage, OriginalFilename: "a.jpg", CanonicalFilename: "a.jpg",
		ArchivePath: "/archive/ab/ab00.jpg", OriginalPath: "/src/a.jpg",
		LocationID: loc.ID, ImportedAt: time.Now().UTC(),
	}
	inserted, err := s.Media.InsertIfAbsent(ctx, tx, media)
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, tx.Commit())

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	counts, err := s.Locations.DeleteCascade(ctx, tx, loc.ID, "tester")
	require.NoError(t, err)
	require.Equal(t, 1, counts["imgs"])
	require.NoError(t, tx.Commit())

	n, err := s.Media.CountByHash(ctx, media.Hash)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestMediaInsertIfAbsentIsIdempotentUnderDuplicateHash(t *testing.T) {
	s, ctx := openStore(t)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Locations.Create(ctx, tx, &store.Location{ID: "fedcba9876543210", Name: "Site", CreatedBy: "t"}))
	require.NoError(t, tx.Commit())

	hash := "cc00000000000000000000000000000000000000000000000000000000ff"
	newMedia := func() *store.Media {
		return &store.Media{
			Hash: hash, Kind: store.MediaImage, OriginalFilename: "x.jpg", CanonicalFilename: "x.jpg",
			ArchivePath: "/archive/cc/cc00.jpg", OriginalPath: "/src/x.jpg",
			LocationID: "fedcba9876543210", ImportedAt: time.Now().UTC(),
		}
	}

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	inserted, err := s.Media.InsertIfAbsent(ctx, tx, newMedia())
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, tx.Commit())

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	inserted, err = s.Media.InsertIfAbsent(ctx, tx, newMedia())
	require.NoError(t, err)
	require.False(t, inserted, "second insert of the same hash must be a no-op duplicate")
	require.NoError(t, tx.Commit())

	n, err := s.Media.CountByHash(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestJobClaimNextGrantsExactlyOneWorker(t *testing.T) {
	s, ctx := openStore(t)

	job := &store.Job{ID: "job-1", Queue: "import", Priority: 1, PayloadJSON: `{}`, MaxAttempts: 3}
	require.NoError(t, s.Jobs.Enqueue(ctx, s.DB, job))

	now := time.Now().UTC()
	claimed1, err := s.Jobs.ClaimNext(ctx, "import", "worker-a", now)
	require.NoError(t, err)
	require.NotNil(t, claimed1)

	claimed2, err := s.Jobs.ClaimNext(ctx, "import", "worker-b", now)
	require.NoError(t, err)
	require.Nil(t, claimed2, "a second worker must not claim an already-processing job")
}

func TestJobDependencyNotCompletedBlocksClaim(t *testing.T) {
	s, ctx := openStore(t)

	require.NoError(t, s.Jobs.Enqueue(ctx, s.DB, &store.Job{ID: "antecedent", Queue: "import", PayloadJSON: `{}`, MaxAttempts: 3}))
	dep := "antecedent"
	require.NoError(t, s.Jobs.Enqueue(ctx, s.DB, &store.Job{ID: "dependent", Queue: "import", PayloadJSON: `{}`, MaxAttempts: 3, DependsOn: &dep}))

	now := time.Now().UTC()
	claimed, err := s.Jobs.ClaimNext(ctx, "import", "worker-a", now)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	require.Equal(t, "antecedent", claimed.ID, "the dependent job must not be claimable before its antecedent completes")
}
