package merge_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
	"github.com/bizzlechizzle/archivist-core/internal/merge"
)

func openStore(t *testing.T) (*store.Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, zaptest.NewLogger(t), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, ctx
}

func createLocation(t *testing.T, s *store.Store, ctx context.Context, loc *store.Location) {
	t.Helper()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Locations.Create(ctx, tx, loc))
	require.NoError(t, tx.Commit())
}

func TestEvaluateMatchesOnGPSProximity(t *testing.T) {
	s, ctx := openStore(t)

	lat1, lng1 := 42.65430, -71.12340
	lat2, lng2 := 42.65431, -71.12341 // a few meters away

	a := &store.Location{ID: "aaaaaaaaaaaaaaaa", Name: "Old Quarry Hospital", CreatedBy: "t", GPSLat: &lat1, GPSLng: &lng1}
	b := &store.Location{ID: "bbbbbbbbbbbbbbbb", Name: "Completely Different Name", CreatedBy: "t", GPSLat: &lat2, GPSLng: &lng2}

	c, err := merge.Evaluate(ctx, s.Exclusions, a, b)
	require.NoError(t, err)
	require.NotNil(t, c)
	require.Equal(t, store.MatchGPS, c.MatchType)
	require.True(t, c.AutoMerge)
}

func TestEvaluateMatchesOnNameSimilarityAndTokenOverlap(t *testing.T) {
	s, ctx := openStore(t)

	a := &store.Location{ID: "cccccccccccccccc", Name: "Riverside Textile Mill", CreatedBy: "t"}
	b := &store.Location{ID: "dddddddddddddddd", Name: "Riverside Textile Mills", CreatedBy: "t"}

	c, err := merge.Evaluate(ctx, s.Exclusions, a, b)
	require.NoError(t, err)
	require.NotNil(t, c)
	require.Equal(t, store.MatchName, c.MatchType)
	require.False(t, c.AutoMerge)
}

func TestEvaluateReturnsNilForUnrelatedLocations(t *testing.T) {
	s, ctx := openStore(t)

	a := &store.Location{ID: "eeeeeeeeeeeeeeee", Name: "Old Quarry Hospital", CreatedBy: "t"}
	b := &store.Location{ID: "ffffffffffffffff", Name: "Seaside Lighthouse", CreatedBy: "t"}

	c, err := merge.Evaluate(ctx, s.Exclusions, a, b)
	require.NoError(t, err)
	require.Nil(t, c)
}

func TestEvaluateHonorsExclusionOverride(t *testing.T) {
	s, ctx := openStore(t)

	require.NoError(t, s.Exclusions.Add(ctx, &store.LocationExclusion{
		ID: "exc-1", NameA: "Old Quarry Hospital", NameB: "Old Quarry Hospital Annex",
		Decision: "different_place", DecidedBy: "tester",
	}))

	a := &store.Location{ID: "1010101010101010", Name: "Old Quarry Hospital", CreatedBy: "t"}
	b := &store.Location{ID: "2020202020202020", Name: "Old Quarry Hospital Annex", CreatedBy: "t"}

	c, err := merge.Evaluate(ctx, s.Exclusions, a, b)
	require.NoError(t, err)
	require.NotNil(t, c)
	require.True(t, c.Blocked)
}

func TestEvaluateDowngradesGenericNameMatchWithoutSecondSignal(t *testing.T) {
	s, ctx := openStore(t)

	a := &store.Location{ID: "eeeeeeeeeeeeeeee", Name: "Old Barn", CreatedBy: "t"}
	b := &store.Location{ID: "ffffffffffffffff", Name: "Old Barn", CreatedBy: "t"}

	c, err := merge.Evaluate(ctx, s.Exclusions, a, b)
	require.NoError(t, err)
	require.Nil(t, c, "two generically-named locations with no GPS or state signal must not match")
}

func TestEvaluateAcceptsGenericNameMatchOnSameState(t *testing.T) {
	s, ctx := openStore(t)

	stateA, stateB := "VT", "vt"
	a := &store.Location{ID: "1111111111111111", Name: "Old Mill", CreatedBy: "t", AddrState: &stateA}
	b := &store.Location{ID: "2222222222222222", Name: "Old Mill", CreatedBy: "t", AddrState: &stateB}

	c, err := merge.Evaluate(ctx, s.Exclusions, a, b)
	require.NoError(t, err)
	require.NotNil(t, c)
	require.Equal(t, store.MatchName, c.MatchType)
}

func TestMergeReattachesChildrenAndDeletesLoser(t *testing.T) {
	s, ctx := openStore(t)

	survivor := &store.Location{ID: "3030303030303030", Name: "Old Quarry Hospital", CreatedBy: "t"}
	loser := &store.Location{ID: "4040404040404040", Name: "Old Quarry Hospital Annex", CreatedBy: "t"}
	createLocation(t, s, ctx, survivor)
	createLocation(t, s, ctx, loser)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	inserted, err := s.Media.InsertIfAbsent(ctx, tx, &store.Media{
		Hash: "dd00000000000000000000000000000000000000000000000000000000ff",
		Kind: store.MediaImage, OriginalFilename: "a.jpg", CanonicalFilename: "a.jpg",
		ArchivePath: "/archive/dd/dd00.jpg", OriginalPath: "/src/a.jpg",
		LocationID: loser.ID, ImportedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, tx.Commit())

	c := &merge.Candidate{MatchType: store.MatchName}
	require.NoError(t, merge.Merge(ctx, s, survivor, loser, c))

	_, err = s.Locations.Get(ctx, loser.ID)
	require.Error(t, err, "loser location must be deleted after merge")

	media, err := s.Media.ListByLocation(ctx, store.MediaImage, survivor.ID)
	require.NoError(t, err)
	require.Len(t, media, 1, "media must be reattached to the survivor")

	audits, err := s.Merges.ListForEntity(ctx, survivor.ID)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	require.Equal(t, loser.ID, audits[0].MergedID)
}
