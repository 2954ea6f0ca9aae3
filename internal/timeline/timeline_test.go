package timeline_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
	"github.com/bizzlechizzle/archivist-core/internal/timeline"
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

func TestShouldBackfillExcludesFilmScannerMakes(t *testing.T) {
	require.False(t, timeline.ShouldBackfill("Noritsu"))
	require.False(t, timeline.ShouldBackfill("EPSON"))
	require.True(t, timeline.ShouldBackfill("Apple"))
	require.True(t, timeline.ShouldBackfill(""))
}

func TestNewEventAutoApprovesCellphoneMakes(t *testing.T) {
	ev, err := timeline.NewEvent("ev-1", "loc-1", "visit", "Apple", time.Date(2019, 6, 12, 0, 0, 0, 0, time.UTC), store.PrecisionExact, "hash1", "media:hash1")
	require.NoError(t, err)
	require.True(t, ev.AutoApproved)

	ev2, err := timeline.NewEvent("ev-2", "loc-1", "visit", "Noritsu Koki", time.Date(2019, 6, 12, 0, 0, 0, 0, time.UTC), store.PrecisionExact, "hash2", "media:hash2")
	require.NoError(t, err)
	require.False(t, ev2.AutoApproved)
}

func TestCombineUnionsSourceRefsWithoutDuplicates(t *testing.T) {
	existing := &store.TimelineEvent{SourceRefsJSON: `["media:a","media:b"]`, MediaHashesJSON: `["a"]`, Precision: store.PrecisionExact, Confidence: 0.5}
	next := &store.TimelineEvent{SourceRefsJSON: `["media:b","media:c"]`, MediaHashesJSON: `["c"]`, Precision: store.PrecisionExact, Confidence: 0.9}

	merged, err := timeline.Combine(existing, next)
	require.NoError(t, err)
	require.JSONEq(t, `["media:a","media:b","media:c"]`, merged.SourceRefsJSON)
	require.Equal(t, 0.9, merged.Confidence)
}

func TestCombinePrefersHigherPrecisionDate(t *testing.T) {
	exactDate := time.Date(2019, 6, 12, 0, 0, 0, 0, time.UTC)
	existing := &store.TimelineEvent{
		DateStart: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), Precision: store.PrecisionYear,
		SourceRefsJSON: `[]`, MediaHashesJSON: `[]`,
	}
	next := &store.TimelineEvent{
		DateStart: exactDate, Precision: store.PrecisionExact,
		SourceRefsJSON: `[]`, MediaHashesJSON: `[]`,
	}

	merged, err := timeline.Combine(existing, next)
	require.NoError(t, err)
	require.Equal(t, store.PrecisionExact, merged.Precision)
	require.True(t, merged.DateStart.Equal(exactDate))
}

func TestCombineSkipsDescriptionWhenPrefixAlreadyPresent(t *testing.T) {
	desc := "abandoned since 1998 and slowly reclaimed by the woods around it"
	existing := &store.TimelineEvent{Description: &desc, SourceRefsJSON: `[]`, MediaHashesJSON: `[]`}
	dup := "abandoned since 1998 and slowly reclaimed"
	next := &store.TimelineEvent{Description: &dup, SourceRefsJSON: `[]`, MediaHashesJSON: `[]`}

	merged, err := timeline.Combine(existing, next)
	require.NoError(t, err)
	require.Equal(t, desc, *merged.Description)
}

func TestCombineConcatenatesSubstantiallyDifferentDescriptions(t *testing.T) {
	desc := "abandoned since 1998"
	existing := &store.TimelineEvent{Description: &desc, SourceRefsJSON: `[]`, MediaHashesJSON: `[]`}
	other := "demolition permit filed in 2021"
	next := &store.TimelineEvent{Description: &other, SourceRefsJSON: `[]`, MediaHashesJSON: `[]`}

	merged, err := timeline.Combine(existing, next)
	require.NoError(t, err)
	require.Equal(t, "abandoned since 1998; demolition permit filed in 2021", *merged.Description)
}

func TestUpsertCreatesNewEventWhenNoneInWindow(t *testing.T) {
	s, ctx := openStore(t)
	loc := &store.Location{ID: "5050505050505050", Name: "Old Quarry Hospital", CreatedBy: "t"}
	createLocation(t, s, ctx, loc)

	ev, err := timeline.NewEvent("ev-a", loc.ID, "visit", "Apple", time.Date(2019, 6, 12, 0, 0, 0, 0, time.UTC), store.PrecisionExact, "hash-a", "media:hash-a")
	require.NoError(t, err)
	require.NoError(t, timeline.Upsert(ctx, s.Timeline, ev, 0))

	events, err := s.Timeline.ListByLocation(ctx, loc.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestUpsertMergesIntoExistingEventWithinWindow(t *testing.T) {
	s, ctx := openStore(t)
	loc := &store.Location{ID: "6060606060606060", Name: "Old Quarry Hospital", CreatedBy: "t"}
	createLocation(t, s, ctx, loc)

	first, err := timeline.NewEvent("ev-b1", loc.ID, "visit", "Apple", time.Date(2019, 6, 12, 0, 0, 0, 0, time.UTC), store.PrecisionExact, "hash-b1", "media:hash-b1")
	require.NoError(t, err)
	require.NoError(t, timeline.Upsert(ctx, s.Timeline, first, 0))

	second, err := timeline.NewEvent("ev-b2", loc.ID, "visit", "Apple", time.Date(2019, 6, 13, 0, 0, 0, 0, time.UTC), store.PrecisionExact, "hash-b2", "media:hash-b2")
	require.NoError(t, err)
	require.NoError(t, timeline.Upsert(ctx, s.Timeline, second, 0))

	events, err := s.Timeline.ListByLocation(ctx, loc.ID)
	require.NoError(t, err)
	require.Len(t, events, 1, "two nearby visits to the same location must consolidate into one event")
	require.Equal(t, 2, events[0].MediaCount)
}
