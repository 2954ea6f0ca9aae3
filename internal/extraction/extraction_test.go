package extraction_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
	"github.com/bizzlechizzle/archivist-core/internal/extraction"
)

type stubExtractor struct {
	result extraction.Result
	err    error
}

func (s stubExtractor) Extract(ctx context.Context, input string) (extraction.Result, error) {
	return s.result, s.err
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), zaptest.NewLogger(t), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createLocation(t *testing.T, s *store.Store, id string) {
	t.Helper()
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Locations.Create(context.Background(), tx, &store.Location{ID: id, Name: "Old Quarry Hospital", CreatedBy: "t"}))
	require.NoError(t, tx.Commit())
}

func TestRunPersistsSuccessfulExtraction(t *testing.T) {
	s := openStore(t)
	createLocation(t, s, "1010101010101010")

	d := extraction.New(zaptest.NewLogger(t), s.Extractions)
	d.Register(store.ExtractionSpaCy, stubExtractor{result: extraction.Result{
		Entities:   map[string][]string{"person": {"J. Doe"}},
		Summary:    "a note about J. Doe",
		Confidence: 0.8,
	}})

	ex, err := d.Run(context.Background(), "1010101010101010", store.ExtractionSpaCy, "notes mentioning J. Doe")
	require.NoError(t, err)
	require.Equal(t, store.ExtractionDone, ex.Status)
	require.NotNil(t, ex.ResultJSON)
	require.Contains(t, *ex.ResultJSON, "J. Doe")
	require.Nil(t, ex.Error)

	stored, err := s.Extractions.Get(context.Background(), ex.ID)
	require.NoError(t, err)
	require.Equal(t, store.ExtractionDone, stored.Status)
}

func TestRunRecordsProviderFailureWithoutReturningError(t *testing.T) {
	s := openStore(t)
	createLocation(t, s, "2020202020202020")

	d := extraction.New(zaptest.NewLogger(t), s.Extractions)
	d.Register(store.ExtractionLocalLLM, stubExtractor{err: assertErr{"runtime not reachable"}})

	ex, err := d.Run(context.Background(), "2020202020202020", store.ExtractionLocalLLM, "input")
	require.NoError(t, err)
	require.Equal(t, store.ExtractionFailed, ex.Status)
	require.NotNil(t, ex.Error)
	require.Contains(t, *ex.Error, "runtime not reachable")
}

func TestRunFailsGracefullyWhenVariantHasNoProvider(t *testing.T) {
	s := openStore(t)
	createLocation(t, s, "3030303030303030")

	d := extraction.New(zaptest.NewLogger(t), s.Extractions)

	ex, err := d.Run(context.Background(), "3030303030303030", store.ExtractionRemoteLLM, "input")
	require.NoError(t, err)
	require.Equal(t, store.ExtractionFailed, ex.Status)
	require.NotNil(t, ex.Error)
}

func TestListByLocationReturnsAllRuns(t *testing.T) {
	s := openStore(t)
	createLocation(t, s, "4040404040404040")

	d := extraction.New(zaptest.NewLogger(t), s.Extractions)
	d.Register(store.ExtractionSpaCy, stubExtractor{result: extraction.Result{Confidence: 1}})

	_, err := d.Run(context.Background(), "4040404040404040", store.ExtractionSpaCy, "a")
	require.NoError(t, err)
	_, err = d.Run(context.Background(), "4040404040404040", store.ExtractionSpaCy, "b")
	require.NoError(t, err)

	runs, err := s.Extractions.ListByLocation(context.Background(), "4040404040404040")
	require.NoError(t, err)
	require.Len(t, runs, 2)
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }
