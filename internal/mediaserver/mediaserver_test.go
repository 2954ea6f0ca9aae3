package mediaserver_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bizzlechizzle/archivist-core/internal/archive"
	"github.com/bizzlechizzle/archivist-core/internal/mediaserver"
)

func setup(t *testing.T) (*mediaserver.Handler, *archive.Planner) {
	t.Helper()
	planner, err := archive.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, planner.EnsureDirectories())
	return mediaserver.New(zaptest.NewLogger(t), planner), planner
}

func TestServeHTTPReturnsFullBodyAndNoCacheHeaders(t *testing.T) {
	h, planner := setup(t)
	path, err := planner.MediaPath("ab00000000000000000000000000000000000000000000000000000000000000", "jpg")
	require.NoError(t, err)
	require.NoError(t, planner.EnsureParent(path))
	require.NoError(t, os.WriteFile(path, []byte("jpeg bytes"), 0o644))

	req := httptest.NewRequest(http.MethodGet, "/"+path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "jpeg bytes", rec.Body.String())
	require.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	require.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
}

func TestServeHTTPHonorsRangeHeaderWith206(t *testing.T) {
	h, planner := setup(t)
	path, err := planner.MediaPath("cd00000000000000000000000000000000000000000000000000000000000000", "mp4")
	require.NoError(t, err)
	require.NoError(t, planner.EnsureParent(path))
	body := make([]byte, 4096)
	for i := range body {
		body[i] = byte(i % 256)
	}
	require.NoError(t, os.WriteFile(path, body, 0o644))

	req := httptest.NewRequest(http.MethodGet, "/"+path, nil)
	req.Header.Set("Range", "bytes=0-1023")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusPartialContent, rec.Code)
	require.Equal(t, 1024, rec.Body.Len())
	require.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	require.NotEmpty(t, rec.Header().Get("Content-Range"))
}

func TestServeHTTPReturns404ForMissingFile(t *testing.T) {
	h, planner := setup(t)
	path, err := planner.MediaPath("ef00000000000000000000000000000000000000000000000000000000000000", "jpg")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/"+path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeHTTPRejectsPathOutsideArchiveRoot(t *testing.T) {
	h, _ := setup(t)
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("nope"), 0o644))

	req := httptest.NewRequest(http.MethodGet, "/"+secret, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
