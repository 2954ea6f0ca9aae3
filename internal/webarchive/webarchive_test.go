package webarchive_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"github.com/bizzlechizzle/archivist-core/internal/archive"
	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
	"github.com/bizzlechizzle/archivist-core/internal/hashing"
	"github.com/bizzlechizzle/archivist-core/internal/webarchive"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Old Quarry Hospital</title>
  <meta property="og:title" content="Old Quarry Hospital (OG)">
  <meta property="og:site_name" content="Ruin Atlas">
  <meta name="twitter:card" content="summary">
  <meta name="author" content="J. Doe">
</head>
<body>
  <p>Abandoned since 1998.</p>
  <a href="/other-page">more</a>
  <script>ignored()</script>
</body>
</html>`

func TestExtractMetadataReadsTitleOGAndTwitterTags(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(samplePage))
	require.NoError(t, err)

	md := webarchive.ExtractMetadata(doc)
	require.Equal(t, "Old Quarry Hospital", md.Title)
	require.Equal(t, "Old Quarry Hospital (OG)", md.OpenGraph["title"])
	require.Equal(t, "Ruin Atlas", md.Publisher)
	require.Equal(t, "summary", md.Twitter["card"])
	require.Equal(t, "J. Doe", md.Author)
	require.Contains(t, md.Links, "/other-page")
}

func TestExtractTextSkipsScriptContent(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(samplePage))
	require.NoError(t, err)

	text := webarchive.ExtractText(doc)
	require.Contains(t, text, "Abandoned since 1998")
	require.NotContains(t, text, "ignored()")
}

func TestWriteWARCProducesResponseRecordWithTargetURI(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, webarchive.WriteWARC(&buf, "https://example.com/page", time.Now(), []byte("HTTP/1.1 200 OK\r\n\r\nbody")))

	out := buf.String()
	require.Contains(t, out, "WARC/1.1")
	require.Contains(t, out, "WARC-Type: warcinfo")
	require.Contains(t, out, "WARC-Type: response")
	require.Contains(t, out, "WARC-Target-URI: https://example.com/page")
}

func TestCaptureFetchesAndStoresArtifacts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	planner, err := archive.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, planner.EnsureDirectories())

	s, err := store.Open(context.Background(), zaptest.NewLogger(t), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	loc := &store.Location{ID: "7070707070707070", Name: "Old Quarry Hospital", CreatedBy: "t"}
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Locations.Create(context.Background(), tx, loc))
	require.NoError(t, tx.Commit())

	archiver := webarchive.New(zaptest.NewLogger(t), s, planner, hashing.New(0))
	ws, err := archiver.Capture(context.Background(), srv.URL, loc.ID)
	require.NoError(t, err)

	require.Equal(t, store.WebSourceComplete, ws.Status)
	require.NotNil(t, ws.Title)
	require.Equal(t, "Old Quarry Hospital", *ws.Title)
	require.NotNil(t, ws.HTMLHash)
	require.NotNil(t, ws.WARCHash)
	require.Nil(t, ws.ScreenshotHash, "no external screenshot helper configured")

	versions, err := s.WebSources.ListVersions(context.Background(), ws.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	require.True(t, versions[0].ContentChanged)
}

func TestCaptureSecondVersionDetectsUnchangedContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	planner, err := archive.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, planner.EnsureDirectories())

	s, err := store.Open(context.Background(), zaptest.NewLogger(t), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	loc := &store.Location{ID: "8080808080808080", Name: "Old Quarry Hospital", CreatedBy: "t"}
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Locations.Create(context.Background(), tx, loc))
	require.NoError(t, tx.Commit())

	archiver := webarchive.New(zaptest.NewLogger(t), s, planner, hashing.New(0))
	first, err := archiver.Capture(context.Background(), srv.URL, loc.ID)
	require.NoError(t, err)
	_, err = archiver.Capture(context.Background(), srv.URL, loc.ID)
	require.NoError(t, err)

	versions, err := s.WebSources.ListVersions(context.Background(), first.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	require.False(t, versions[1].ContentChanged)
}
