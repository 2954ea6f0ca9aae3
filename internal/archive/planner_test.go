package archive_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizzlechizzle/archivist-core/internal/archive"
)

func TestMediaPathBucketsByFirstTwoHexChars(t *testing.T) {
	p, err := archive.New(t.TempDir())
	require.NoError(t, err)

	hash := "ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab1"
	path, err := p.MediaPath(hash, "jpg")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(p.Root(), "ab", hash+".jpg"), path)
}

func TestThumbnailAndProxyPaths(t *testing.T) {
	p, err := archive.New(t.TempDir())
	require.NoError(t, err)

	hash := "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"

	thumb, err := p.ThumbnailPath(hash, archive.ThumbnailLarge)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.Root(), "thumbnails", "lg", "de", hash+".jpg"), thumb)

	proxy, err := p.ProxyPath(hash)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.Root(), "proxies", "de", hash+".proxy.mp4"), proxy)
}

func TestEnsureDirectoriesCreatesThumbnailRoots(t *testing.T) {
	p, err := archive.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, p.EnsureDirectories())

	for _, size := range []archive.ThumbnailSize{archive.ThumbnailSmall, archive.ThumbnailLarge, archive.ThumbnailPreview} {
		info, err := os.Stat(filepath.Join(p.Root(), "thumbnails", string(size)))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestValidateArchivePathRejectsEscape(t *testing.T) {
	root := t.TempDir()
	p, err := archive.New(root)
	require.NoError(t, err)
	require.NoError(t, p.EnsureDirectories())

	_, err = p.ValidateArchivePath(filepath.Join(root, "..", "escaped.txt"))
	require.Error(t, err)
}

func TestValidateArchivePathAcceptsDescendant(t *testing.T) {
	root := t.TempDir()
	p, err := archive.New(root)
	require.NoError(t, err)
	require.NoError(t, p.EnsureDirectories())

	candidate := filepath.Join(root, "ab", "somefile.jpg")
	resolved, err := p.ValidateArchivePath(candidate)
	require.NoError(t, err)
	assert.NotEmpty(t, resolved)
}

func TestLocationAndWebSourceDirs(t *testing.T) {
	p, err := archive.New(t.TempDir())
	require.NoError(t, err)

	loc := p.LocationDir("0123456789abcdef")
	assert.Equal(t, filepath.Join(p.Root(), "locations", "0123456789abcdef"), loc)

	ws := p.WebSourceDir("0123456789abcdef", "fedcba9876543210")
	assert.Equal(t, filepath.Join(loc, "web-sources", "fedcba9876543210"), ws)
}
