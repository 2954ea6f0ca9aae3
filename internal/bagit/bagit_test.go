package bagit_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bizzlechizzle/archivist-core/internal/bagit"
	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
	"github.com/bizzlechizzle/archivist-core/internal/hashing"
)

func writeBag(t *testing.T, dir string, files map[string]string) *hashing.Hasher {
	t.Helper()
	hasher := hashing.New(0)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "media"), 0o755))

	var entries []bagit.ManifestEntry
	for rel, content := range files {
		full := filepath.Join(dir, rel)
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
		hash, _, err := hasher.HashFile(full)
		require.NoError(t, err)
		entries = append(entries, bagit.ManifestEntry{Hash: hash, Path: rel})
	}
	require.NoError(t, bagit.WriteManifest(dir, entries))
	require.NoError(t, bagit.WriteBagInfo(dir, bagit.BagInfo{LocationID: "loc-1", Name: "Old Quarry Hospital", ArchiveVersion: "1"}))
	return hasher
}

func TestValidateReturnsValidWhenEveryFileMatches(t *testing.T) {
	dir := t.TempDir()
	hasher := writeBag(t, dir, map[string]string{"media/a.jpg": "aaa", "media/b.jpg": "bbb"})

	res, err := bagit.Validate(dir, hasher)
	require.NoError(t, err)
	require.Equal(t, store.BagItValid, res.Status)
	require.Equal(t, 2, res.Entries)
	require.Empty(t, res.Missing)
	require.Empty(t, res.Invalid)
}

func TestValidateReturnsCompleteWhenBagInfoFullyPopulated(t *testing.T) {
	dir := t.TempDir()
	hasher := writeBag(t, dir, map[string]string{"media/a.jpg": "aaa"})
	require.NoError(t, bagit.WriteBagInfo(dir, bagit.BagInfo{
		LocationID: "loc-1", Name: "Old Quarry Hospital", CreatedAt: "2020-01-01", ArchiveVersion: "1",
	}))

	res, err := bagit.Validate(dir, hasher)
	require.NoError(t, err)
	require.Equal(t, store.BagItComplete, res.Status)
}

func TestValidateReturnsIncompleteWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	hasher := writeBag(t, dir, map[string]string{"media/a.jpg": "aaa"})
	require.NoError(t, os.Remove(filepath.Join(dir, "media/a.jpg")))

	res, err := bagit.Validate(dir, hasher)
	require.NoError(t, err)
	require.Equal(t, store.BagItIncomplete, res.Status)
	require.Equal(t, []string{"media/a.jpg"}, res.Missing)
}

func TestValidateReturnsInvalidWhenHashMismatches(t *testing.T) {
	dir := t.TempDir()
	hasher := writeBag(t, dir, map[string]string{"media/a.jpg": "aaa"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "media/a.jpg"), []byte("tampered"), 0o644))

	res, err := bagit.Validate(dir, hasher)
	require.NoError(t, err)
	require.Equal(t, store.BagItInvalid, res.Status)
	require.Equal(t, []string{"media/a.jpg"}, res.Invalid)
}

func TestReadBagInfoRoundTripsWrittenFields(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, bagit.WriteBagInfo(dir, bagit.BagInfo{
		LocationID: "loc-1", Name: "Old Quarry Hospital", CreatedAt: "2020-01-01", ArchiveVersion: "1",
	}))

	info, err := bagit.ReadBagInfo(dir)
	require.NoError(t, err)
	require.Equal(t, "loc-1", info.LocationID)
	require.Equal(t, "Old Quarry Hospital", info.Name)
	require.Equal(t, "1", info.ArchiveVersion)
}
