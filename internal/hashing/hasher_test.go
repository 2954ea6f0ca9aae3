package hashing_test

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizzlechizzle/archivist-core/internal/hashing"
)

func TestHashFileIsDeterministicAndFullyHexEncoded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.bin")
	require.NoError(t, os.WriteFile(path, []byte("archivist core test payload"), 0o644))

	h := hashing.New(0)
	full1, trunc1, err := h.HashFile(path)
	require.NoError(t, err)
	full2, trunc2, err := h.HashFile(path)
	require.NoError(t, err)

	assert.Equal(t, full1, full2)
	assert.Equal(t, trunc1, trunc2)
	assert.Len(t, full1, 64)
	assert.Len(t, trunc1, 16)
	assert.True(t, trunc1 == full1[:16])
	assert.Equal(t, strings.ToLower(full1), full1, "hash must be lowercase hex")
}

func TestHashFileMissingIsIOError(t *testing.T) {
	h := hashing.New(0)
	_, _, err := h.HashFile(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestNewEntityIDIsStableAndTruncated(t *testing.T) {
	id1 := hashing.NewEntityID("2024-01-01T00:00:00Z|Old Quarry Hospital")
	id2 := hashing.NewEntityID("2024-01-01T00:00:00Z|Old Quarry Hospital")
	id3 := hashing.NewEntityID("2024-01-01T00:00:00Z|Other Location")

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
	assert.Len(t, id1, 16)
}

func TestPerceptualHashIsStableAndBucketable(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}

	hash1, err := hashing.PerceptualHash(img)
	require.NoError(t, err)
	hash2, err := hashing.PerceptualHash(img)
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2)
	assert.Len(t, hash1, 16)

	bucket, err := hashing.PerceptualHashBucket(hash1)
	require.NoError(t, err)
	assert.Len(t, bucket, 4)
	assert.Equal(t, hash1[:4], bucket)
}

func TestHammingDistanceZeroForIdenticalHashes(t *testing.T) {
	assert.Equal(t, 0, hashing.HammingDistance64(0xdeadbeef, 0xdeadbeef))
	assert.Equal(t, 1, hashing.HammingDistance64(0b1010, 0b1011))
}
