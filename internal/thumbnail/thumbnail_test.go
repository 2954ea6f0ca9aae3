package thumbnail_test

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bizzlechizzle/archivist-core/internal/archive"
	"github.com/bizzlechizzle/archivist-core/internal/thumbnail"
)

func writeSampleJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, nil))
}

func TestGenerateWritesAllThreeTiers(t *testing.T) {
	planner, err := archive.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, planner.EnsureDirectories())

	src := filepath.Join(t.TempDir(), "source.jpg")
	writeSampleJPEG(t, src, 3000, 2000)

	hash := "abcd1234abcd1234abcd1234abcd1234abcd1234abcd1234abcd1234abcd1234"
	small, large, preview, err := thumbnail.Generate(planner, src, hash)
	require.NoError(t, err)

	for _, path := range []string{small, large, preview} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Greater(t, info.Size(), int64(0))
	}
}

func TestGenerateDoesNotUpscaleSmallSource(t *testing.T) {
	planner, err := archive.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, planner.EnsureDirectories())

	src := filepath.Join(t.TempDir(), "source.jpg")
	writeSampleJPEG(t, src, 100, 100)

	hash := "ef56ef56ef56ef56ef56ef56ef56ef56ef56ef56ef56ef56ef56ef56ef56ef5"
	small, _, _, err := thumbnail.Generate(planner, src, hash)
	require.NoError(t, err)

	f, err := os.Open(small)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	require.NoError(t, err)
	require.LessOrEqual(t, cfg.Width, 100)
	require.LessOrEqual(t, cfg.Height, 100)
}
