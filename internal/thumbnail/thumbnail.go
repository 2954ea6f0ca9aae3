// Package thumbnail implements the Thumbnail Generator (spec.md §4,
// the job queue's "thumbnail" queue): given an image file, decodes it,
// renders the three cached size tiers (small, large, preview) and
// writes them as JPEGs under the Media Path Planner's thumbnail
// layout. The resize step reuses the same Catmull-Rom scaling
// internal/hashing's perceptual-hash computation already depends on,
// rather than introducing a second resize strategy.
package thumbnail

import (
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/bizzlechizzle/archivist-core/internal/archive"
	"github.com/bizzlechizzle/archivist-core/internal/errs2"
)

// sizesPx maps each tier to its longest-edge pixel budget, per
// SPEC_FULL.md's default configuration.
var sizesPx = map[archive.ThumbnailSize]int{
	archive.ThumbnailSmall:   400,
	archive.ThumbnailLarge:   800,
	archive.ThumbnailPreview: 1920,
}

// jpegQuality is applied to every generated tier.
const jpegQuality = 85

// Generate decodes the image at srcPath and writes all three thumbnail
// tiers for hash via planner, returning their paths in
// small/large/preview order. An aspect-ratio-preserving resize is used
// for every tier; an image already smaller than a tier's budget is
// written unscaled rather than upscaled.
func Generate(planner *archive.Planner, srcPath, hash string) (small, large, preview string, err error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return "", "", "", errs2.IOError.Wrap(err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", "", "", errs2.CorruptInput.Wrap(err)
	}

	paths := make(map[archive.ThumbnailSize]string, 3)
	for _, size := range []archive.ThumbnailSize{archive.ThumbnailSmall, archive.ThumbnailLarge, archive.ThumbnailPreview} {
		path, err := planner.ThumbnailPath(hash, size)
		if err != nil {
			return "", "", "", err
		}
		if err := planner.EnsureParent(path); err != nil {
			return "", "", "", err
		}
		if err := writeResized(src, path, sizesPx[size]); err != nil {
			return "", "", "", err
		}
		paths[size] = path
	}
	return paths[archive.ThumbnailSmall], paths[archive.ThumbnailLarge], paths[archive.ThumbnailPreview], nil
}

// writeResized scales src so its longest edge is at most maxPx (never
// upscaling) and writes the result to path as a JPEG.
func writeResized(src image.Image, path string, maxPx int) error {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	longest := w
	if h > longest {
		longest = h
	}
	if longest > maxPx {
		scale := float64(maxPx) / float64(longest)
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	out, err := os.Create(path)
	if err != nil {
		return errs2.IOError.Wrap(err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return errs2.IOError.Wrap(err)
	}
	return nil
}
