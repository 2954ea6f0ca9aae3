package hashing

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"sort"

	"golang.org/x/image/draw"
)

const (
	phashSampleSize = 32 // downsample to 32x32 before DCT, per spec.md §4.A
	phashHashSize   = 8  // keep the top-left 8x8 low-frequency DCT coefficients -> 63 bits, the DC term skipped
)

// PerceptualHash computes a 64-bit DCT perceptual hash of img, rendered as
// 16 hex characters. It grayscales and downsamples to 32x32, runs a 2-D
// DCT-II, keeps the low-frequency 8x8 block excluding the DC term, and sets
// each output bit according to whether that coefficient exceeds the
// block's median — the standard pHash construction referenced in
// spec.md's GLOSSARY.
func PerceptualHash(img image.Image) (string, error) {
	gray := toGrayscale(img, phashSampleSize, phashSampleSize)
	coeffs := dct2D(gray, phashSampleSize)

	low := make([]float64, 0, phashHashSize*phashHashSize)
	for y := 0; y < phashHashSize; y++ {
		for x := 0; x < phashHashSize; x++ {
			if x == 0 && y == 0 {
				continue // skip DC term, dominated by overall brightness
			}
			low = append(low, coeffs[y*phashSampleSize+x])
		}
	}

	median := medianOf(low)

	var bits uint64
	bitIndex := 0
	for y := 0; y < phashHashSize; y++ {
		for x := 0; x < phashHashSize; x++ {
			if x == 0 && y == 0 {
				continue
			}
			if coeffs[y*phashSampleSize+x] > median {
				bits |= 1 << uint(bitIndex)
			}
			bitIndex++
		}
	}

	return fmt.Sprintf("%016x", bits), nil
}

// PerceptualHashFile opens, decodes, and perceptually hashes the image
// at path. A background recompute (e.g. after a RAW preview becomes
// available) works from a path rather than an already-decoded image,
// unlike the import pipeline's inline hash phase.
func PerceptualHashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("hashing: decode image: %w", err)
	}
	return PerceptualHash(img)
}

// PerceptualHashBucket returns the first 4 hex characters of a perceptual
// hash, used as the Hamming-distance pre-filter bucket per spec.md
// Invariant 6.
func PerceptualHashBucket(perceptualHash string) (string, error) {
	if len(perceptualHash) < 4 {
		return "", fmt.Errorf("hashing: perceptual hash %q too short for bucketing", perceptualHash)
	}
	return perceptualHash[:4], nil
}

// HammingDistance64 counts differing bits between two 16-hex-character
// perceptual hashes.
func HammingDistance64(a, b uint64) int {
	x := a ^ b
	count := 0
	for x != 0 {
		count++
		x &= x - 1
	}
	return count
}

func toGrayscale(img image.Image, w, h int) []float64 {
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = float64(dst.GrayAt(x, y).Y)
		}
	}
	return out
}

// dct2D runs a naive O(n^3) separable 2-D DCT-II over an n x n grid. n=32
// keeps this cheap enough to run per imported image without a transform
// library.
func dct2D(pixels []float64, n int) []float64 {
	tmp := make([]float64, n*n)
	out := make([]float64, n*n)

	// rows
	for y := 0; y < n; y++ {
		row := pixels[y*n : y*n+n]
		transformed := dct1D(row)
		copy(tmp[y*n:y*n+n], transformed)
	}

	// columns
	col := make([]float64, n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			col[y] = tmp[y*n+x]
		}
		transformed := dct1D(col)
		for y := 0; y < n; y++ {
			out[y*n+x] = transformed[y]
		}
	}
	return out
}

func dct1D(in []float64) []float64 {
	n := len(in)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += in[i] * math.Cos(math.Pi/float64(n)*(float64(i)+0.5)*float64(k))
		}
		alpha := math.Sqrt(2.0 / float64(n))
		if k == 0 {
			alpha = math.Sqrt(1.0 / float64(n))
		}
		out[k] = alpha * sum
	}
	return out
}

func medianOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
