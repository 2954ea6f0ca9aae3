// Package hashing implements the Hasher (spec.md §4.A): streaming BLAKE3
// content hashing for media and entity ids, plus a DCT-based perceptual
// hash for near-duplicate image detection. Buffer sizing and the
// full/truncated-id split are grounded in the content-addressable bucket
// layout from other_examples' distribution registry path mapper
// (<algorithm>/<first two hex bytes>/<hex digest>), which this module's
// sibling internal/archive package consumes.
package hashing

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"lukechampine.com/blake3"

	"github.com/bizzlechizzle/archivist-core/internal/errs2"
)

// Hasher computes BLAKE3 content hashes with a configurable read-buffer
// size. The zero value uses a 1 MiB buffer.
type Hasher struct {
	BufferBytes int
}

// New returns a Hasher with the given read-buffer size. A non-positive size
// falls back to 1 MiB.
func New(bufferBytes int) *Hasher {
	if bufferBytes <= 0 {
		bufferBytes = 1 << 20
	}
	return &Hasher{BufferBytes: bufferBytes}
}

// HashFile returns the full 64-hex-character BLAKE3 digest of the file at
// path, and the 16-hex-character truncation used for location/sub-location
// ids. Fails with errs2.IOError on an unreadable path and
// errs2.CorruptInput if the stream errors mid-read.
func (h *Hasher) HashFile(path string) (full, truncated string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", errs2.IOError.Wrap(err)
	}
	defer f.Close()

	return h.HashReader(f)
}

// HashReader streams r through BLAKE3 using the configured buffer size. It
// never returns a partial hash: any read error short-circuits with
// errs2.CorruptInput and empty strings.
func (h *Hasher) HashReader(r io.Reader) (full, truncated string, err error) {
	hasher := blake3.New()
	buf := make([]byte, h.bufferBytes())

	if _, err := io.CopyBuffer(hasher, bufio.NewReaderSize(r, h.bufferBytes()), buf); err != nil {
		return "", "", errs2.CorruptInput.Wrap(err)
	}

	sum := hasher.Sum(nil)
	full = hex.EncodeToString(sum)
	truncated = full[:16]
	return full, truncated, nil
}

// TruncateID returns the 16-hex-character entity id derived from a full
// hex digest (or from hashing an arbitrary seed string for
// location/sub-location creation, where the seed is
// creation-timestamp+name per spec.md §3).
func TruncateID(fullHex string) (string, error) {
	if len(fullHex) < 16 {
		return "", fmt.Errorf("hashing: digest %q shorter than truncation length", fullHex)
	}
	return fullHex[:16], nil
}

// NewEntityID hashes seed with BLAKE3 and returns the 16-hex-character
// truncated id used for Location and Sub-location primary keys.
func NewEntityID(seed string) string {
	sum := blake3.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:16]
}

func (h *Hasher) bufferBytes() int {
	if h.BufferBytes <= 0 {
		return 1 << 20
	}
	return h.BufferBytes
}

// NewStreamHash returns a fresh hash.Hash for incremental use by callers
// that cannot hand the Hasher a single io.Reader (e.g. the Web-Source
// Archiver, which hashes bytes as they are fetched).
func NewStreamHash() hash.Hash {
	return blake3.New()
}
