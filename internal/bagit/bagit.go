// Package bagit implements the BagIt Validator (spec.md §4.K): each
// location folder is a self-describing archive (checksum manifest +
// metadata block) that can be verified offline without the catalog.
package bagit

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
	"github.com/bizzlechizzle/archivist-core/internal/errs2"
	"github.com/bizzlechizzle/archivist-core/internal/hashing"
)

const (
	manifestFilename = "manifest-blake3.txt"
	bagInfoFilename  = "bag-info.txt"
)

// Result is the outcome of validating one location folder.
type Result struct {
	Status  store.BagItStatus
	Entries int
	Missing []string
	Invalid []string
}

// BagInfo is the hand-parsed bag-info.txt metadata block.
type BagInfo struct {
	LocationID     string
	Name           string
	CreatedAt      string
	ArchiveVersion string
}

// WriteBagInfo writes bag-info.txt in the `key: value` per-line format
// spec.md §4.K expects.
func WriteBagInfo(dir string, info BagInfo) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Location-Id: %s\n", info.LocationID)
	fmt.Fprintf(&sb, "Name: %s\n", info.Name)
	fmt.Fprintf(&sb, "Created-At: %s\n", info.CreatedAt)
	fmt.Fprintf(&sb, "Archive-Version: %s\n", info.ArchiveVersion)
	return os.WriteFile(filepath.Join(dir, bagInfoFilename), []byte(sb.String()), 0o644)
}

// ReadBagInfo parses bag-info.txt. It is a simple `key: value` per line
// format, hand-parsed with bufio.Scanner: this is a documented stdlib
// exception, not a library gap, since no ecosystem package improves on
// a dozen lines of line-splitting for this shape.
func ReadBagInfo(dir string) (BagInfo, error) {
	f, err := os.Open(filepath.Join(dir, bagInfoFilename))
	if err != nil {
		return BagInfo{}, errs2.IOError.Wrap(err)
	}
	defer f.Close()

	fields := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return BagInfo{}, errs2.IOError.Wrap(err)
	}

	return BagInfo{
		LocationID:     fields["Location-Id"],
		Name:           fields["Name"],
		CreatedAt:      fields["Created-At"],
		ArchiveVersion: fields["Archive-Version"],
	}, nil
}

// ManifestEntry is one `<hex-hash>  <relative-path>` line.
type ManifestEntry struct {
	Hash string
	Path string
}

// WriteManifest writes manifest-blake3.txt in the conventional BagIt
// two-space-separated manifest format.
func WriteManifest(dir string, entries []ManifestEntry) error {
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s  %s\n", e.Hash, e.Path)
	}
	return os.WriteFile(filepath.Join(dir, manifestFilename), []byte(sb.String()), 0o644)
}

// readManifest parses manifest-blake3.txt: one `<hex-hash>  <relative-
// path>` pair per line, two spaces between the fields.
func readManifest(dir string) ([]ManifestEntry, error) {
	f, err := os.Open(filepath.Join(dir, manifestFilename))
	if err != nil {
		return nil, errs2.IOError.Wrap(err)
	}
	defer f.Close()

	var entries []ManifestEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.SplitN(line, "  ", 2)
		if len(fields) != 2 {
			continue
		}
		entries = append(entries, ManifestEntry{Hash: fields[0], Path: strings.TrimSpace(fields[1])})
	}
	if err := scanner.Err(); err != nil {
		return nil, errs2.IOError.Wrap(err)
	}
	return entries, nil
}

// Validate rehashes every file referenced by dir's manifest and
// compares it against the recorded hash, per spec.md §4.K. It returns
// `invalid` when any present file's hash doesn't match the manifest,
// `incomplete` when some manifest files are missing but none present
// mismatch, `none` when the manifest itself has no entries, and
// otherwise distinguishes `valid` (manifest checks out) from
// `complete` (manifest checks out and bag-info.txt is present with
// every field filled in) — a bag is complete only once it carries both
// the checksum record and the descriptive metadata block spec.md §4.K
// says a bag is "self-describing" with.
func Validate(dir string, hasher *hashing.Hasher) (Result, error) {
	entries, err := readManifest(dir)
	if err != nil {
		return Result{}, err
	}

	res := Result{Entries: len(entries)}
	for _, e := range entries {
		full := filepath.Join(dir, e.Path)
		if _, statErr := os.Stat(full); statErr != nil {
			res.Missing = append(res.Missing, e.Path)
			continue
		}
		hash, _, err := hasher.HashFile(full)
		if err != nil {
			return Result{}, err
		}
		if !strings.EqualFold(hash, e.Hash) {
			res.Invalid = append(res.Invalid, e.Path)
		}
	}

	switch {
	case len(res.Invalid) > 0:
		res.Status = store.BagItInvalid
	case len(res.Missing) > 0:
		res.Status = store.BagItIncomplete
	case len(entries) == 0:
		res.Status = store.BagItNone
	case hasCompleteBagInfo(dir):
		res.Status = store.BagItComplete
	default:
		res.Status = store.BagItValid
	}
	return res, nil
}

// hasCompleteBagInfo reports whether dir's bag-info.txt exists and
// carries every field WriteBagInfo writes.
func hasCompleteBagInfo(dir string) bool {
	info, err := ReadBagInfo(dir)
	if err != nil {
		return false
	}
	return info.LocationID != "" && info.Name != "" && info.CreatedAt != "" && info.ArchiveVersion != ""
}

// ValidateAndRecord validates dir and writes the outcome onto the
// location row. A validation failure is not fatal to the catalog, only
// to the archive-integrity indicator, per spec.md §4.K.
func ValidateAndRecord(ctx context.Context, dir string, hasher *hashing.Hasher, locations *store.LocationRepo, locationID string) (Result, error) {
	res, err := Validate(dir, hasher)
	if err != nil {
		msg := err.Error()
		_ = locations.SetBagItStatus(ctx, locationID, store.BagItInvalid, &msg)
		return Result{}, err
	}

	var lastError *string
	if len(res.Invalid) > 0 || len(res.Missing) > 0 {
		msg := fmt.Sprintf("missing=%d invalid=%d at %s", len(res.Missing), len(res.Invalid), time.Now().UTC().Format(time.RFC3339))
		lastError = &msg
	}
	return res, locations.SetBagItStatus(ctx, locationID, res.Status, lastError)
}
