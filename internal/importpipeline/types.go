// Package importpipeline implements the Import Pipeline (spec.md §4.E):
// a 5-phase state machine (scan -> hash -> copy -> validate -> finalize)
// with per-phase persisted results, cooperative cancellation, and
// crash-safe resumption. Phase fan-out is grounded on the teacher's
// errgroup+semaphore bounded-parallelism idiom from private/lifecycle and
// private/sync2.
package importpipeline

import "time"

// HiddenReason names why a scanned file was flagged but still included,
// per spec.md §4.E phase 1.
type HiddenReason string

const (
	HiddenReasonNone           HiddenReason = ""
	HiddenReasonDotfile        HiddenReason = "hidden_file"
	HiddenReasonMetadataSidecar HiddenReason = "metadata_sidecar"
	HiddenReasonOverCeiling    HiddenReason = "over_ceiling"
)

// sidecarExtensions are metadata sidecar extensions flagged per spec.md
// §4.E phase 1.
var sidecarExtensions = map[string]bool{
	".srt": true,
	".lrf": true,
	".thm": true,
}

// ScanItem is one discovered source file, spec.md §4.E phase 1.
type ScanItem struct {
	Path          string       `json:"path"`
	Bytes         int64        `json:"bytes"`
	Mtime         time.Time    `json:"mtime"`
	Extension     string       `json:"extension"`
	DetectedKind  string       `json:"detected_kind"`
	Hidden        bool         `json:"hidden"`
	HiddenReason  HiddenReason `json:"hidden_reason,omitempty"`
}

// ScanResult is the persisted result blob for phase 1.
type ScanResult struct {
	Items      []ScanItem `json:"items"`
	TotalCount int        `json:"total_count"`
	TotalBytes int64      `json:"total_bytes"`
}

// HashResult is one item's outcome from phase 2.
type HashResult struct {
	ScanIndex      int     `json:"scan_index"`
	Hash           string  `json:"hash"`
	PerceptualHash *string `json:"perceptual_hash,omitempty"`
	Error          *string `json:"error,omitempty"`
}

// HashPhaseResult is the persisted result blob for phase 2.
type HashPhaseResult struct {
	Results []HashResult `json:"results"`
}

// CopyStatus is the outcome of one copy attempt, spec.md §4.E phase 3.
type CopyStatus string

const (
	CopyStatusCopied    CopyStatus = "copied"
	CopyStatusDuplicate CopyStatus = "duplicate"
	CopyStatusError     CopyStatus = "error"
)

// CopyResult is one item's outcome from phase 3.
type CopyResult struct {
	Hash        string     `json:"hash"`
	ArchivePath string     `json:"archive_path"`
	Status      CopyStatus `json:"status"`
	Error       *string    `json:"error,omitempty"`
}

// CopyPhaseResult is the persisted result blob for phase 3.
type CopyPhaseResult struct {
	Results []CopyResult `json:"results"`
}

// ValidateResult is one item's outcome from phase 4.
type ValidateResult struct {
	Hash    string  `json:"hash"`
	Valid   bool    `json:"valid"`
	Error   *string `json:"error,omitempty"`
}

// ValidatePhaseResult is the persisted result blob for phase 4.
type ValidatePhaseResult struct {
	Results []ValidateResult `json:"results"`
}

// Warning is a non-fatal, surfaced failure, per spec.md §4.E/§7.
type Warning struct {
	Item string `json:"item"`
	Kind string `json:"kind"`
	Err  string `json:"err"`
}

// ImportResult is returned from Finalize, spec.md §4.E phase 5.
type ImportResult struct {
	Imported  int       `json:"imported"`
	Duplicate int       `json:"duplicate"`
	Corrupt   int       `json:"corrupt"`
	Warnings  []Warning `json:"warnings"`
}

// FinalizePhaseResult is the persisted result blob for phase 5.
type FinalizePhaseResult struct {
	Result ImportResult `json:"result"`
}
