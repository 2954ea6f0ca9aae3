// Package errs2 defines the error taxonomy from spec.md §7 as zeebo/errs
// classes, and a warning-accumulation helper used by the Import Pipeline and
// Job Queue to collect non-fatal, per-item failures without aborting a
// batch. Modeled on the teacher's private/errs2 sanitizer, which wraps
// zeebo/errs classes for surfacing at a boundary.
package errs2

import "github.com/zeebo/errs"

// Error classes the core distinguishes, per spec.md §7.
var (
	IOError                  = errs.Class("io error")
	PathEscape               = errs.Class("path escape")
	CorruptedCopy            = errs.Class("corrupted copy")
	DuplicateHash            = errs.Class("duplicate hash")
	Cancelled                = errs.Class("cancelled")
	SchemaMismatch           = errs.Class("schema mismatch")
	ForeignKeyViolation      = errs.Class("foreign key violation")
	TimeoutExceeded          = errs.Class("timeout exceeded")
	ExternalHelperUnavailable = errs.Class("external helper unavailable")
	ConflictingMerge         = errs.Class("conflicting merge")
	CorruptInput             = errs.Class("corrupt input")
)

// IsDuplicate reports whether err (or anything it wraps) is a DuplicateHash,
// which callers must treat as informational rather than an error.
func IsDuplicate(err error) bool {
	return DuplicateHash.Has(err)
}

// IsCancelled reports whether err represents a cooperative cancellation.
func IsCancelled(err error) bool {
	return Cancelled.Has(err)
}
