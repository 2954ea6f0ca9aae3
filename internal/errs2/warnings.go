package errs2

import "sync"

// Warning is a single non-fatal failure recorded against an item during a
// batch operation (an Import Pipeline phase, a reference-map parse, a
// merge pass). It is surfaced to the caller, never silently dropped, per
// spec.md §7's propagation policy.
type Warning struct {
	Item string `json:"item"`
	Kind string `json:"kind"`
	Err  string `json:"error"`
}

// WarningList is a concurrency-safe accumulator of Warnings, used wherever
// bounded-parallelism workers need to report per-item failures without
// aborting the phase.
type WarningList struct {
	mu       sync.Mutex
	warnings []Warning
}

// Add records a warning. Safe for concurrent use.
func (w *WarningList) Add(item, kind string, err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.warnings = append(w.warnings, Warning{Item: item, Kind: kind, Err: err.Error()})
}

// List returns a snapshot of the accumulated warnings.
func (w *WarningList) List() []Warning {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Warning, len(w.warnings))
	copy(out, w.warnings)
	return out
}

// Len returns the number of accumulated warnings.
func (w *WarningList) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.warnings)
}
