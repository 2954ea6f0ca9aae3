// Package extraction implements the capability-variant extraction
// dispatcher described in spec.md §9: the LLM/NLP providers themselves
// (spaCy, a local LLM runtime, a remote/cloud LLM) are out-of-scope
// external collaborators, specified only at their interface. The core
// never talks to a provider directly; it registers an Extractor per
// store.ExtractionVariant and calls Run, which persists the attempt,
// invokes whichever variant is configured, and records the outcome
// without the caller ever knowing which backend ran.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
	"github.com/bizzlechizzle/archivist-core/internal/errs2"
	"github.com/bizzlechizzle/archivist-core/internal/hashing"
)

// Result is the structured output of one extraction run: named-entity
// lists keyed by entity type (e.g. "person", "date", "organization")
// plus a free-text summary. The exact entity taxonomy is a provider
// concern; the core only stores and displays whatever keys come back.
type Result struct {
	Entities   map[string][]string `json:"entities,omitempty"`
	Summary    string              `json:"summary,omitempty"`
	Confidence float64             `json:"confidence"`
}

// Extractor is the single capability every provider variant implements.
// Implementations live outside this module; spec.md §1/§12 name them as
// external collaborators specified only by this interface.
type Extractor interface {
	Extract(ctx context.Context, input string) (Result, error)
}

// Dispatcher routes extraction requests to a registered variant and
// persists every attempt through store.ExtractionRepo.
type Dispatcher struct {
	log       *zap.Logger
	repo      *store.ExtractionRepo
	providers map[store.ExtractionVariant]Extractor
}

// New builds a Dispatcher with no providers registered. Call Register
// for each variant available in the running environment; a variant with
// no registered provider fails at Run time with
// errs2.ExternalHelperUnavailable rather than at construction, since
// provider availability can change while the process runs (e.g. a local
// LLM runtime that isn't started yet).
func New(log *zap.Logger, repo *store.ExtractionRepo) *Dispatcher {
	return &Dispatcher{
		log:       log,
		repo:      repo,
		providers: make(map[store.ExtractionVariant]Extractor),
	}
}

// Register binds an Extractor implementation to a variant. Calling it
// again for the same variant replaces the previous binding.
func (d *Dispatcher) Register(variant store.ExtractionVariant, ex Extractor) {
	d.providers[variant] = ex
}

// Run executes one extraction of input against locationID using
// variant, recording a running row before dispatch and a done/failed
// row after. The caller gets back the persisted Extraction either way;
// a provider error is not returned as a Go error, it is recorded on the
// row and reported via the row's Status/Error fields, mirroring how
// other degraded-capability components in this core (web-source
// archiver screenshot/PDF capture) treat an external helper's failure
// as data rather than a fatal return.
func (d *Dispatcher) Run(ctx context.Context, locationID string, variant store.ExtractionVariant, input string) (*store.Extraction, error) {
	now := time.Now().UTC()
	ex := &store.Extraction{
		ID:         hashing.NewEntityID(fmt.Sprintf("%s:%s:%d", locationID, variant, now.UnixNano())),
		LocationID: locationID,
		Variant:    variant,
		Status:     store.ExtractionRunning,
		InputText:  input,
		StartedAt:  now,
	}
	if err := d.repo.Create(ctx, ex); err != nil {
		return nil, err
	}

	provider, ok := d.providers[variant]
	if !ok {
		err := errs2.ExternalHelperUnavailable.New("no provider registered for variant %q", variant)
		d.fail(ctx, ex, err)
		return ex, nil
	}

	result, err := provider.Extract(ctx, input)
	if err != nil {
		d.log.Warn("extraction provider failed", zap.String("variant", string(variant)), zap.Error(err))
		d.fail(ctx, ex, err)
		return ex, nil
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	completedAt := time.Now().UTC()
	if err := d.repo.Complete(ctx, ex.ID, string(resultJSON), completedAt); err != nil {
		return nil, err
	}
	ex.Status = store.ExtractionDone
	rj := string(resultJSON)
	ex.ResultJSON = &rj
	ex.CompletedAt = &completedAt
	return ex, nil
}

func (d *Dispatcher) fail(ctx context.Context, ex *store.Extraction, cause error) {
	completedAt := time.Now().UTC()
	msg := cause.Error()
	if err := d.repo.Fail(ctx, ex.ID, msg, completedAt); err != nil {
		d.log.Error("failed to record extraction failure", zap.Error(err))
	}
	ex.Status = store.ExtractionFailed
	ex.Error = &msg
	ex.CompletedAt = &completedAt
}
