package importpipeline

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/bizzlechizzle/archivist-core/internal/archive"
	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
	"github.com/bizzlechizzle/archivist-core/internal/hashing"
)

// Session drives one import session through its five phases, persisting
// each phase's result blob before advancing so a crashed process can
// resume from session.LastStep on restart, per spec.md §4.E.
type Session struct {
	log     *zap.Logger
	store   *store.Store
	planner *archive.Planner
	hasher  *hashing.Hasher
	workers int
}

// NewSession builds a Session. workers <= 0 uses each phase's default.
func NewSession(log *zap.Logger, s *store.Store, planner *archive.Planner, hasher *hashing.Hasher, workers int) *Session {
	return &Session{log: log, store: s, planner: planner, hasher: hasher, workers: workers}
}

// Start creates a new import session row and runs it to completion or
// cancellation.
func (s *Session) Start(ctx context.Context, sess *store.ImportSession, sourcePaths []string, scanCeilingBytes int64) (ImportResult, error) {
	sourcePathsJSON, err := json.Marshal(sourcePaths)
	if err != nil {
		return ImportResult{}, err
	}
	sess.SourcePathsJSON = string(sourcePathsJSON)
	if err := s.store.Imports.Create(ctx, sess); err != nil {
		return ImportResult{}, err
	}
	return s.Run(ctx, sess.ID, scanCeilingBytes)
}

// Resume continues an in-flight session from its persisted last_step,
// per spec.md §4.E's crash-resume contract.
func (s *Session) Resume(ctx context.Context, sessionID string, scanCeilingBytes int64) (ImportResult, error) {
	return s.Run(ctx, sessionID, scanCeilingBytes)
}

// Run executes phases 1-5 in order, skipping any phase whose result is
// already persisted on the session row, and stopping early if the
// session's cancel flag is observed between phases.
func (s *Session) Run(ctx context.Context, sessionID string, scanCeilingBytes int64) (ImportResult, error) {
	sess, err := s.store.Imports.Get(ctx, sessionID)
	if err != nil {
		return ImportResult{}, err
	}

	isCancelled := func() bool {
		cancelled, _ := s.store.Imports.IsCancelled(ctx, sessionID)
		return cancelled
	}

	var sourcePaths []string
	if err := json.Unmarshal([]byte(sess.SourcePathsJSON), &sourcePaths); err != nil {
		return ImportResult{}, err
	}

	var scanResult ScanResult
	if sess.ScanResultJSON != nil {
		if err := json.Unmarshal([]byte(*sess.ScanResultJSON), &scanResult); err != nil {
			return ImportResult{}, err
		}
	} else {
		scanResult, err = Scan(sourcePaths, scanCeilingBytes)
		if err != nil {
			return ImportResult{}, err
		}
		if err := s.persist(ctx, sessionID, 1, store.SessionScanning, "scan_result_json", scanResult); err != nil {
			return ImportResult{}, err
		}
	}
	if isCancelled() {
		return s.cancelled(ctx, sessionID)
	}

	var hashResult HashPhaseResult
	if sess.HashResultJSON != nil {
		if err := json.Unmarshal([]byte(*sess.HashResultJSON), &hashResult); err != nil {
			return ImportResult{}, err
		}
	} else {
		hashResult, err = HashPhase(ctx, s.hasher, scanResult.Items, s.workers, isCancelled)
		if err != nil {
			return ImportResult{}, err
		}
		if err := s.persist(ctx, sessionID, 2, store.SessionHashing, "hash_result_json", hashResult); err != nil {
			return ImportResult{}, err
		}
	}
	if isCancelled() {
		return s.cancelled(ctx, sessionID)
	}

	var copyResult CopyPhaseResult
	if sess.CopyResultJSON != nil {
		if err := json.Unmarshal([]byte(*sess.CopyResultJSON), &copyResult); err != nil {
			return ImportResult{}, err
		}
	} else {
		existsFn := func(ctx context.Context, hash string) (bool, error) {
			_, ok, err := s.store.Media.FindAnyExisting(ctx, hash)
			return ok, err
		}
		copyResult, _, err = CopyPhase(ctx, s.planner, scanResult.Items, hashResult, existsFn, s.workers, isCancelled)
		if err != nil {
			return ImportResult{}, err
		}
		if err := s.persist(ctx, sessionID, 3, store.SessionCopying, "copy_result_json", copyResult); err != nil {
			return ImportResult{}, err
		}
	}
	if isCancelled() {
		return s.cancelled(ctx, sessionID)
	}

	var validateResult ValidatePhaseResult
	if sess.ValidateResultJSON != nil {
		if err := json.Unmarshal([]byte(*sess.ValidateResultJSON), &validateResult); err != nil {
			return ImportResult{}, err
		}
	} else {
		validateResult, err = ValidatePhase(ctx, s.planner, s.hasher, copyResult.Results, s.workers, isCancelled)
		if err != nil {
			return ImportResult{}, err
		}
		if err := s.persist(ctx, sessionID, 4, store.SessionValidating, "validate_result_json", validateResult); err != nil {
			return ImportResult{}, err
		}
	}
	if isCancelled() {
		return s.cancelled(ctx, sessionID)
	}

	if sess.FinalizeResultJSON != nil {
		var fr FinalizePhaseResult
		if err := json.Unmarshal([]byte(*sess.FinalizeResultJSON), &fr); err != nil {
			return ImportResult{}, err
		}
		return fr.Result, nil
	}

	in := FinalizeInput{
		SessionID:        sessionID,
		TargetLocationID: sess.TargetLocationID,
		ImporterIdentity: "import-pipeline",
		ImportSource:     "local",
		Items:            scanResult.Items,
		Hashes:           hashResult,
		Copies:           copyResult,
		Validations:      validateResult,
	}
	result, err := Finalize(ctx, s.store.DB, s.store.Media, s.store.Locations, s.store.Imports, in)
	if err != nil {
		return ImportResult{}, err
	}

	s.log.Info("import session finalized",
		zap.String("session_id", sessionID),
		zap.Int("imported", result.Imported),
		zap.Int("duplicate", result.Duplicate),
		zap.Int("corrupt", result.Corrupt))

	return result, nil
}

func (s *Session) persist(ctx context.Context, sessionID string, step int, status store.ImportSessionStatus, column string, v any) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.store.Imports.AdvancePhase(ctx, sessionID, step, status, column, string(blob))
}

func (s *Session) cancelled(ctx context.Context, sessionID string) (ImportResult, error) {
	if err := s.store.Imports.Cancel(ctx, sessionID); err != nil {
		return ImportResult{}, err
	}
	return ImportResult{}, nil
}
