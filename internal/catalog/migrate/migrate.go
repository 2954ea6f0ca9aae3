// Package migrate implements the Migration Engine (spec.md §4.C): a
// strictly ordered, idempotent sequence of schema steps that infers applied
// state from the live schema rather than from a version counter baked into
// the binary. Modeled directly on the teacher's private/migrate package
// (see private/migrate/versions_test.go for the Migration/Step/SQL/Func
// shape and the CurrentVersion/Run/TargetVersion/ValidateSteps contract
// this file reproduces).
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bizzlechizzle/archivist-core/internal/tagsql"
)

// Action is the unit of work a Step performs, given the transaction it must
// execute inside.
type Action interface {
	Run(ctx context.Context, log *zap.Logger, db tagsql.DB, tx tagsql.Tx) error
}

// SQL is an Action that runs a fixed list of statements in order.
type SQL []string

// Run executes each statement via tx.ExecContext.
func (steps SQL) Run(ctx context.Context, log *zap.Logger, db tagsql.DB, tx tagsql.Tx) error {
	for _, stmt := range steps {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: exec %q: %w", stmt, err)
		}
	}
	return nil
}

// Func is an Action implemented as an arbitrary closure, used for
// constraint-rebuild steps and data backfills that cannot be expressed as
// plain SQL.
type Func func(ctx context.Context, log *zap.Logger, db tagsql.DB, tx tagsql.Tx) error

// Run calls fn.
func (fn Func) Run(ctx context.Context, log *zap.Logger, db tagsql.DB, tx tagsql.Tx) error {
	return fn(ctx, log, db, tx)
}

// Step is one named, versioned unit of schema evolution.
type Step struct {
	DB *tagsql.DB

	Description string
	Version     int
	Action      Action

	// SeparateTx marks a constraint-modification step that must run with
	// foreign-key checks disabled. SQLite ignores PRAGMA foreign_keys
	// inside a transaction, so Run switches the pragma off on the
	// connection before the step's transaction begins and back on once
	// it has committed.
	SeparateTx bool
}

// Migration is an ordered list of Steps tracked in Table.
type Migration struct {
	Table string
	Steps []*Step
}

// ValidateSteps checks that step versions are non-decreasing. Multiple
// steps may share a version (a single logical migration expressed as
// several steps); a version lower than a prior step's is an authoring
// error.
func (m *Migration) ValidateSteps() error {
	last := -1
	for _, step := range m.Steps {
		if step.Version < last {
			return fmt.Errorf("migrate: steps have incorrect order, version %d follows %d", step.Version, last)
		}
		last = step.Version
	}
	return nil
}

// TargetVersion returns a copy of m containing only steps with
// Version <= version, useful for tests that want to exercise a prefix of
// the full migration list.
func (m *Migration) TargetVersion(version int) *Migration {
	out := &Migration{Table: m.Table}
	for _, step := range m.Steps {
		if step.Version <= version {
			out.Steps = append(out.Steps, step)
		}
	}
	return out
}

// CurrentVersion returns the highest version recorded in the migration
// table, or -1 if the table does not exist or is empty.
func (m *Migration) CurrentVersion(ctx context.Context, log *zap.Logger, db tagsql.DB) (int, error) {
	exists, err := tableExists(ctx, db, m.Table)
	if err != nil {
		return -1, err
	}
	if !exists {
		return -1, nil
	}

	var version sql.NullInt64
	row := db.QueryRowContext(ctx, `SELECT MAX(version) FROM `+m.Table) //nolint:gosec // m.Table is a compile-time constant per call site
	if err := row.Scan(&version); err != nil {
		return -1, fmt.Errorf("migrate: read current version: %w", err)
	}
	if !version.Valid {
		return -1, nil
	}
	return int(version.Int64), nil
}

// Run executes every step whose Version exceeds the table's current
// version, in order, each inside its own transaction. A step failure
// aborts the migration immediately; no later step runs, and the failed
// step's own transaction is rolled back, leaving the table showing the
// last successfully applied version.
func (m *Migration) Run(ctx context.Context, log *zap.Logger) error {
	if err := m.ValidateSteps(); err != nil {
		return err
	}
	if len(m.Steps) == 0 {
		return nil
	}

	bookkeepingDB := *m.Steps[0].DB
	if err := ensureVersionTable(ctx, bookkeepingDB, m.Table); err != nil {
		return err
	}

	current, err := m.CurrentVersion(ctx, log, bookkeepingDB)
	if err != nil {
		return err
	}

	for _, step := range m.Steps {
		if step.Version <= current {
			continue
		}

		stepDB := *step.DB
		if step.SeparateTx {
			if _, err := stepDB.ExecContext(ctx, `PRAGMA foreign_keys=OFF`); err != nil {
				return fmt.Errorf("migrate: disable foreign keys for step %d: %w", step.Version, err)
			}
		}
		tx, err := stepDB.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("migrate: begin step %d (%s): %w", step.Version, step.Description, err)
		}

		if step.Action != nil {
			if err := step.Action.Run(ctx, log, stepDB, tx); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migrate: step %d (%s): %w", step.Version, step.Description, err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO `+m.Table+` (version, description, applied_at) VALUES (?, ?, ?)`,
			step.Version, step.Description, time.Now().UTC(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migrate: record step %d: %w", step.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate: commit step %d: %w", step.Version, err)
		}
		if step.SeparateTx {
			if _, err := stepDB.ExecContext(ctx, `PRAGMA foreign_keys=ON`); err != nil {
				return fmt.Errorf("migrate: re-enable foreign keys after step %d: %w", step.Version, err)
			}
		}

		if log != nil {
			log.Info("migration step applied",
				zap.Int("version", step.Version),
				zap.String("description", step.Description))
		}
	}

	return nil
}

func ensureVersionTable(ctx context.Context, db tagsql.DB, table string) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+table+` (
		version INTEGER NOT NULL,
		description TEXT NOT NULL,
		applied_at TIMESTAMP NOT NULL
	)`)
	return err
}

func tableExists(ctx context.Context, db tagsql.DB, table string) (bool, error) {
	row := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table)
	var name string
	switch err := row.Scan(&name); err {
	case nil:
		return true, nil
	case sql.ErrNoRows:
		return false, nil
	default:
		return false, err
	}
}
