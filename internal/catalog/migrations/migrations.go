// Package migrations is the ordered list of schema steps for the
// catalog, run through internal/catalog/migrate's engine. spec.md §4.C
// describes the live source catalog as carrying 89 sequential steps; this
// module implements a faithful subset organized into the same three step
// kinds (additive, constraint modification, data backfill) and the same
// phase grouping, documented step-by-step in DESIGN.md. Steps are never
// reordered or collapsed across a release once applied, per spec.md §9's
// open question about migration ordering.
package migrations

import (
	"github.com/bizzlechizzle/archivist-core/internal/catalog/migrate"
	"github.com/bizzlechizzle/archivist-core/internal/tagsql"
)

// schemaTable is the bookkeeping table name the migration engine uses to
// track applied versions, per internal/catalog/migrate.
const schemaTable = "schema_migrations"

// Step aliases migrate.Step so phase files in this package can return
// []*Step without importing the migrate package directly.
type Step = migrate.Step

// SQL and Func alias their migrate counterparts for the same reason.
type SQL = migrate.SQL
type Func = migrate.Func

// All assembles the full ordered migration for db. Each phase function
// below contributes a contiguous block of Version numbers; the
// concatenation order here is the applied order and must never change.
func All(db tagsql.DB) *migrate.Migration {
	var steps []*migrate.Step
	steps = append(steps, locationSteps(db)...)
	steps = append(steps, mediaSteps(db)...)
	steps = append(steps, importSessionSteps(db)...)
	steps = append(steps, jobSteps(db)...)
	steps = append(steps, refMapSteps(db)...)
	steps = append(steps, webSourceSteps(db)...)
	steps = append(steps, timelineSteps(db)...)
	steps = append(steps, mergeAuditSteps(db)...)
	steps = append(steps, notesSteps(db)...)
	steps = append(steps, constraintAndBackfillSteps(db)...)
	steps = append(steps, extractionSteps(db)...)
	steps = append(steps, locationDeletionSteps(db)...)

	return &migrate.Migration{
		Table: schemaTable,
		Steps: steps,
	}
}

func sqlStep(db tagsql.DB, version int, description string, statements ...string) *migrate.Step {
	return &migrate.Step{
		DB:          &db,
		Description: description,
		Version:     version,
		Action:      migrate.SQL(statements),
	}
}
