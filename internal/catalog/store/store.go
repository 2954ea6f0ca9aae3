// Package store implements the Catalog Store (spec.md §4.B): the
// single-writer embedded relational database that backs every other
// component. Opens with WAL journaling, foreign-key enforcement, and a
// generous busy timeout, runs the migration engine, and verifies a fixed
// set of critical indexes on every open. Grounded on the teacher's
// tagsql/dbutil open pattern and on satellite/metabase's repository-per-
// entity layering.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/bizzlechizzle/archivist-core/internal/catalog/migrate"
	"github.com/bizzlechizzle/archivist-core/internal/catalog/migrations"
	"github.com/bizzlechizzle/archivist-core/internal/errs2"
	"github.com/bizzlechizzle/archivist-core/internal/tagsql"
)

// Store is the single-writer handle onto the catalog database. All
// mutation goes through a transaction from Store.Begin; read paths use DB
// directly. Open caps the pool at one connection, so a read through DB
// waits while a transaction is open.
type Store struct {
	log *zap.Logger
	sql *sql.DB
	DB  *sqlx.DB

	Locations    *LocationRepo
	SubLocations *SubLocationRepo
	Media        *MediaRepo
	Imports      *ImportSessionRepo
	Jobs         *JobRepo
	RefMaps      *RefMapRepo
	Exclusions   *ExclusionRepo
	WebSources   *WebSourceRepo
	Timeline     *TimelineRepo
	Merges       *MergeAuditRepo
	Notes        *NotesRepo
	Extractions  *ExtractionRepo
}

// Open opens (creating if necessary) the SQLite catalog at path, applies
// the required pragmas, runs every pending migration, and verifies
// critical indexes. A file that exists but has none of the core tables is
// treated as empty and initialized in place, per spec.md §4.B.
func Open(ctx context.Context, log *zap.Logger, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=off", path)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errs2.IOError.Wrap(err)
	}
	// the catalog is single-writer; serialize all access through one
	// connection so SQLite's own locking never has to arbitrate between
	// goroutines holding separate connections in the same process.
	sqlDB.SetMaxOpenConns(1)

	if err := applyPragmas(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		sqlDB.Close()
		return nil, errs2.Cancelled.Wrap(err)
	}

	db := tagsql.Wrap(sqlDB)
	m := migrations.All(db)
	if err := m.Run(ctx, log); err != nil {
		sqlDB.Close()
		return nil, errs2.SchemaMismatch.Wrap(err)
	}

	if err := verifyCriticalIndexes(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	sqlxDB := sqlx.NewDb(sqlDB, "sqlite3")

	s := &Store{log: log, sql: sqlDB, DB: sqlxDB}
	s.Locations = &LocationRepo{db: sqlxDB}
	s.SubLocations = &SubLocationRepo{db: sqlxDB}
	s.Media = &MediaRepo{db: sqlxDB}
	s.Imports = &ImportSessionRepo{db: sqlxDB}
	s.Jobs = &JobRepo{db: sqlxDB}
	s.RefMaps = &RefMapRepo{db: sqlxDB}
	s.Exclusions = &ExclusionRepo{db: sqlxDB}
	s.WebSources = &WebSourceRepo{db: sqlxDB}
	s.Timeline = &TimelineRepo{db: sqlxDB}
	s.Merges = &MergeAuditRepo{db: sqlxDB}
	s.Notes = &NotesRepo{db: sqlxDB}
	s.Extractions = &ExtractionRepo{db: sqlxDB}
	return s, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL`,
		`PRAGMA foreign_keys=ON`,
		`PRAGMA busy_timeout=5000`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errs2.IOError.New("apply pragma %q: %v", stmt, err)
		}
	}
	return nil
}

// criticalIndexes is the safety-net set re-verified on every open, per
// spec.md §4.B: a covering index for spatial+card queries and a
// GPS-not-null index.
var criticalIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_locs_card_cover ON locs(id, name, category, gps_lat, gps_lng, bagit_status)`,
	`CREATE INDEX IF NOT EXISTS idx_locs_gps_not_null ON locs(gps_lat, gps_lng) WHERE gps_lat IS NOT NULL AND gps_lng IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_dispatch ON jobs(queue, status, priority, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_media_imgs_hash ON imgs(hash)`,
}

func verifyCriticalIndexes(ctx context.Context, db *sql.DB) error {
	for _, stmt := range criticalIndexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errs2.SchemaMismatch.New("critical index: %v", err)
		}
	}
	return nil
}

// Begin starts an exclusive write transaction, per spec.md §4.B's
// "transactional contract": every multi-statement mutation executes
// under a single transaction.
func (s *Store) Begin(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errs2.IOError.Wrap(err)
	}
	return tx, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.sql.Close()
}
