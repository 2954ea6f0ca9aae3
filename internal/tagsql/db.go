// Package tagsql wraps database/sql behind a narrow interface so the rest
// of the catalog depends on an interface, not the sqlite driver directly.
// Modeled on the teacher's private/tagsql package (see
// private/tagsql/db_test.go: tagsql.Open, tagsql.DB used as the seam
// between the Migration Engine / Catalog Store and the concrete driver).
package tagsql

import (
	"context"
	"database/sql"
)

// DB is the subset of *sql.DB the catalog and migration engine depend on.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error)
	Close() error
}

// Tx is the subset of *sql.Tx used inside migration steps and catalog
// transactions.
type Tx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	Commit() error
	Rollback() error
}

type db struct {
	*sql.DB
}

func (d *db) BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	tx, err := d.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// Open opens driverName/dataSourceName and wraps it as a DB.
func Open(ctx context.Context, driverName, dataSourceName string) (DB, error) {
	sqlDB, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &db{DB: sqlDB}, nil
}

// Wrap adapts an already-open *sql.DB.
func Wrap(sqlDB *sql.DB) DB {
	return &db{DB: sqlDB}
}
