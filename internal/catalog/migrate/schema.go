package migrate

import (
	"context"
	"database/sql"

	"github.com/bizzlechizzle/archivist-core/internal/tagsql"
)

// TableExists reports whether table is present in the schema. Exported for
// use by additive migration steps that must decide whether a
// CREATE TABLE IF NOT EXISTS is even necessary to log, and by constraint
// steps that branch on whether a prior additive step already ran.
func TableExists(ctx context.Context, db tagsql.DB, table string) (bool, error) {
	return tableExists(ctx, db, table)
}

// ColumnExists reports whether table has a column named column, using
// sqlite's pragma table_info. Grounded on the schema-introspection shape of
// private/dbutil/sqliteutil (QuerySchema reads PRAGMA table_info per
// table); this is a narrower single-column query for use inside additive
// ADD COLUMN steps that must stay idempotent.
func ColumnExists(ctx context.Context, db tagsql.DB, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, `PRAGMA table_info(`+table+`)`)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notnull    int
			dflt       interface{}
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &primaryKey); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// IndexExists reports whether an index named index is present, regardless
// of which table it is on.
func IndexExists(ctx context.Context, db tagsql.DB, index string) (bool, error) {
	row := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, index)
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
