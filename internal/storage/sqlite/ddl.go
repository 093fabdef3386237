package sqlite

import (
	"context"
	"fmt"

	"crashdash/internal/ddl"
	"crashdash/internal/storage"
)

// Dialect renders SQLite DDL. Timestamps are stored as TEXT in
// "YYYY-MM-DD HH:MM:SS" form (see bindRow).
var Dialect = ddl.Dialect{
	Quote: quoteIdent,
	Types: map[ddl.ColumnType]string{
		ddl.TypeText:      "TEXT",
		ddl.TypeTimestamp: "TEXT",
		ddl.TypeFloat:     "REAL",
		ddl.TypeInteger:   "INTEGER",
	},
}

// EnsureTable creates td when it does not exist.
func EnsureTable(ctx context.Context, repo storage.Repository, td ddl.TableDef) error {
	sql, err := ddl.BuildCreateTableSQL(td, Dialect)
	if err != nil {
		return fmt.Errorf("sqlite ddl: %w", err)
	}
	return repo.Exec(ctx, sql)
}
