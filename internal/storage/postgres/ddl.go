package postgres

import (
	"context"
	"fmt"

	"crashdash/internal/ddl"
	"crashdash/internal/storage"
)

// Dialect renders Postgres DDL.
var Dialect = ddl.Dialect{
	Quote: pgIdent,
	Types: map[ddl.ColumnType]string{
		ddl.TypeText:      "TEXT",
		ddl.TypeTimestamp: "TIMESTAMP",
		ddl.TypeFloat:     "DOUBLE PRECISION",
		ddl.TypeInteger:   "INTEGER",
	},
}

// EnsureTable creates td when it does not exist.
func EnsureTable(ctx context.Context, repo storage.Repository, td ddl.TableDef) error {
	sql, err := ddl.BuildCreateTableSQL(td, Dialect)
	if err != nil {
		return fmt.Errorf("postgres ddl: %w", err)
	}
	return repo.Exec(ctx, sql)
}
