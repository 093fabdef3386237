package ddl

import (
	"strings"
	"testing"

	"crashdash/internal/domain"
)

func testDialect() Dialect {
	return Dialect{
		Quote: func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` },
		Types: map[ColumnType]string{
			TypeText:      "TEXT",
			TypeTimestamp: "TIMESTAMP",
			TypeFloat:     "DOUBLE PRECISION",
			TypeInteger:   "INTEGER",
		},
	}
}

// TestBuildCreateTableSQL verifies rendered statements and the errors for
// invalid definitions.
func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		dialect     Dialect
		wantSQL     string
		errContains string
	}{
		{
			name:        "empty FQN returns error",
			def:         TableDef{Columns: []ColumnDef{{Name: "id"}}},
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no columns returns error",
			def:         TableDef{FQN: "public.t"},
			errContains: "at least one column is required",
		},
		{
			name:        "column with empty name returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: " "}}},
			errContains: "column with empty name",
		},
		{
			name:        "duplicate column returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "a"}, {Name: "a"}}},
			errContains: "duplicate column a",
		},
		{
			name:        "unmapped type returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "a", Type: TypeFloat}}},
			dialect:     Dialect{Quote: testDialect().Quote},
			errContains: "no SQL type for float",
		},
		{
			name: "types, nullability and primary key",
			def: TableDef{
				FQN: "public.accidents",
				Columns: []ColumnDef{
					{Name: "id", Type: TypeInteger, PrimaryKey: true, Nullable: true},
					{Name: "occurred_at", Type: TypeTimestamp, Nullable: true},
					{Name: "we\"ird", SQLType: "VARCHAR(10)"},
				},
			},
			wantSQL: "CREATE TABLE IF NOT EXISTS \"public\".\"accidents\" (\n" +
				"  \"id\" INTEGER NOT NULL,\n" +
				"  \"occurred_at\" TIMESTAMP,\n" +
				"  \"we\"\"ird\" VARCHAR(10) NOT NULL,\n" +
				"  PRIMARY KEY (\"id\")\n" +
				");",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := tt.dialect
			if d.Quote == nil {
				d = testDialect()
			}
			got, err := BuildCreateTableSQL(tt.def, d)
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("error = %v, want containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildCreateTableSQL: %v", err)
			}
			if got != tt.wantSQL {
				t.Fatalf("SQL mismatch\n got: %q\nwant: %q", got, tt.wantSQL)
			}
		})
	}
}

func TestForDataset(t *testing.T) {
	t.Parallel()

	td := ForDataset("accidents", []string{domain.ColOccurredAt, domain.ColLocality, domain.ColFatalities, "boletim"})
	names := td.ColumnNames()
	want := []string{ColSource, ColLine, domain.ColOccurredAt, domain.ColLocality, domain.ColFatalities, "boletim"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("columns = %v, want %v", names, want)
	}
	types := []ColumnType{TypeText, TypeInteger, TypeTimestamp, TypeText, TypeInteger, TypeText}
	for i, c := range td.Columns {
		if c.Type != types[i] {
			t.Errorf("%s type = %s, want %s", c.Name, c.Type, types[i])
		}
	}
	if td.Columns[0].Nullable || !td.Columns[2].Nullable {
		t.Fatalf("provenance must be NOT NULL and data columns nullable: %+v", td.Columns)
	}
	if _, err := BuildCreateTableSQL(td, testDialect()); err != nil {
		t.Fatalf("dataset table does not render: %v", err)
	}
}
