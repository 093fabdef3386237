package ddl

// ColumnType is a dialect-neutral column type. Backends map it to SQL.
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeTimestamp
	TypeFloat
	TypeInteger
)

// String names the type for logs and errors.
func (t ColumnType) String() string {
	switch t {
	case TypeTimestamp:
		return "timestamp"
	case TypeFloat:
		return "float"
	case TypeInteger:
		return "integer"
	default:
		return "text"
	}
}

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - Type: dialect-neutral type
//   - SQLType: rendered type; filled in by the backend when empty
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
type ColumnDef struct {
	Name       string
	Type       ColumnType
	SQLType    string
	Nullable   bool
	PrimaryKey bool
}

// TableDef holds the table name, optionally schema-qualified in dotted form,
// and an ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// ColumnNames returns the column names in order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}
