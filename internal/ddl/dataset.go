package ddl

import "crashdash/internal/domain"

// Provenance columns prepended to every exported accident table.
const (
	ColSource = "source"
	ColLine   = "source_line"
)

var canonicalTypes = map[string]ColumnType{
	domain.ColOccurredAt:       TypeTimestamp,
	domain.ColLatitude:         TypeFloat,
	domain.ColLongitude:        TypeFloat,
	domain.ColPeopleInvolved:   TypeFloat,
	domain.ColVehiclesInvolved: TypeFloat,
	domain.ColDistanceMarker:   TypeFloat,
	domain.ColFatalities:       TypeInteger,
	domain.ColMinorInjuries:    TypeInteger,
	domain.ColSevereInjuries:   TypeInteger,
}

// TypeOf returns the column type of a dataset column. Text columns and
// extras are TypeText.
func TypeOf(column string) ColumnType {
	return canonicalTypes[column]
}

// ForDataset describes the export table for a dataset with the given
// columns: provenance first, then every column nullable.
func ForDataset(fqn string, columns []string) TableDef {
	td := TableDef{FQN: fqn}
	td.Columns = append(td.Columns,
		ColumnDef{Name: ColSource, Type: TypeText},
		ColumnDef{Name: ColLine, Type: TypeInteger},
	)
	for _, c := range columns {
		td.Columns = append(td.Columns, ColumnDef{Name: c, Type: TypeOf(c), Nullable: true})
	}
	return td
}
