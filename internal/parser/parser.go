// Package parser defines the tabular result shared by file parsers.
package parser

import (
	"io"

	"crashdash/pkg/records"
)

// Table is one parsed file: a header and rows keyed by header name.
type Table struct {
	// Columns are the header names in file order, made unique within the file.
	Columns []string

	// Rows map column name to raw text; empty cells are nil.
	Rows []records.Record

	// Lines holds the 1-based source line where each row starts.
	Lines []int

	// Skipped counts malformed lines dropped by a permissive parse.
	Skipped int

	// Delimiter is the field separator actually used.
	Delimiter rune

	// Permissive reports whether the strict parse was abandoned.
	Permissive bool
}

// Parser turns a byte stream into a Table.
type Parser interface {
	Parse(r io.Reader) (*Table, error)
}
