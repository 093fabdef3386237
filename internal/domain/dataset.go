package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Dataset is the harmonized, immutable set of records from one session.
// Callers hold the handle explicitly; nothing is cached process-wide.
type Dataset struct {
	id        uuid.UUID
	createdAt time.Time
	extras    []string
	sources   []string
	records   []Record
}

// NewDataset takes ownership of recs. extras lists the non-canonical columns
// in first-seen order; sources lists the files that contributed, in load
// order.
func NewDataset(extras, sources []string, recs []Record) *Dataset {
	return &Dataset{
		id:        uuid.New(),
		createdAt: time.Now(),
		extras:    slices.Clone(extras),
		sources:   slices.Clone(sources),
		records:   recs,
	}
}

// ID identifies this dataset instance in logs and exports.
func (d *Dataset) ID() string { return d.id.String() }

// CreatedAt reports when the dataset was built.
func (d *Dataset) CreatedAt() time.Time { return d.createdAt }

// Columns returns the canonical columns followed by the extra columns.
func (d *Dataset) Columns() []string {
	out := make([]string, 0, len(CanonicalColumns)+len(d.extras))
	out = append(out, CanonicalColumns...)
	return append(out, d.extras...)
}

// Extras returns only the non-canonical columns.
func (d *Dataset) Extras() []string { return slices.Clone(d.extras) }

// Sources returns the names of the files that contributed records.
func (d *Dataset) Sources() []string { return slices.Clone(d.sources) }

// Records returns the records in insertion order. The slice is a copy, so
// callers may reorder or truncate it freely.
func (d *Dataset) Records() []Record { return slices.Clone(d.records) }

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }
