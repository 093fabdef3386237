// Package harmonize runs the harmonization phase: load every source, map
// columns onto the canonical schema, clean and coerce values, optionally
// drop duplicates, and hand back an immutable dataset with a report of
// everything that was skipped on the way.
package harmonize

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"crashdash/internal/config"
	"crashdash/internal/domain"
	"crashdash/internal/loader"
	"crashdash/internal/metrics"
	"crashdash/internal/schema"
	"crashdash/internal/transformer"
	"crashdash/internal/transformer/builtin"
	"crashdash/pkg/records"
)

// maxSamples bounds the coercion failures kept verbatim in a Report.
const maxSamples = 20

// Options configures the post-load stages.
type Options struct {
	// Job labels logs and metrics.
	Job string

	Synonyms schema.SynonymTable

	// Clean runs on schema rows before coercion. Nil uses builtin.Normalize.
	Clean transformer.Transformer

	Coerce builtin.Coerce
	Dedupe bool

	// DedupeKeys are schema column names; empty compares whole records.
	DedupeKeys []string
}

// OptionsFrom builds stage options from a session. Column names in the
// clean and dedupe settings are resolved through the session's synonym
// table.
func OptionsFrom(s config.Session) Options {
	synonyms := schema.FromConfig(s.Schema)
	res := synonyms.Resolver()
	column := func(raw string) string {
		name, _ := res.Canonical(raw)
		return name
	}

	var keys []string
	for _, k := range s.DedupeKeys {
		keys = append(keys, column(k))
	}
	return Options{
		Job:        s.Job,
		Synonyms:   synonyms,
		Clean:      cleanStage(s.Clean, column),
		Coerce:     builtin.Coerce{ExtraLayouts: s.Coerce.DateLayouts},
		Dedupe:     s.Dedupe,
		DedupeKeys: keys,
	}
}

// cleanStage is builtin.Normalize followed by the configured rewrites.
func cleanStage(c config.Clean, column func(string) string) transformer.Chain {
	chain := transformer.Chain{builtin.Normalize{}}
	if len(c.Replace) > 0 {
		rules := make([]builtin.ValueRule, 0, len(c.Replace))
		for _, r := range c.Replace {
			rules = append(rules, builtin.ValueRule{Column: column(r.Column), From: r.From, To: r.To})
		}
		chain = append(chain, builtin.Replace{Rules: rules})
	}
	if len(c.Upper) > 0 {
		cols := make([]string, 0, len(c.Upper))
		for _, u := range c.Upper {
			cols = append(cols, column(u))
		}
		chain = append(chain, builtin.UpperCase(cols...))
	}
	return chain
}

// SourceStats describes one loaded source.
type SourceStats struct {
	Name       string            `json:"name"`
	Location   string            `json:"location"`
	Rows       int               `json:"rows"`
	Skipped    int               `json:"skipped_lines"`
	Delimiter  string            `json:"delimiter"`
	Permissive bool              `json:"permissive"`
	Renamed    map[string]string `json:"renamed,omitempty"`
}

// CoercionSample is one value that failed coercion.
type CoercionSample struct {
	Source string `json:"source"`
	Line   int    `json:"line"`
	Field  string `json:"field"`
	Value  string `json:"value"`
}

// Report summarizes a harmonization run. Nothing in it is fatal.
type Report struct {
	Job            string                `json:"job"`
	SynonymVersion string                `json:"synonym_version"`
	Sources        []SourceStats         `json:"sources"`
	Failures       []*loader.SourceError `json:"-"`
	Warnings       []string              `json:"warnings,omitempty"`

	// SkippedLines counts malformed lines dropped by permissive parsing.
	SkippedLines int `json:"skipped_lines"`

	// CoercionSkips counts values left missing, per canonical field.
	CoercionSkips map[string]int   `json:"coercion_skips"`
	Samples       []CoercionSample `json:"coercion_samples,omitempty"`

	Duplicates int `json:"duplicates"`
	Records    int `json:"records"`
}

// FailedSources returns the failure messages in load order.
func (r *Report) FailedSources() []string {
	out := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.Error())
	}
	return out
}

// Build loads the session's sources and harmonizes them. Per-source failures
// are reported, not returned. It fails with loader.ErrNoDataAvailable when
// no source loads or the merged dataset is empty; the report is returned
// either way.
func Build(ctx context.Context, s config.Session) (*domain.Dataset, *Report, error) {
	opt := OptionsFrom(s)

	start := time.Now()
	res, err := loader.Load(ctx, s.Sources, loader.OptionsFrom(s))
	metrics.RecordStep(opt.Job, "load", err, time.Since(start))

	rep := newReport(opt)
	if res != nil {
		rep.Failures = res.Failures
		for _, b := range res.Batches {
			metrics.RecordSource(opt.Job, true)
			metrics.RecordRecords(opt.Job, metrics.KindLoaded, len(b.Rows))
		}
		for range res.Failures {
			metrics.RecordSource(opt.Job, false)
		}
	}
	if err != nil {
		if errors.Is(err, loader.ErrNoDataAvailable) {
			log.Printf("harmonize: job=%s no source loaded (%d failed)", opt.Job, len(rep.Failures))
		}
		return nil, rep, err
	}

	ds, err := harmonize(res.Batches, opt, rep)
	return ds, rep, err
}

// FromBatches harmonizes batches that were already loaded.
func FromBatches(batches []loader.Batch, opt Options) (*domain.Dataset, *Report, error) {
	rep := newReport(opt)
	ds, err := harmonize(batches, opt, rep)
	return ds, rep, err
}

func newReport(opt Options) *Report {
	return &Report{
		Job:            opt.Job,
		SynonymVersion: opt.Synonyms.Version,
		CoercionSkips:  make(map[string]int),
	}
}

func harmonize(batches []loader.Batch, opt Options, rep *Report) (*domain.Dataset, error) {
	start := time.Now()
	table, warns := schema.Normalize(batches, opt.Synonyms)
	metrics.RecordStep(opt.Job, "schema", nil, time.Since(start))
	for _, w := range warns {
		log.Printf("harmonize: warning: %s", w)
		rep.Warnings = append(rep.Warnings, w.String())
	}

	sources := make([]string, 0, len(batches))
	for _, b := range batches {
		sources = append(sources, b.Source)
		rep.SkippedLines += b.Skipped
		rep.Sources = append(rep.Sources, SourceStats{
			Name:       b.Source,
			Location:   b.Location,
			Rows:       len(b.Rows),
			Skipped:    b.Skipped,
			Delimiter:  string(b.Delimiter),
			Permissive: b.Permissive,
			Renamed:    table.Mapped[b.Source],
		})
	}
	metrics.RecordRecords(opt.Job, metrics.KindSkipped, rep.SkippedLines)

	start = time.Now()
	recs := coerce(table, opt, rep)
	metrics.RecordStep(opt.Job, "coerce", nil, time.Since(start))

	if opt.Dedupe {
		start = time.Now()
		recs, rep.Duplicates = builtin.DeDup{Keys: opt.DedupeKeys}.Apply(recs)
		metrics.RecordStep(opt.Job, "dedupe", nil, time.Since(start))
		metrics.RecordRecords(opt.Job, metrics.KindDuplicate, rep.Duplicates)
	}

	rep.Records = len(recs)
	metrics.RecordRecords(opt.Job, metrics.KindKept, rep.Records)
	log.Printf("harmonize: job=%s sources=%d records=%d skipped_lines=%d coercion_skips=%d duplicates=%d synonyms=%s",
		opt.Job, len(batches), rep.Records, rep.SkippedLines, rep.totalSkips(), rep.Duplicates, rep.SynonymVersion)

	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: merged dataset is empty", loader.ErrNoDataAvailable)
	}

	var extras []string
	for _, c := range table.Columns {
		if !domain.IsCanonical(c) {
			extras = append(extras, c)
		}
	}
	return domain.NewDataset(extras, sources, recs), nil
}

func coerce(table *schema.Table, opt Options, rep *Report) []domain.Record {
	clean := opt.Clean
	if clean == nil {
		clean = builtin.Normalize{}
	}
	rows := make([]records.Record, len(table.Rows))
	for i, r := range table.Rows {
		rows[i] = r.Values
	}
	rows = clean.Apply(rows)

	recs := make([]domain.Record, 0, len(rows))
	for i, row := range rows {
		src := table.Rows[i]
		rec, skips := opt.Coerce.Record(row, src.Source, src.Line)
		for _, s := range skips {
			rep.CoercionSkips[s.Field]++
			if len(rep.Samples) < maxSamples {
				rep.Samples = append(rep.Samples, CoercionSample{
					Source: src.Source, Line: src.Line, Field: s.Field, Value: s.Value,
				})
			}
		}
		recs = append(recs, rec)
	}
	metrics.RecordRecords(opt.Job, metrics.KindCoerceSkip, rep.totalSkips())
	return recs
}

func (r *Report) totalSkips() int {
	n := 0
	for _, c := range r.CoercionSkips {
		n += c
	}
	return n
}

// SkipFields returns the fields with coercion skips in canonical order.
func (r *Report) SkipFields() []string {
	out := make([]string, 0, len(r.CoercionSkips))
	for f := range r.CoercionSkips {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b string) int {
		return slices.Index(domain.CanonicalColumns, a) - slices.Index(domain.CanonicalColumns, b)
	})
	return out
}
