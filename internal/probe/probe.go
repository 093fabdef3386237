// Package probe samples the head of one accident file and reports how its
// columns would be harmonized: the canonical column each header maps to, how
// often it is filled, and how many sampled values would fail coercion. It is
// meant for writing synonym rules for a new agency export.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"crashdash/internal/config"
	"crashdash/internal/datasource"
	"crashdash/internal/datasource/httpds"
	"crashdash/internal/ddl"
	"crashdash/internal/domain"
	"crashdash/internal/loader"
	"crashdash/internal/schema"
	"crashdash/internal/transformer/builtin"
	"crashdash/pkg/records"
)

// DefaultSampleBytes is the sample size when Options.MaxBytes is zero.
const DefaultSampleBytes = 20000

// maxExamples bounds the distinct example values kept per column.
const maxExamples = 3

// Options control sampling.
type Options struct {
	// MaxBytes to sample from the start of the file. The sample is cut back
	// to the last complete line.
	MaxBytes int

	Synonyms schema.SynonymTable
	Coerce   builtin.Coerce
	HTTP     httpds.Config
}

// Column describes one raw header of the sampled file.
type Column struct {
	Raw       string   `json:"raw"`
	Canonical string   `json:"canonical"`
	Mapped    bool     `json:"mapped"`
	Type      string   `json:"type"`
	Filled    int      `json:"filled"`
	Unparsed  int      `json:"unparsed"`
	Examples  []string `json:"examples,omitempty"`
}

// Report is the outcome of probing one source.
type Report struct {
	Source         string   `json:"source"`
	Delimiter      string   `json:"delimiter"`
	Permissive     bool     `json:"permissive"`
	Truncated      bool     `json:"truncated"`
	Rows           int      `json:"rows"`
	Skipped        int      `json:"skipped_lines"`
	SynonymVersion string   `json:"synonym_version"`
	Columns        []Column `json:"columns"`
}

// Source samples src and describes its columns. A source that cannot be
// opened or parsed returns its *loader.SourceError.
func Source(ctx context.Context, src config.Source, opt Options) (*Report, error) {
	limit := opt.MaxBytes
	if limit <= 0 {
		limit = DefaultSampleBytes
	}
	if opt.Synonyms.Version == "" && opt.Synonyms.Rules == nil {
		opt.Synonyms = schema.DefaultSynonyms()
	}

	var truncated bool
	res, err := loader.Load(ctx, []config.Source{src}, loader.Options{
		Workers: 1,
		HTTP:    opt.HTTP,
		Open: func(s config.Source, c *httpds.Client) (datasource.Named, error) {
			n, err := loader.Locate(s, c)
			if err != nil {
				return nil, err
			}
			return &sampled{Named: n, limit: limit, truncated: &truncated}, nil
		},
	})
	if err != nil {
		if res != nil && len(res.Failures) > 0 {
			return nil, res.Failures[0]
		}
		return nil, err
	}

	b := res.Batches[0]
	rep := &Report{
		Source:         b.Source,
		Delimiter:      string(b.Delimiter),
		Permissive:     b.Permissive,
		Truncated:      truncated,
		Rows:           len(b.Rows),
		Skipped:        b.Skipped,
		SynonymVersion: opt.Synonyms.Version,
	}
	resolver := opt.Synonyms.Resolver()
	for _, raw := range b.Columns {
		rep.Columns = append(rep.Columns, describe(raw, b, resolver, opt.Coerce))
	}
	log.Printf("probe: source=%s rows=%d columns=%d truncated=%v", rep.Source, rep.Rows, len(rep.Columns), truncated)
	return rep, nil
}

func describe(raw string, b loader.Batch, resolver *schema.Resolver, co builtin.Coerce) Column {
	canonical, mapped := resolver.Canonical(raw)
	col := Column{Raw: raw, Canonical: canonical, Mapped: mapped, Type: ddl.TypeOf(canonical).String()}
	if !mapped || !domain.IsCanonical(canonical) {
		col.Type = ddl.TypeText.String()
	}
	seen := make(map[string]bool)
	for i, row := range b.Rows {
		v, ok := row[raw].(string)
		if !ok || v == "" {
			continue
		}
		col.Filled++
		if len(col.Examples) < maxExamples && !seen[v] {
			seen[v] = true
			col.Examples = append(col.Examples, v)
		}
		if mapped && domain.IsCanonical(canonical) {
			line := 0
			if i < len(b.Lines) {
				line = b.Lines[i]
			}
			if _, skips := co.Record(records.Record{canonical: v}, b.Source, line); len(skips) > 0 {
				col.Unparsed++
			}
		}
	}
	return col
}

// sampled reads at most limit bytes of the wrapped source, cut back to the
// last newline so no partial record reaches the parser.
type sampled struct {
	datasource.Named
	limit     int
	truncated *bool
}

func (s *sampled) Open(ctx context.Context) (io.ReadCloser, error) {
	rc, err := s.Named.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	buf := make([]byte, s.limit+1)
	n, err := io.ReadFull(rc, buf)
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return io.NopCloser(bytes.NewReader(buf[:n])), nil
	case err != nil:
		return nil, fmt.Errorf("sample: %w", err)
	}

	*s.truncated = true
	data := buf[:s.limit]
	if i := bytes.LastIndexByte(data, '\n'); i > 0 {
		data = data[:i+1]
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
