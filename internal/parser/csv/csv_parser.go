// Package csv parses accident exports as published by different agencies:
// unknown delimiters, optional BOMs, legacy encodings and the occasional
// malformed line. A file is parsed strictly first; if that fails it is parsed
// again permissively, skipping the lines that do not fit.
package csv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"crashdash/internal/config"
	"crashdash/internal/parser"
	"crashdash/pkg/records"
)

// Options configures the CSV parser. The zero value sniffs the delimiter and
// expects UTF-8.
type Options struct {
	// Name labels log lines; usually the source name.
	Name string

	// Comma forces the field delimiter. Zero means sniff.
	Comma rune

	// Encoding is a WHATWG label; empty means UTF-8.
	Encoding string

	// LazyQuotes relaxes quote handling already in the strict pass.
	LazyQuotes bool

	// TrimSpace trims leading/trailing white space from each cell.
	TrimSpace bool

	// Scrub rules are applied to the raw bytes before decoding.
	Scrub []Rule

	// ProgressEvery logs a heartbeat every N rows when > 0.
	ProgressEvery int
}

// OptionsFrom reads parser options from a source's free-form option bag.
func OptionsFrom(name string, o config.Options) Options {
	opt := Options{
		Name:          name,
		Comma:         o.Rune("comma", 0),
		Encoding:      o.String("encoding", ""),
		LazyQuotes:    o.Bool("lazy_quotes", false),
		TrimSpace:     o.Bool("trim_space", false),
		ProgressEvery: o.Int("progress_every", 0),
	}
	for _, p := range o.Pairs("scrub", "from", "to") {
		opt.Scrub = append(opt.Scrub, Rule{From: []byte(p[0]), To: []byte(p[1])})
	}
	return opt
}

// Parser parses CSV input according to Options. It holds no per-input state
// and is safe for concurrent use.
type Parser struct{ opt Options }

var _ parser.Parser = (*Parser)(nil)

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// maxSkipLogs bounds per-file "skipping line" log output.
const maxSkipLogs = 20

// Parse reads the whole input, decodes it and returns the parsed table. Read
// and decode failures are returned as errors; malformed lines are not.
func (p *Parser) Parse(r io.Reader) (*parser.Table, error) {
	raw, err := io.ReadAll(Scrub(r, p.opt.Scrub))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	data, err := Decode(raw, p.opt.Encoding)
	if err != nil {
		return nil, err
	}

	delim, sure := p.opt.Comma, true
	if delim == 0 {
		sample := data
		if len(sample) > sniffSampleBytes {
			sample = sample[:sniffSampleBytes]
		}
		delim, sure = Sniff(sample)
		if !sure {
			log.Printf("csv: %s: delimiter ambiguous, using %q permissively", p.opt.Name, delim)
		}
	}

	if sure {
		t, err := p.parseStrict(data, delim)
		if err == nil {
			return t, nil
		}
		log.Printf("csv: %s: strict parse failed (%v); retrying permissively", p.opt.Name, err)
	}
	return p.parsePermissive(data, delim)
}

func (p *Parser) newReader(data []byte, delim rune) *csv.Reader {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delim
	cr.LazyQuotes = p.opt.LazyQuotes
	return cr
}

// parseStrict fails on the first syntax error or width mismatch.
func (p *Parser) parseStrict(data []byte, delim rune) (*parser.Table, error) {
	cr := p.newReader(data, delim)
	cr.FieldsPerRecord = 0

	t := &parser.Table{Delimiter: delim}
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	t.Columns = HeaderNames(header)

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		p.appendRow(t, row, line)
	}
}

// parsePermissive accepts lazy quotes and variable widths, keeping only rows
// that match the header width. Surplus trailing cells that are all blank are
// dropped rather than rejecting the row.
func (p *Parser) parsePermissive(data []byte, delim rune) (*parser.Table, error) {
	cr := p.newReader(data, delim)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	t := &parser.Table{Delimiter: delim, Permissive: true}
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	t.Columns = HeaderNames(header)
	width := len(t.Columns)

	skip := func(line int, reason string) {
		if t.Skipped < maxSkipLogs {
			log.Printf("csv: %s: skipping line %d: %s", p.opt.Name, line, reason)
		}
		t.Skipped++
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.StartLine
			}
			skip(line, err.Error())
			continue
		}
		line, _ := cr.FieldPos(0)
		if len(row) > width && blank(row[width:]) {
			row = row[:width]
		}
		if len(row) != width {
			skip(line, fmt.Sprintf("expected %d fields, got %d", width, len(row)))
			continue
		}
		p.appendRow(t, row, line)
	}
	if t.Skipped > maxSkipLogs {
		log.Printf("csv: %s: %d malformed lines skipped in total", p.opt.Name, t.Skipped)
	}
	return t, nil
}

func (p *Parser) appendRow(t *parser.Table, row []string, line int) {
	rec := make(records.Record, len(t.Columns))
	for i, col := range t.Columns {
		val := row[i]
		if p.opt.TrimSpace {
			val = strings.TrimSpace(val)
		}
		rec[col] = emptyToNil(val)
	}
	t.Rows = append(t.Rows, rec)
	t.Lines = append(t.Lines, line)
	if n := p.opt.ProgressEvery; n > 0 && len(t.Rows)%n == 0 {
		log.Printf("csv: %s: %d rows read", p.opt.Name, len(t.Rows))
	}
}

// HeaderNames trims header cells, strips a BOM from the first one, names
// blank cells col_N (1-based) and disambiguates repeats as name.1, name.2.
func HeaderNames(h []string) []string {
	out := StripHeaderBOM(append([]string(nil), h...))
	used := make(map[string]bool, len(h))
	repeats := make(map[string]int)
	for i, col := range out {
		c := strings.TrimSpace(col)
		if c == "" {
			c = "col_" + strconv.Itoa(i+1)
		}
		name := c
		for used[name] {
			repeats[c]++
			name = c + "." + strconv.Itoa(repeats[c])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
