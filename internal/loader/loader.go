// Package loader reads every configured accident file into a raw batch.
//
// Each location is loaded independently: a missing, unreadable or undecodable
// file is reported and skipped while the remaining files still load. Loads run
// concurrently but batches are returned in the order the sources were given.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"crashdash/internal/config"
	"crashdash/internal/datasource"
	"crashdash/internal/datasource/file"
	"crashdash/internal/datasource/httpds"
	"crashdash/internal/parser"
	pcsv "crashdash/internal/parser/csv"
	"crashdash/pkg/records"
)

var (
	// ErrSourceUnavailable marks a location that could not be read or decoded.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNoDataAvailable is returned when no source produced a batch.
	ErrNoDataAvailable = errors.New("no data available")
)

// SourceError reports one failed location. It matches ErrSourceUnavailable
// and the underlying cause with errors.Is.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() []error { return []error{ErrSourceUnavailable, e.Err} }

// Batch is the raw content of one successfully loaded file.
type Batch struct {
	// Source names the file in warnings and provenance.
	Source string

	// Location is where the bytes came from.
	Location string

	Columns []string
	Rows    []records.Record

	// Lines holds the 1-based source line of each row.
	Lines []int

	Skipped    int
	Delimiter  rune
	Permissive bool
}

// Result holds the outcome of a load. Batches keep input order; failed
// sources are absent from Batches and listed in Failures, also in input order.
type Result struct {
	Batches  []Batch
	Failures []*SourceError
}

// Options tunes Load.
type Options struct {
	// Workers bounds concurrent loads. Zero means one per source up to 4.
	Workers int

	// MaxBytes caps each source unless its parser options set max_bytes.
	MaxBytes int64

	// HTTP configures the client shared by remote sources.
	HTTP httpds.Config

	// Open overrides how a location becomes a byte source. Nil uses Locate.
	Open func(src config.Source, client *httpds.Client) (datasource.Named, error)
}

// OptionsFrom builds loader options from a session.
func OptionsFrom(s config.Session) Options {
	return Options{
		Workers:  s.Runtime.LoadWorkers,
		MaxBytes: s.Runtime.MaxSourceBytes,
		HTTP: httpds.Config{
			Timeout:            time.Duration(s.HTTP.TimeoutSeconds) * time.Second,
			MaxRetries:         s.HTTP.MaxRetries,
			InsecureSkipVerify: s.HTTP.InsecureSkipVerify,
		},
	}
}

// Locate maps a location onto a byte source: http(s) URLs become remote
// sources, everything else a local file.
func Locate(src config.Source, client *httpds.Client) (datasource.Named, error) {
	loc := strings.TrimSpace(src.Location)
	if loc == "" {
		return nil, errors.New("empty location")
	}
	lower := strings.ToLower(loc)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return httpds.NewRemote(client, loc), nil
	}
	return file.FromLocation(loc)
}

// Load reads all sources. It returns ErrNoDataAvailable (with the Result, so
// failures can still be reported) when no source loaded, and the context
// error if ctx is canceled.
func Load(ctx context.Context, srcs []config.Source, opt Options) (*Result, error) {
	if len(srcs) == 0 {
		return &Result{}, fmt.Errorf("%w: no sources configured", ErrNoDataAvailable)
	}
	open := opt.Open
	if open == nil {
		open = Locate
	}
	workers := opt.Workers
	if workers <= 0 {
		workers = min(len(srcs), 4)
	}
	client := httpds.NewClient(opt.HTTP)

	batches := make([]*Batch, len(srcs))
	failures := make([]*SourceError, len(srcs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			b, name, err := loadOne(ctx, src, open, client, opt.MaxBytes)
			if err != nil {
				log.Printf("loader: warning: source=%s: %v", name, err)
				failures[i] = &SourceError{Source: name, Err: err}
				return nil
			}
			log.Printf("loader: source=%s rows=%d skipped=%d delimiter=%q permissive=%v",
				b.Source, len(b.Rows), b.Skipped, b.Delimiter, b.Permissive)
			batches[i] = b
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{}
	for i := range srcs {
		if batches[i] != nil {
			res.Batches = append(res.Batches, *batches[i])
		}
		if failures[i] != nil {
			res.Failures = append(res.Failures, failures[i])
		}
	}
	if len(res.Batches) == 0 {
		return res, fmt.Errorf("%w: all %d sources failed", ErrNoDataAvailable, len(srcs))
	}
	return res, nil
}

// loadOne opens, caps and parses a single source. It returns the name used
// for the source even on failure.
func loadOne(
	ctx context.Context,
	src config.Source,
	open func(config.Source, *httpds.Client) (datasource.Named, error),
	client *httpds.Client,
	maxBytes int64,
) (*Batch, string, error) {
	name := src.Name
	if name == "" {
		name = src.Location
	}
	ds, err := open(src, client)
	if err != nil {
		return nil, name, err
	}
	if src.Name == "" {
		name = ds.Name()
	}

	rc, err := ds.Open(ctx)
	if err != nil {
		return nil, name, err
	}
	defer rc.Close()

	if n := src.Parser.Int("max_bytes", 0); n > 0 {
		maxBytes = int64(n)
	}
	var p parser.Parser = pcsv.NewParser(pcsv.OptionsFrom(name, src.Parser))
	tbl, err := p.Parse(datasource.Limit(rc, maxBytes))
	if err != nil {
		return nil, name, err
	}
	return &Batch{
		Source:     name,
		Location:   src.Location,
		Columns:    tbl.Columns,
		Rows:       tbl.Rows,
		Lines:      tbl.Lines,
		Skipped:    tbl.Skipped,
		Delimiter:  tbl.Delimiter,
		Permissive: tbl.Permissive,
	}, name, nil
}
