package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"crashdash/internal/config"
	"crashdash/internal/ddl"
	"crashdash/internal/domain"
	"crashdash/internal/metrics"
)

// DefaultBatchSize is used by Export when batchSize is not positive.
const DefaultBatchSize = 1000

// ExportColumns returns the column order of an exported row: provenance
// first, then the dataset's columns.
func ExportColumns(ds *domain.Dataset) []string {
	return append([]string{ddl.ColSource, ddl.ColLine}, ds.Columns()...)
}

// Row flattens r into values aligned to ExportColumns. Timestamps stay
// time.Time; clocks become "HH:MM:SS"; missing values are nil.
func Row(r domain.Record, columns []string) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		switch c {
		case ddl.ColSource:
			out[i] = r.Source
		case ddl.ColLine:
			out[i] = r.Line
		default:
			v := r.Value(c)
			if clk, ok := v.(domain.Clock); ok {
				v = clk.String()
			}
			out[i] = v
		}
	}
	return out
}

// Export writes every record of ds to the backend selected by cfg. The table
// is created first when cfg.AutoCreateTable is set. It returns the number of
// rows the backend reported as written.
func Export(ctx context.Context, job string, ds *domain.Dataset, cfg config.Storage, batchSize int) (int64, error) {
	if ds == nil {
		return 0, fmt.Errorf("export: nil dataset")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	start := time.Now()
	columns := ExportColumns(ds)

	repo, err := New(ctx, Config{Kind: cfg.Kind, DSN: cfg.DSN, Table: cfg.Table, Columns: columns})
	if err != nil {
		metrics.RecordStep(job, "export", err, time.Since(start))
		return 0, err
	}
	defer repo.Close()

	if cfg.AutoCreateTable {
		if err := EnsureTable(ctx, cfg.Kind, repo, ddl.ForDataset(cfg.Table, ds.Columns())); err != nil {
			metrics.RecordStep(job, "export", err, time.Since(start))
			return 0, fmt.Errorf("export: create table %s: %w", cfg.Table, err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rows := make(chan []any, batchSize)
	go func() {
		defer close(rows)
		for _, r := range ds.Records() {
			select {
			case rows <- Row(r, columns):
			case <-ctx.Done():
				return
			}
		}
	}()

	b := Batcher{Job: job, Table: cfg.Table, Columns: columns, Size: batchSize, Copy: repo.CopyFrom}
	n, err := b.Run(ctx, rows)
	metrics.RecordStep(job, "export", err, time.Since(start))
	metrics.RecordRecords(job, metrics.KindExported, int(n))
	if err != nil {
		return n, err
	}
	log.Printf("export: job=%s dataset=%s kind=%s table=%s rows=%d elapsed=%s",
		job, ds.ID(), cfg.Kind, cfg.Table, n, time.Since(start).Truncate(time.Millisecond))
	return n, nil
}
