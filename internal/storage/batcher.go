package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"crashdash/internal/metrics"
)

// CopyFn matches Repository.CopyFrom.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// Batcher groups exported rows into fixed-size batches and hands each one to
// Copy. Job and Table only label logs and metrics.
type Batcher struct {
	Job     string
	Table   string
	Columns []string
	Size    int
	Copy    CopyFn
}

// Run drains in, calling Copy once per Size rows and once more for the
// remainder when in is closed. It returns the rows Copy reported and the
// first error; a canceled ctx returns (total, ctx.Err()).
func (b Batcher) Run(ctx context.Context, in <-chan []any) (int64, error) {
	if b.Size <= 0 {
		return 0, errors.New("export: batch size must be > 0")
	}
	if b.Copy == nil {
		return 0, errors.New("export: copy func must not be nil")
	}

	var (
		total   int64
		batches int
		batch   = make([][]any, 0, b.Size)
		start   = time.Now()
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		t0 := time.Now()
		n, err := b.Copy(ctx, b.Columns, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			log.Printf("export: table=%s batch=%d copy failed after=%d total=%d err=%v",
				b.Table, batches+1, n, total, err)
			return err
		}
		batches++
		took := time.Since(t0)
		metrics.RecordBatch(b.Job, b.Table, int(n), took)

		rps := float64(0)
		if took > 0 {
			rps = float64(n) / took.Seconds()
		}
		log.Printf("export: table=%s batch=%d rows=%d total=%d rps=%.0f elapsed=%s",
			b.Table, batches, n, total, rps, time.Since(start).Truncate(time.Millisecond))
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= b.Size {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
