// Package datasource defines the byte-level input abstraction used by the
// loader. Concrete sources live in subpackages (file, httpds).
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Source yields the raw bytes of one input file.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Named is a Source that can label itself in warnings and provenance.
type Named interface {
	Source
	Name() string
}

// ErrTooLarge is returned by a limited reader once more than its cap was read.
var ErrTooLarge = errors.New("datasource: source exceeds size limit")

// Limit wraps rc so that reading more than max bytes fails with ErrTooLarge.
// A max of zero or less returns rc unchanged.
func Limit(rc io.ReadCloser, max int64) io.ReadCloser {
	if max <= 0 {
		return rc
	}
	return &limited{rc: rc, left: max, max: max}
}

type limited struct {
	rc   io.ReadCloser
	left int64
	max  int64
}

func (l *limited) Read(p []byte) (int, error) {
	if l.left < 0 {
		return 0, fmt.Errorf("%w (%d bytes)", ErrTooLarge, l.max)
	}
	// Ask for one byte past the cap so an exact-size file still reads cleanly.
	if int64(len(p)) > l.left+1 {
		p = p[:l.left+1]
	}
	n, err := l.rc.Read(p)
	l.left -= int64(n)
	if l.left < 0 {
		return n, fmt.Errorf("%w (%d bytes)", ErrTooLarge, l.max)
	}
	return n, err
}

func (l *limited) Close() error { return l.rc.Close() }
