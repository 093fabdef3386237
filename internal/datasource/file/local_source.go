// Package file implements local filesystem sources: single accident files and
// list files naming several of them.
package file

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Local is a filesystem source for one accident file.
type Local struct{ path string }

// NewLocal returns a Local source bound to path. It is safe for concurrent use.
func NewLocal(path string) *Local { return &Local{path: path} }

// FromLocation accepts a bare path or a file:// URL. Percent-escapes in URLs
// are decoded so "file:///data/DETRAN%20PETROPOLIS%202024.csv" works.
func FromLocation(loc string) (*Local, error) {
	if !strings.HasPrefix(loc, "file://") {
		return NewLocal(loc), nil
	}
	u, err := url.Parse(loc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", loc, err)
	}
	if u.Host != "" && u.Host != "localhost" {
		return nil, fmt.Errorf("file url %s: remote host %q not supported", loc, u.Host)
	}
	return NewLocal(filepath.FromSlash(u.Path)), nil
}

// Path returns the filesystem path the source reads.
func (l *Local) Path() string { return l.path }

// Name returns the file's base name.
func (l *Local) Name() string { return filepath.Base(l.path) }

// Open opens the file for reading. A canceled context short-circuits before
// touching the filesystem. Errors keep os.ErrNotExist and friends reachable via
// errors.Is.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", l.path, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, fmt.Errorf("open %s: is a directory", l.path)
	}
	return f, nil
}
