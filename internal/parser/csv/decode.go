package csv

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// ErrInvalidUTF8 reports bytes that are not UTF-8 when no other encoding was
// configured for the source.
var ErrInvalidUTF8 = errors.New("csv: input is not valid UTF-8")

// Decode converts b to UTF-8. An empty label means UTF-8; other labels are
// WHATWG names ("latin1", "windows-1252", "utf-16le", ...). A leading BOM is
// removed from the result.
func Decode(b []byte, label string) ([]byte, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return validUTF8(StripBOM(b))
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("csv: unknown encoding %q: %w", label, err)
	}
	if enc == unicode.UTF8 {
		return validUTF8(StripBOM(b))
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return nil, fmt.Errorf("csv: decode %s: %w", label, err)
	}
	return StripBOM(out), nil
}

func validUTF8(b []byte) ([]byte, error) {
	if utf8.Valid(b) {
		return b, nil
	}
	off := 0
	for off < len(b) {
		r, size := utf8.DecodeRune(b[off:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		off += size
	}
	return nil, fmt.Errorf("%w (first bad byte at offset %d; set the source encoding, e.g. windows-1252)", ErrInvalidUTF8, off)
}
