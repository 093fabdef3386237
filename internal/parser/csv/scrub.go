package csv

import (
	"bufio"
	"bytes"
	"io"
)

// Rule replaces every occurrence of From with To in the raw byte stream before
// CSV parsing. Agencies occasionally publish files with a recurring broken
// quote sequence that a literal rewrite repairs.
type Rule struct {
	From []byte
	To   []byte
}

// Scrub wraps r so that each rule is applied in order. Rules with an empty
// From or identical From/To are ignored.
func Scrub(r io.Reader, rules []Rule) io.Reader {
	for _, rule := range rules {
		if len(rule.From) == 0 || bytes.Equal(rule.From, rule.To) {
			continue
		}
		r = newStreamingRewriter(r, rule.From, rule.To)
	}
	return r
}

// streamingRewriter performs a rolling find/replace without buffering the
// whole stream. It retains the last len(pat)-1 bytes of each processed block
// as carry so matches spanning chunk boundaries are still found.
type streamingRewriter struct {
	br    *bufio.Reader
	pat   []byte
	repl  []byte
	carry []byte
	chunk []byte
	buf   bytes.Buffer
	eof   bool
}

const scrubChunk = 64 * 1024

func newStreamingRewriter(r io.Reader, pat, repl []byte) *streamingRewriter {
	return &streamingRewriter{
		br:    bufio.NewReaderSize(r, scrubChunk),
		pat:   pat,
		repl:  repl,
		carry: make([]byte, 0, len(pat)),
		chunk: make([]byte, scrubChunk),
	}
}

// Read fills p from pending output, pulling and rewriting the next chunk when
// the buffer runs dry. The trailing carry is flushed at EOF.
func (sr *streamingRewriter) Read(p []byte) (int, error) {
	for {
		if sr.buf.Len() > 0 {
			return sr.buf.Read(p)
		}
		if sr.eof {
			return 0, io.EOF
		}

		n, rerr := sr.br.Read(sr.chunk)
		if n > 0 {
			block := make([]byte, 0, len(sr.carry)+n)
			block = append(block, sr.carry...)
			block = append(block, sr.chunk[:n]...)
			block = bytes.ReplaceAll(block, sr.pat, sr.repl)

			k := len(sr.pat) - 1
			if len(block) > k {
				sr.buf.Write(block[:len(block)-k])
				sr.carry = append(sr.carry[:0], block[len(block)-k:]...)
			} else {
				sr.carry = append(sr.carry[:0], block...)
			}
		}

		switch {
		case rerr == io.EOF:
			sr.buf.Write(sr.carry)
			sr.carry = sr.carry[:0]
			sr.eof = true
		case rerr != nil:
			return 0, rerr
		}
	}
}
