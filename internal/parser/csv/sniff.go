package csv

import "bytes"

// candidates are the delimiters considered by Sniff, in tie-break order.
var candidates = []rune{',', ';', '\t', '|'}

// sniffRecords bounds how many records Sniff inspects.
const sniffRecords = 10

// Sniff guesses the field delimiter from the first records of sample.
//
// Each candidate is counted per record outside quoted fields. A candidate is
// consistent when every inspected record has the same non-zero count. The
// guess is unambiguous only when exactly one consistent candidate has the
// highest count. When nothing is consistent the candidate with the largest
// total is returned with ok=false. A sample containing no candidate at all is
// a single-column file: ',' with ok=true.
func Sniff(sample []byte) (delim rune, ok bool) {
	counts := countPerRecord(sample)
	if len(counts) == 0 {
		return ',', true
	}

	best, bestCount, tied := rune(0), 0, false
	totals := make(map[rune]int, len(candidates))
	for ci, c := range candidates {
		first := counts[0][ci]
		consistent := first > 0
		for _, rec := range counts {
			totals[c] += rec[ci]
			if rec[ci] != first {
				consistent = false
			}
		}
		if !consistent {
			continue
		}
		switch {
		case first > bestCount:
			best, bestCount, tied = c, first, false
		case first == bestCount:
			tied = true
		}
	}
	if best != 0 && !tied {
		return best, true
	}

	fallback, max := ',', 0
	for _, c := range candidates {
		if totals[c] > max {
			fallback, max = c, totals[c]
		}
	}
	if max == 0 {
		return ',', true
	}
	if best != 0 {
		return best, false
	}
	return fallback, false
}

// countPerRecord returns, for each of the first records in sample, the number
// of occurrences of every candidate outside double quotes. Newlines inside
// quotes do not end a record. Blank lines are ignored and a trailing partial
// record is dropped when more records follow.
func countPerRecord(sample []byte) [][]int {
	var out [][]int
	cur := make([]int, len(candidates))
	inQuote, nonEmpty := false, false
	flush := func() {
		if nonEmpty {
			out = append(out, cur)
		}
		cur = make([]int, len(candidates))
		nonEmpty = false
	}
	for i := 0; i < len(sample) && len(out) < sniffRecords; i++ {
		b := sample[i]
		switch {
		case b == '"':
			inQuote = !inQuote
			nonEmpty = true
		case inQuote:
		case b == '\n':
			flush()
		case b == '\r':
		default:
			nonEmpty = true
			for ci, c := range candidates {
				if rune(b) == c {
					cur[ci]++
				}
			}
		}
	}
	if len(out) < sniffRecords && !inQuote && (len(out) == 0 || bytes.HasSuffix(sample, []byte("\n")) || len(sample) < sniffSampleBytes) {
		flush()
	}
	return out
}

// sniffSampleBytes is the prefix length handed to Sniff by the parser.
const sniffSampleBytes = 16 * 1024
