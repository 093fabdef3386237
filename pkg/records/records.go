// Package records defines the loosely typed row shape shared by the parser,
// the schema normalizer and the row transformers.
package records

// Record maps a column name to its raw value. A nil value marks a missing
// cell; present cells hold a string until the coercion stage.
type Record map[string]any

// String returns the string value stored under key and whether it was present
// and non-nil. Non-string values are reported as absent.
func (r Record) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
