package builtin

import (
	"reflect"
	"testing"

	"crashdash/pkg/records"
)

/*
TestNormalizeApply_TableDriven verifies the core normalization semantics of
Normalize.Apply:

  - Replaces U+00A0 NO-BREAK SPACE (NBSP) and its "Â" mojibake with a space.
  - Trims edges and collapses interior runs of white space.
  - Composes decomposed accents (NFC) so "Corrêas" groups as one label.
  - Turns blank cells into nil and leaves non-string values unchanged.
  - Applies changes in place (record maps are mutated, slice is reused).
*/
func TestNormalizeApply_TableDriven(t *testing.T) {
	tests := []struct {
		name string
		in   []records.Record
		want []records.Record
	}{
		{
			name: "no_strings_no_change",
			in: []records.Record{
				{"a": 1, "b": true, "c": nil},
			},
			want: []records.Record{
				{"a": 1, "b": true, "c": nil},
			},
		},
		{
			name: "simple_trim_spaces",
			in: []records.Record{
				{"a": " foo ", "b": "\tbar\n"},
			},
			want: []records.Record{
				{"a": "foo", "b": "bar"},
			},
		},
		{
			name: "nbsp_replaced_and_trimmed",
			in: []records.Record{
				{
					// " NBSP foo NBSP "
					"a": " " + nbspace + "foo" + nbspace + " ",
				},
			},
			want: []records.Record{
				{"a": "foo"},
			},
		},
		{
			name: "nbsp_internal_only_not_trimmed",
			in: []records.Record{
				{"a": "foo" + nbspace + "bar"},
			},
			want: []records.Record{
				{"a": "foo bar"}, // NBSP to space, no edge whitespace
			},
		},
		{
			name: "mixed_types_partial_changes",
			in: []records.Record{
				{
					"a": " foo ",          // trim only
					"b": "bar" + nbspace,  // NBSP at end -> replace + trim
					"c": 42,               // unchanged (non-string)
					"d": nil,              // unchanged
					"e": "baz",            // unchanged
					"f": "\nqux\r",        // trim
					"g": nbspace + "x",    // NBSP at start -> replace + trim
					"h": "x" + nbspace,    // NBSP at end -> replace + trim
					"i": nbspace + " y  ", // NBSP + spaces -> replace + trim
				},
			},
			want: []records.Record{
				{
					"a": "foo",
					"b": "bar",
					"c": 42,
					"d": nil,
					"e": "baz",
					"f": "qux",
					"g": "x",
					"h": "x",
					"i": "y",
				},
			},
		},
		{
			name: "multiple_records_independent",
			in: []records.Record{
				{"a": " foo ", "b": "bar"},
				{"a": "baz", "b": nbspace + "qux" + nbspace},
			},
			want: []records.Record{
				{"a": "foo", "b": "bar"},
				{"a": "baz", "b": "qux"},
			},
		},
		{
			name: "mojibake_collapse_and_nfc",
			in: []records.Record{
				{
					"a": "Rua" + "Â" + nbspace + "Teresa",
					"b": "Estrada   União\t Indústria",
					"c": "Corre" + "\u0302" + "as",
					"d": "   ",
					"e": nbspace,
				},
			},
			want: []records.Record{
				{
					"a": "Rua Teresa",
					"b": "Estrada União Indústria",
					"c": "Corrêas",
					"d": nil,
					"e": nil,
				},
			},
		},
		{
			name: "unchanged_strings_skipped",
			in: []records.Record{
				{"a": "foo", "b": "bar"},
			},
			want: []records.Record{
				{"a": "foo", "b": "bar"},
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Capture original map identities to verify in-place mutation of maps.
			origMapPtrs := make([]uintptr, len(tc.in))
			for i := range tc.in {
				origMapPtrs[i] = reflect.ValueOf(tc.in[i]).Pointer()
			}

			// Capture address of first element for in-place slice check.
			var firstOrigElem *records.Record
			if len(tc.in) > 0 {
				firstOrigElem = &tc.in[0]
			}

			out := Normalize{}.Apply(tc.in)

			// Verify content equals expected.
			if !reflect.DeepEqual(out, tc.want) {
				t.Fatalf("Normalize.Apply() mismatch:\n got: %#v\nwant: %#v", out, tc.want)
			}

			// Verify slice is reused when non-empty (no reallocation).
			if len(out) > 0 && firstOrigElem != nil {
				if &out[0] != firstOrigElem {
					t.Fatalf("Normalize.Apply did not operate on the original slice: &out[0] != &in[0]")
				}
			}

			// Verify record maps are the same identity (mutated in place).
			for i := range out {
				gotPtr := reflect.ValueOf(out[i]).Pointer()
				if gotPtr != origMapPtrs[i] {
					t.Fatalf("record map identity changed at index %d; want in-place mutation", i)
				}
			}
		})
	}
}

/*
TestNormalizeApply_EmptyInputs verifies behavior for nil and empty slices.

Normalize.Apply should:
  - Return nil when given a nil slice.
  - Return an empty slice unchanged when given an empty slice.
*/
func TestNormalizeApply_EmptyInputs(t *testing.T) {
	var nilSlice []records.Record
	if got := (Normalize{}).Apply(nilSlice); got != nil {
		t.Fatalf("Normalize.Apply(nil) = %#v; want nil", got)
	}

	empty := []records.Record{}
	if got := (Normalize{}).Apply(empty); got == nil || len(got) != 0 {
		t.Fatalf("Normalize.Apply(empty) = %#v; want empty slice", got)
	}
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want any
	}{
		{"Centro", "Centro"},
		{"  Quitandinha ", "Quitandinha"},
		{"COLISÃO TRASEIRA", "COLISÃO TRASEIRA"},
		{"CascatinhaÂ ", "Cascatinha"},
		{"BR-040\tKM 12", "BR-040 KM 12"},
		{"Itaipava\r\nNogueira", "Itaipava Nogueira"},
		{"\u00a0\u00a0", nil},
		{"", nil},
	}
	for _, tc := range tests {
		if got := CleanText(tc.in); got != tc.want {
			t.Errorf("CleanText(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}

func TestHasEdgeSpace(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]bool{
		"":         false,
		"Centro":   false,
		"Rua A":    false,
		" Centro":  true,
		"Centro\t": true,
		"\rCentro": true,
		"\n":       true,
	} {
		if got := HasEdgeSpace(in); got != want {
			t.Errorf("HasEdgeSpace(%q) = %v, want %v", in, got, want)
		}
	}
}
