package csv_test

import (
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"crashdash/internal/config"
	pcsv "crashdash/internal/parser/csv"
)

func TestParse_SniffsSemicolonAndKeepsDecimalCommas(t *testing.T) {
	t.Parallel()

	in := "data;local;latitude;longitude\n" +
		"01/02/2024;Centro;-22,5056;-43,1779\n" +
		"03/02/2024;Quitandinha;-22,5301;-43,2100\n"

	tbl, err := pcsv.NewParser(pcsv.Options{Name: "t"}).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tbl.Delimiter != ';' || tbl.Permissive || tbl.Skipped != 0 {
		t.Fatalf("delimiter=%q permissive=%v skipped=%d", tbl.Delimiter, tbl.Permissive, tbl.Skipped)
	}
	if want := []string{"data", "local", "latitude", "longitude"}; !reflect.DeepEqual(tbl.Columns, want) {
		t.Fatalf("columns = %v, want %v", tbl.Columns, want)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(tbl.Rows))
	}
	if v := tbl.Rows[0]["latitude"]; v != "-22,5056" {
		t.Fatalf("latitude = %v", v)
	}
	if !reflect.DeepEqual(tbl.Lines, []int{2, 3}) {
		t.Fatalf("lines = %v, want [2 3]", tbl.Lines)
	}
}

/*
TestParse_MalformedLineFallsBackToPermissive verifies that one line with the
wrong width does not abort the file: the parse restarts permissively, the bad
line is counted, and the good rows are kept in order.
*/
func TestParse_MalformedLineFallsBackToPermissive(t *testing.T) {
	t.Parallel()

	in := "data,local,mortos\n" +
		"2024-01-01,Centro,0\n" +
		"2024-01-02,Centro\n" +
		"2024-01-03,Bingen,1,\n" +
		"2024-01-04,Itaipava,2\n"

	tbl, err := pcsv.NewParser(pcsv.Options{Comma: ','}).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !tbl.Permissive {
		t.Fatalf("expected permissive parse")
	}
	if tbl.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1", tbl.Skipped)
	}
	var got []any
	for _, r := range tbl.Rows {
		got = append(got, r["local"])
	}
	if want := []any{"Centro", "Bingen", "Itaipava"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("locals = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(tbl.Lines, []int{2, 4, 5}) {
		t.Fatalf("lines = %v", tbl.Lines)
	}
}

func TestParse_EmptyCellsAreNil(t *testing.T) {
	t.Parallel()

	tbl, err := pcsv.NewParser(pcsv.Options{Comma: ',', TrimSpace: true}).Parse(strings.NewReader("a,b\n1,  \n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v, ok := tbl.Rows[0]["b"]; !ok || v != nil {
		t.Fatalf("b = %v (present=%v), want nil present", v, ok)
	}
}

func TestParse_EmptyAndHeaderOnly(t *testing.T) {
	t.Parallel()

	tbl, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse(empty): %v", err)
	}
	if len(tbl.Columns) != 0 || len(tbl.Rows) != 0 {
		t.Fatalf("empty input produced %+v", tbl)
	}

	tbl, err = pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader("data;local\n"))
	if err != nil {
		t.Fatalf("Parse(header only): %v", err)
	}
	if len(tbl.Columns) != 2 || len(tbl.Rows) != 0 {
		t.Fatalf("header-only input produced %+v", tbl)
	}
}

func TestParse_BOMAndLatin1(t *testing.T) {
	t.Parallel()

	// UTF-8 with BOM.
	tbl, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader("\ufeffdata;condição\n01/01/2024;chuva\n"))
	if err != nil {
		t.Fatalf("Parse(utf8 bom): %v", err)
	}
	if tbl.Columns[0] != "data" || tbl.Columns[1] != "condição" {
		t.Fatalf("columns = %q", tbl.Columns)
	}

	// Windows-1252 bytes decoded through the encoding option.
	enc, err := charmap.Windows1252.NewEncoder().String("data;condição\n01/01/2024;névoa\n")
	if err != nil {
		t.Fatal(err)
	}
	tbl, err = pcsv.NewParser(pcsv.Options{Encoding: "windows-1252"}).Parse(strings.NewReader(enc))
	if err != nil {
		t.Fatalf("Parse(cp1252): %v", err)
	}
	if tbl.Rows[0]["condição"] != "névoa" {
		t.Fatalf("row = %v", tbl.Rows[0])
	}

	// The same bytes without the option are rejected.
	if _, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader(enc)); err == nil {
		t.Fatalf("expected invalid UTF-8 error")
	}
}

func TestParse_ScrubRepairsBrokenQuotes(t *testing.T) {
	t.Parallel()

	in := "local,tipo\n\"Rua \"X\"\" km 3\",colisao\n"
	opt := pcsv.OptionsFrom("t", config.Options{
		"comma": ",",
		"scrub": []any{map[string]any{"from": `"X""`, "to": `X`}},
	})
	tbl, err := pcsv.NewParser(opt).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tbl.Permissive {
		t.Fatalf("scrubbed input should parse strictly")
	}
	if got := tbl.Rows[0]["local"]; got != "Rua X km 3" {
		t.Fatalf("local = %q", got)
	}
}

func TestHeaderNames(t *testing.T) {
	t.Parallel()

	in := []string{"\ufeff Data ", "hora", "", "hora", "hora.1", "hora"}
	got := pcsv.HeaderNames(in)
	want := []string{"Data", "hora", "col_3", "hora.1", "hora.1.1", "hora.2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("HeaderNames = %q, want %q", got, want)
	}
	if in[0] != "\ufeff Data " {
		t.Fatalf("HeaderNames modified its input: %q", in[0])
	}
}

func TestStripHeaderBOM(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want []string
	}{
		{nil, nil},
		{[]string{"\ufeffdata", "hora"}, []string{"data", "hora"}},
		{[]string{"data", "\ufeffhora"}, []string{"data", "\ufeffhora"}},
	}
	for _, tt := range tests {
		if got := pcsv.StripHeaderBOM(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("StripHeaderBOM = %q, want %q", got, tt.want)
		}
	}
}

func TestOptionsFrom(t *testing.T) {
	t.Parallel()

	opt := pcsv.OptionsFrom("detran", config.Options{
		"comma":       "tab",
		"encoding":    "latin1",
		"lazy_quotes": true,
		"trim_space":  true,
	})
	if opt.Name != "detran" || opt.Comma != '\t' || opt.Encoding != "latin1" || !opt.LazyQuotes || !opt.TrimSpace {
		t.Fatalf("OptionsFrom = %+v", opt)
	}
	if d := pcsv.OptionsFrom("x", config.Options{}); d.Comma != 0 {
		t.Fatalf("default comma = %q, want 0 (sniff)", d.Comma)
	}
}
