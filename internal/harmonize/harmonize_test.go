package harmonize

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"
	"time"

	"crashdash/internal/config"
	"crashdash/internal/domain"
	"crashdash/internal/loader"
	"crashdash/pkg/records"
)

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

/*
TestBuild_MergesHeterogeneousSources loads a semicolon file with Portuguese
headers, a comma file with English headers and a missing file, and checks
the merged dataset, its order and the report.
*/
func TestBuild_MergesHeterogeneousSources(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "acidentes_2023.csv",
		"Data;Hora;Local;Tipo_Acidente;Latitude;Longitude;Mortos;Feridos_Leves;Boletim\n"+
			"05/03/2023;14.30;Centro;Colisão;-22,5056;-43,1789;1;0;B1\n"+
			"06/03/2023;xx;Itaipava;Atropelamento;;;0;2;B2\n")
	b := write(t, dir, "detran_2024.csv",
		"date,time,location,accident_type,deaths,sex of driver\n"+
			"2024-01-02,08:00,Centro,Colisão,abc,M\n")
	missing := filepath.Join(dir, "nope.csv")

	s := config.FromLocations("test", []string{a, missing, b})
	ds, rep, err := Build(context.Background(), s)
	if err != nil || ds == nil {
		t.Fatalf("Build: ds=%v err=%v", ds, err)
	}

	recs := ds.Records()
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if got := ds.Sources(); !slices.Equal(got, []string{"acidentes_2023.csv", "detran_2024.csv"}) {
		t.Errorf("Sources = %v", got)
	}
	if got := ds.Extras(); !slices.Equal(got, []string{"boletim"}) {
		t.Errorf("Extras = %v", got)
	}

	first := recs[0]
	if want := time.Date(2023, 3, 5, 14, 30, 0, 0, time.UTC); !first.OccurredAt.Equal(want) {
		t.Errorf("OccurredAt = %v, want %v", first.OccurredAt, want)
	}
	if math.Abs(*first.Latitude+22.5056) > 1e-9 {
		t.Errorf("Latitude = %v", *first.Latitude)
	}
	if *first.Locality != "Centro" || *first.Fatalities != 1 || *first.Extras["boletim"] != "B1" {
		t.Errorf("first = %+v", first)
	}

	second := recs[1]
	if second.TimeOfDay != nil {
		t.Errorf("unparsable hour gave %v, want missing", second.TimeOfDay)
	}
	if second.HasLocation() {
		t.Errorf("second record has a location")
	}

	third := recs[2]
	if third.Source != "detran_2024.csv" || third.Fatalities != nil || *third.Gender != "M" {
		t.Errorf("third = %+v", third)
	}
	if _, ok := third.Extras["boletim"]; !ok {
		t.Errorf("extras are present on every record; third lacks boletim")
	}

	if len(rep.Failures) != 1 || !errors.Is(rep.Failures[0], loader.ErrSourceUnavailable) {
		t.Fatalf("Failures = %v, want one ErrSourceUnavailable", rep.Failures)
	}
	if rep.CoercionSkips[domain.ColTimeOfDay] != 1 || rep.CoercionSkips[domain.ColFatalities] != 1 {
		t.Errorf("CoercionSkips = %v", rep.CoercionSkips)
	}
	if got := rep.SkipFields(); !slices.Equal(got, []string{domain.ColTimeOfDay, domain.ColFatalities}) {
		t.Errorf("SkipFields = %v", got)
	}
	if len(rep.Samples) != 2 || rep.Records != 3 {
		t.Errorf("samples=%d records=%d, want 2/3", len(rep.Samples), rep.Records)
	}
	if len(rep.Sources) != 2 {
		t.Fatalf("report sources = %d, want 2", len(rep.Sources))
	}
	if rep.Sources[0].Delimiter != ";" || rep.Sources[0].Renamed["Data"] != "occurred_at" {
		t.Errorf("source stats = %+v", rep.Sources[0])
	}
}

func TestBuild_NoData(t *testing.T) {
	dir := t.TempDir()
	s := config.FromLocations("test", []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv")})

	ds, rep, err := Build(context.Background(), s)
	if !errors.Is(err, loader.ErrNoDataAvailable) {
		t.Fatalf("err = %v, want ErrNoDataAvailable", err)
	}
	if ds != nil {
		t.Fatalf("ds = %v, want nil", ds)
	}
	if rep == nil || len(rep.Failures) != 2 || len(rep.FailedSources()) != 2 {
		t.Fatalf("report = %+v, want two failures", rep)
	}
}

func TestBuild_HeaderOnlyIsEmpty(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "empty.csv", "data,local\n")

	if _, _, err := Build(context.Background(), config.FromLocations("test", []string{p})); !errors.Is(err, loader.ErrNoDataAvailable) {
		t.Fatalf("err = %v, want ErrNoDataAvailable", err)
	}
}

func dupBatch(src string) loader.Batch {
	return loader.Batch{
		Source:  src,
		Columns: []string{"data", "local", "mortos"},
		Rows: []records.Record{
			{"data": "01/02/2024", "local": "Centro", "mortos": "0"},
			{"data": "02/02/2024", "local": " Quitandinha ", "mortos": "1"},
		},
		Lines: []int{2, 3},
	}
}

func TestFromBatches_Dedupe(t *testing.T) {
	t.Parallel()

	opt := OptionsFrom(config.Session{Job: "j", Dedupe: true})

	ds, rep, err := FromBatches([]loader.Batch{dupBatch("2023.csv"), dupBatch("2024.csv")}, opt)
	if err != nil {
		t.Fatalf("FromBatches: %v", err)
	}
	if ds.Len() != 2 || rep.Duplicates != 2 {
		t.Fatalf("len=%d duplicates=%d, want 2/2", ds.Len(), rep.Duplicates)
	}
	if r := ds.Records()[1]; *r.Locality != "Quitandinha" || r.Source != "2023.csv" {
		t.Fatalf("kept record = %+v", r)
	}

	opt.Dedupe = false
	ds, rep, err = FromBatches([]loader.Batch{dupBatch("2023.csv"), dupBatch("2024.csv")}, opt)
	if err != nil {
		t.Fatalf("FromBatches: %v", err)
	}
	if ds.Len() != 4 || rep.Duplicates != 0 {
		t.Fatalf("len=%d duplicates=%d, want 4/0", ds.Len(), rep.Duplicates)
	}
}

/*
TestFromBatches_DedupeKeys compares records on the configured columns only.
Keys are given as source spellings and resolved through the synonym table.
*/
func TestFromBatches_DedupeKeys(t *testing.T) {
	t.Parallel()

	second := dupBatch("2024.csv")
	second.Rows[0]["mortos"] = "3"

	opt := OptionsFrom(config.Session{Job: "j", Dedupe: true, DedupeKeys: []string{"Data", "bairro"}})
	if want := []string{domain.ColOccurredAt, domain.ColLocality}; !slices.Equal(opt.DedupeKeys, want) {
		t.Fatalf("DedupeKeys = %v, want %v", opt.DedupeKeys, want)
	}

	ds, rep, err := FromBatches([]loader.Batch{dupBatch("2023.csv"), second}, opt)
	if err != nil {
		t.Fatalf("FromBatches: %v", err)
	}
	if ds.Len() != 2 || rep.Duplicates != 2 {
		t.Fatalf("len=%d duplicates=%d, want 2/2", ds.Len(), rep.Duplicates)
	}
	if got := *ds.Records()[0].Fatalities; got != 0 {
		t.Fatalf("kept fatalities = %d, want the first record's 0", got)
	}

	// Whole-record comparison keeps the differing fatality count.
	opt.DedupeKeys = nil
	ds, _, err = FromBatches([]loader.Batch{dupBatch("2023.csv"), second}, opt)
	if err != nil {
		t.Fatalf("FromBatches: %v", err)
	}
	if ds.Len() != 3 {
		t.Fatalf("whole-record dedupe kept %d, want 3", ds.Len())
	}
}

/*
TestFromBatches_CleanRewrites runs the configured replace and upper steps
after the built-in cleanup, so category labels that differ in spelling and
case end up as one label.
*/
func TestFromBatches_CleanRewrites(t *testing.T) {
	t.Parallel()

	in := loader.Batch{
		Source:  "a.csv",
		Columns: []string{"data", "tipo_acidente", "local"},
		Rows: []records.Record{
			{"data": "01/02/2024", "tipo_acidente": "colisao", "local": "Centro"},
			{"data": "02/02/2024", "tipo_acidente": " Colisão ", "local": "centro"},
			{"data": "03/02/2024", "tipo_acidente": "N/D", "local": "CENTRO"},
		},
		Lines: []int{2, 3, 4},
	}
	opt := OptionsFrom(config.Session{Job: "j", Clean: config.Clean{
		Replace: []config.ValueRule{
			{Column: "Tipo_Acidente", From: "colisao", To: "Colisão"},
			{Column: "category", From: "n/d", To: ""},
		},
		Upper: []string{"bairro"},
	}})

	ds, _, err := FromBatches([]loader.Batch{in}, opt)
	if err != nil {
		t.Fatalf("FromBatches: %v", err)
	}
	var cats, locs []any
	for _, r := range ds.Records() {
		cats = append(cats, r.Value(domain.ColCategory))
		locs = append(locs, r.Value(domain.ColLocality))
	}
	if want := []any{"Colisão", "Colisão", nil}; !reflect.DeepEqual(cats, want) {
		t.Errorf("categories = %v, want %v", cats, want)
	}
	if want := []any{"CENTRO", "CENTRO", "CENTRO"}; !reflect.DeepEqual(locs, want) {
		t.Errorf("localities = %v, want %v", locs, want)
	}
}

/*
TestFromBatches_Idempotent feeds the canonical rendering of a harmonized
dataset back through the pipeline and expects the same records.
*/
func TestFromBatches_Idempotent(t *testing.T) {
	t.Parallel()

	opt := OptionsFrom(config.Session{Job: "j"})
	in := loader.Batch{
		Source:  "a.csv",
		Columns: []string{"data", "hora", "local", "latitude", "mortos", "obs"},
		Rows: []records.Record{
			{"data": "13/02/2021", "hora": "23h05", "local": "Rua  Teresa", "latitude": "-22,51", "mortos": "0", "obs": nil},
		},
		Lines: []int{2},
	}
	ds, _, err := FromBatches([]loader.Batch{in}, opt)
	if err != nil {
		t.Fatalf("FromBatches: %v", err)
	}

	var rows []records.Record
	for _, r := range ds.Records() {
		rows = append(rows, r.Canonical())
	}
	again, _, err := FromBatches([]loader.Batch{{
		Source:  "a.csv",
		Columns: ds.Columns(),
		Rows:    rows,
		Lines:   []int{2},
	}}, opt)
	if err != nil {
		t.Fatalf("FromBatches(canonical): %v", err)
	}
	if !reflect.DeepEqual(ds.Records(), again.Records()) {
		t.Fatalf("not a fixed point\nfirst: %+v\nagain: %+v", ds.Records(), again.Records())
	}
}
