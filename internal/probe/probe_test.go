package probe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crashdash/internal/config"
	"crashdash/internal/loader"
	"crashdash/internal/schema"
)

const detran = "Data;Hora;Municipio;Mortos;Latitude;Boletim\n" +
	"05/03/2023;14h30;Petrópolis;1;-22,50;B1\n" +
	"31/02/2023;;Petrópolis;x;;B2\n" +
	"07/03/2023;08:00;Teresópolis;0;-22,41;\n"

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "detran.csv")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func column(t *testing.T, rep *Report, raw string) Column {
	t.Helper()
	for _, c := range rep.Columns {
		if c.Raw == raw {
			return c
		}
	}
	t.Fatalf("column %q not in report %+v", raw, rep.Columns)
	return Column{}
}

func TestSource_DescribesColumns(t *testing.T) {
	p := writeFile(t, detran)

	rep, err := Source(context.Background(), config.Source{Location: p, Parser: config.Options{}}, Options{})
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if rep.Source != "detran.csv" || rep.Delimiter != ";" || rep.Rows != 3 || rep.Truncated {
		t.Fatalf("report = %+v", rep)
	}
	if rep.SynonymVersion != schema.DefaultSynonyms().Version {
		t.Fatalf("synonym version = %q", rep.SynonymVersion)
	}

	date := column(t, rep, "Data")
	if date.Canonical != "occurred_at" || !date.Mapped || date.Type != "timestamp" {
		t.Fatalf("Data = %+v", date)
	}
	if date.Filled != 3 || date.Unparsed != 1 {
		t.Fatalf("Data filled=%d unparsed=%d, want 3/1", date.Filled, date.Unparsed)
	}

	deaths := column(t, rep, "Mortos")
	if deaths.Canonical != "fatalities" || deaths.Type != "integer" || deaths.Unparsed != 1 {
		t.Fatalf("Mortos = %+v", deaths)
	}

	lat := column(t, rep, "Latitude")
	if lat.Filled != 2 || lat.Unparsed != 0 {
		t.Fatalf("Latitude = %+v", lat)
	}

	city := column(t, rep, "Municipio")
	if got := strings.Join(city.Examples, "|"); got != "Petrópolis|Teresópolis" {
		t.Fatalf("Municipio examples = %q", got)
	}

	extra := column(t, rep, "Boletim")
	if extra.Mapped || extra.Canonical != "boletim" || extra.Type != "text" || extra.Filled != 2 {
		t.Fatalf("Boletim = %+v", extra)
	}
}

func TestSource_TruncatesAtLastNewline(t *testing.T) {
	p := writeFile(t, detran)

	// Cuts into the third data line; only two complete rows remain.
	limit := strings.Index(detran, "07/03") + 4
	rep, err := Source(context.Background(), config.Source{Location: p, Parser: config.Options{}}, Options{MaxBytes: limit})
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if !rep.Truncated || rep.Rows != 2 || rep.Skipped != 0 {
		t.Fatalf("report = %+v, want truncated with 2 rows", rep)
	}
}

func TestSource_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("date,location\n2024-01-02,Centro\n"))
	}))
	defer srv.Close()

	rep, err := Source(context.Background(), config.Source{Location: srv.URL + "/acidentes.csv", Parser: config.Options{}}, Options{})
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if rep.Rows != 1 || column(t, rep, "location").Canonical != "locality" {
		t.Fatalf("report = %+v", rep)
	}
}

func TestSource_Unavailable(t *testing.T) {
	_, err := Source(context.Background(),
		config.Source{Location: filepath.Join(t.TempDir(), "missing.csv"), Parser: config.Options{}}, Options{})
	if !errors.Is(err, loader.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
	var se *loader.SourceError
	if !errors.As(err, &se) || se.Source == "" {
		t.Fatalf("err = %#v, want *loader.SourceError", err)
	}
}
