package cli

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"crashdash/internal/config"
)

type pushed struct {
	method string
	path   string
	body   []byte
}

// fakeGateway records every push it receives.
func fakeGateway(t *testing.T) (*httptest.Server, func() []pushed) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []pushed
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, pushed{method: r.Method, path: r.URL.Path, body: body})
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []pushed {
		mu.Lock()
		defer mu.Unlock()
		return append([]pushed(nil), reqs...)
	}
}

/*
TestExport_PushesBatchMetrics runs an export with the Pushgateway backend and
checks that the single push made at the end of the run carries the export
batch histogram alongside the harmonization metrics.
*/
func TestExport_PushesBatchMetrics(t *testing.T) {
	gw, received := fakeGateway(t)
	t.Setenv(config.EnvMetricsBackend, "pushgateway")
	t.Setenv(config.EnvPushgatewayURL, gw.URL)

	a, b := fixtures(t)
	dsn := filepath.Join(t.TempDir(), "accidents.db")
	run(t, "export", "-s", a, "-s", b, "--kind", "sqlite", "--dsn", dsn, "--table", "accidents")

	reqs := received()
	if len(reqs) != 1 {
		t.Fatalf("got %d pushes, want 1", len(reqs))
	}
	p := reqs[0]
	if p.method != http.MethodPut || p.path != "/metrics/job/"+defaultJob {
		t.Fatalf("push = %s %s, want PUT /metrics/job/%s", p.method, p.path, defaultJob)
	}
	for _, want := range []string{"crashdash_export_batch_seconds", "accidents", "crashdash_step_total"} {
		if !bytes.Contains(p.body, []byte(want)) {
			t.Errorf("pushed body lacks %q", want)
		}
	}
}

func TestSummary_PushesWithoutExportMetrics(t *testing.T) {
	gw, received := fakeGateway(t)
	t.Setenv(config.EnvMetricsBackend, "pushgateway")
	t.Setenv(config.EnvPushgatewayURL, gw.URL)

	a, _ := fixtures(t)
	run(t, "summary", "-s", a)

	reqs := received()
	if len(reqs) != 1 {
		t.Fatalf("got %d pushes, want 1", len(reqs))
	}
	if !bytes.Contains(reqs[0].body, []byte("crashdash_step_total")) {
		t.Errorf("pushed body lacks the step counter")
	}
	if bytes.Contains(reqs[0].body, []byte("crashdash_export_batch_seconds")) {
		t.Errorf("summary pushed an export histogram")
	}
}
