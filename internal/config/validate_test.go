package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validSession() Session {
	return Session{
		Job: "petropolis",
		Sources: []Source{
			{Location: "a.csv", Parser: Options{}},
			{Location: "b.csv", Parser: Options{"comma": ";", "encoding": "latin1"}},
		},
	}
}

/*
TestValidateSession_ValidMinimal verifies that a well-formed session produces
no issues (errors or warnings).
*/
func TestValidateSession_ValidMinimal(t *testing.T) {
	t.Parallel()

	if issues := ValidateSession(validSession()); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestValidateSession_Sources(t *testing.T) {
	t.Parallel()

	s := Session{Job: "j"}
	issues := ValidateSession(s)
	if !hasIssue(t, issues, SeverityError, "sources", "at least one source") {
		t.Fatalf("missing sources error; got %+v", issues)
	}
	if !HasErrors(issues) {
		t.Fatalf("HasErrors = false, want true")
	}

	s.Sources = []Source{
		{Location: "  ", Parser: Options{}},
		{Location: "a.csv", Parser: Options{"comma": ";;"}},
		{Location: "a.csv", Parser: Options{"encoding": "klingon-8", "max_bytes": float64(-1)}},
	}
	issues = ValidateSession(s)

	cases := []struct {
		sev  IssueSeverity
		path string
		msg  string
	}{
		{SeverityError, "sources[0].location", "must not be empty"},
		{SeverityError, "sources[1].parser.comma", "single character"},
		{SeverityWarning, "sources[2].location", "repeats sources[1]"},
		{SeverityError, "sources[2].parser.encoding", "unknown encoding"},
		{SeverityError, "sources[2].parser.max_bytes", "must not be negative"},
	}
	for _, c := range cases {
		if !hasIssue(t, issues, c.sev, c.path, c.msg) {
			t.Errorf("missing %s at %s (%q); got %+v", c.sev, c.path, c.msg, issues)
		}
	}
}

func TestValidateSession_TabComma(t *testing.T) {
	t.Parallel()

	s := validSession()
	s.Sources[0].Parser = Options{"comma": `\t`}
	s.Sources[1].Parser = Options{"comma": "tab"}
	if issues := ValidateSession(s); len(issues) != 0 {
		t.Fatalf("tab aliases should validate; got %+v", issues)
	}
}

func TestValidateSession_SchemaAndCoerce(t *testing.T) {
	t.Parallel()

	s := validSession()
	s.Schema = Schema{
		DisableDefaults: true,
		Synonyms: []SynonymRule{
			{Canonical: "", Aliases: []string{"x"}},
			{Canonical: "municipality"},
		},
	}
	s.Coerce.DateLayouts = []string{"02/01/2006", "  "}
	issues := ValidateSession(s)

	if !hasIssue(t, issues, SeverityError, "schema.synonyms[0].canonical", "must not be empty") {
		t.Errorf("missing canonical error; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityWarning, "schema.synonyms[1].aliases", "no aliases") {
		t.Errorf("missing aliases warning; got %+v", issues)
	}
	if hasIssue(t, issues, SeverityWarning, "schema.disable_defaults", "") {
		t.Errorf("disable_defaults warning should not fire when rules are configured")
	}
	if hasIssue(t, issues, SeverityError, "coerce.date_layouts[0]", "") {
		t.Errorf("valid layout flagged; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "coerce.date_layouts[1]", "not a valid Go time layout") {
		t.Errorf("blank layout not flagged; got %+v", issues)
	}
}

func TestValidateSession_CleanAndDedupe(t *testing.T) {
	t.Parallel()

	s := validSession()
	s.Clean = Clean{
		Replace: []ValueRule{
			{Column: "tipo_acidente", From: "colisao", To: "Colisão"},
			{Column: " ", From: " "},
		},
		Upper: []string{"bairro", ""},
	}
	s.DedupeKeys = []string{"data", " "}
	issues := ValidateSession(s)

	cases := []struct {
		sev  IssueSeverity
		path string
		msg  string
	}{
		{SeverityError, "clean.replace[1].column", "must not be empty"},
		{SeverityError, "clean.replace[1].from", "must not be empty"},
		{SeverityError, "clean.upper[1]", "must not be empty"},
		{SeverityWarning, "dedupe_keys", "no effect"},
		{SeverityError, "dedupe_keys[1]", "must not be empty"},
	}
	for _, c := range cases {
		if !hasIssue(t, issues, c.sev, c.path, c.msg) {
			t.Errorf("missing %s at %s (%q); got %+v", c.sev, c.path, c.msg, issues)
		}
	}
	for _, path := range []string{"clean.replace[0].column", "clean.replace[0].from", "clean.upper[0]", "dedupe_keys[0]"} {
		if hasIssue(t, issues, SeverityError, path, "") {
			t.Errorf("valid entry %s flagged; got %+v", path, issues)
		}
	}

	s.Dedupe = true
	s.DedupeKeys = []string{"data"}
	if hasIssue(t, ValidateSession(s), SeverityWarning, "dedupe_keys", "") {
		t.Errorf("dedupe_keys warned while dedupe is on")
	}
}

func TestValidateSession_MetricsAndStorage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mut  func(*Session)
		sev  IssueSeverity
		path string
		msg  string
	}{
		{
			name: "datadog without addr",
			mut:  func(s *Session) { s.Metrics.Backend = "datadog" },
			sev:  SeverityError, path: "metrics.datadog_addr", msg: "requires datadog_addr",
		},
		{
			name: "pushgateway without url",
			mut:  func(s *Session) { s.Metrics.Backend = "pushgateway" },
			sev:  SeverityWarning, path: "metrics.pushgateway_url", msg: "localhost:9091",
		},
		{
			name: "unknown backend",
			mut:  func(s *Session) { s.Metrics.Backend = "graphite" },
			sev:  SeverityWarning, path: "metrics.backend", msg: "unknown metrics backend",
		},
		{
			name: "unknown storage kind",
			mut:  func(s *Session) { s.Storage = Storage{Kind: "mysql", DSN: "x", Table: "t"} },
			sev:  SeverityError, path: "storage.kind", msg: "unknown storage kind",
		},
		{
			name: "storage without table",
			mut:  func(s *Session) { s.Storage = Storage{Kind: "sqlite", DSN: "x.db"} },
			sev:  SeverityError, path: "storage.table", msg: "must not be empty",
		},
		{
			name: "negative workers",
			mut:  func(s *Session) { s.Runtime.LoadWorkers = -1 },
			sev:  SeverityError, path: "runtime.load_workers", msg: "must not be negative",
		},
		{
			name: "empty job",
			mut:  func(s *Session) { s.Job = "" },
			sev:  SeverityWarning, path: "job", msg: "job is empty",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := validSession()
			tc.mut(&s)
			issues := ValidateSession(s)
			if !hasIssue(t, issues, tc.sev, tc.path, tc.msg) {
				t.Fatalf("expected %s at %s containing %q; got %+v", tc.sev, tc.path, tc.msg, issues)
			}
		})
	}
}

func TestIssue_Error(t *testing.T) {
	t.Parallel()

	iss := Issue{Severity: SeverityError, Path: "sources", Message: "boom"}
	if got := iss.Error(); got != "error at sources: boom" {
		t.Fatalf("Error() = %q", got)
	}
	if HasErrors([]Issue{{Severity: SeverityWarning}}) {
		t.Fatalf("HasErrors on warnings only = true")
	}
}
