// Package config provides configuration models and helpers for sessions.
//
// This file adds a lightweight linter/validator for Session values. It
// performs static checks over a decoded Session and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced but does not
	// block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Session.
//
// Path is a dotted path into the config (e.g. "sources[1].parser.comma").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidateSession performs static validation of a Session. It does not mutate
// the session.
func ValidateSession(s Session) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics will be grouped under the default job name",
		})
	}
	issues = append(issues, validateSources(s.Sources)...)
	issues = append(issues, validateSchema(s.Schema)...)
	issues = append(issues, validateClean(s.Clean)...)
	issues = append(issues, validateCoerce(s.Coerce)...)
	issues = append(issues, validateDedupe(s)...)
	issues = append(issues, validateRuntime(s.Runtime)...)
	issues = append(issues, validateMetrics(s.Metrics)...)
	issues = append(issues, validateStorage(s.Storage)...)
	return issues
}

func validateSources(srcs []Source) []Issue {
	var issues []Issue
	if len(srcs) == 0 {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources",
			Message:  "at least one source is required",
		})
	}
	seen := make(map[string]int, len(srcs))
	for i, src := range srcs {
		path := fmt.Sprintf("sources[%d]", i)
		loc := strings.TrimSpace(src.Location)
		if loc == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".location",
				Message:  "location must not be empty",
			})
			continue
		}
		if prev, dup := seen[loc]; dup {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".location",
				Message:  fmt.Sprintf("location repeats sources[%d]; its rows will be loaded twice", prev),
			})
		} else {
			seen[loc] = i
		}

		if c := src.Parser.String("comma", ""); c != "" && c != `\t` && c != "tab" && len([]rune(c)) != 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".parser.comma",
				Message:  fmt.Sprintf("comma must be a single character, got %q", c),
			})
		}
		if enc := src.Parser.String("encoding", ""); enc != "" {
			if _, err := htmlindex.Get(enc); err != nil {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     path + ".parser.encoding",
					Message:  fmt.Sprintf("unknown encoding %q", enc),
				})
			}
		}
		if src.Parser.Int("max_bytes", 0) < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".parser.max_bytes",
				Message:  "max_bytes must not be negative",
			})
		}
	}
	return issues
}

func validateSchema(s Schema) []Issue {
	var issues []Issue
	if s.DisableDefaults && len(s.Synonyms) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "schema.disable_defaults",
			Message:  "built-in synonyms disabled and none configured; only exact canonical column names will map",
		})
	}
	for i, r := range s.Synonyms {
		path := fmt.Sprintf("schema.synonyms[%d]", i)
		if strings.TrimSpace(r.Canonical) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".canonical",
				Message:  "canonical name must not be empty",
			})
		}
		if len(r.Aliases) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".aliases",
				Message:  "rule has no aliases; it only matches the canonical name itself",
			})
		}
	}
	return issues
}

func validateClean(c Clean) []Issue {
	var issues []Issue
	for i, r := range c.Replace {
		path := fmt.Sprintf("clean.replace[%d]", i)
		if strings.TrimSpace(r.Column) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".column",
				Message:  "column must not be empty",
			})
		}
		if strings.TrimSpace(r.From) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".from",
				Message:  "from must not be empty; blank values are already missing",
			})
		}
	}
	for i, col := range c.Upper {
		if strings.TrimSpace(col) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("clean.upper[%d]", i),
				Message:  "column must not be empty",
			})
		}
	}
	return issues
}

func validateDedupe(s Session) []Issue {
	var issues []Issue
	if len(s.DedupeKeys) > 0 && !s.Dedupe {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "dedupe_keys",
			Message:  "dedupe is off; dedupe_keys has no effect",
		})
	}
	for i, k := range s.DedupeKeys {
		if strings.TrimSpace(k) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("dedupe_keys[%d]", i),
				Message:  "column must not be empty",
			})
		}
	}
	return issues
}

func validateCoerce(c Coerce) []Issue {
	var issues []Issue
	ref := time.Date(2021, time.March, 14, 15, 9, 26, 0, time.UTC)
	for i, layout := range c.DateLayouts {
		// A layout that cannot parse its own rendering is not a usable layout.
		if _, err := time.Parse(layout, ref.Format(layout)); err != nil || strings.TrimSpace(layout) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("coerce.date_layouts[%d]", i),
				Message:  fmt.Sprintf("layout %q is not a valid Go time layout", layout),
			})
		}
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue
	if r.LoadWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.load_workers",
			Message:  "load_workers must not be negative",
		})
	}
	if r.MaxSourceBytes < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.max_source_bytes",
			Message:  "max_source_bytes must not be negative",
		})
	}
	return issues
}

func validateMetrics(m MetricsConfig) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend without URL; http://localhost:9091 will be used",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires datadog_addr",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", m.Backend),
		})
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	if strings.TrimSpace(s.Kind) == "" {
		return issues
	}
	switch s.Kind {
	case "sqlite", "postgres":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; expected sqlite or postgres", s.Kind),
		})
	}
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  "storage.dsn must not be empty",
		})
	}
	if strings.TrimSpace(s.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.table",
			Message:  "storage.table must not be empty",
		})
	}
	return issues
}
