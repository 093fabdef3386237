// Package config defines the canonical, file-serializable configuration model
// for one analysis session: which accident files to load, how to parse them,
// how to extend the synonym table, and where metrics and optional exports go.
//
// A session file may be JSON or YAML; both decode into the same structs.
//
// Example (trimmed):
//
//	{
//	  "job": "petropolis",
//	  "sources": [
//	    { "location": "data/acidentes_petropolis.csv" },
//	    { "location": "data/DETRAN PETROPOLIS 2024.csv",
//	      "parser": { "comma": ";", "encoding": "windows-1252" } }
//	  ],
//	  "schema":  { "synonyms": [ { "canonical": "locality", "aliases": ["endereco"] } ] },
//	  "dedupe":  true,
//	  "metrics": { "backend": "pushgateway", "pushgateway_url": "http://localhost:9091" },
//	  "storage": { "kind": "sqlite", "dsn": "accidents.db", "table": "accidents" }
//	}
package config

import "encoding/json"

// Session describes a complete harmonization session.
type Session struct {
	// Job names the session for logs and metrics grouping.
	Job string `json:"job" yaml:"job"`

	// Sources lists the input files in load order. Load order becomes the
	// canonical dataset's insertion order.
	Sources []Source `json:"sources" yaml:"sources"`

	// Schema extends or replaces the built-in synonym table.
	Schema Schema `json:"schema" yaml:"schema"`

	// Coerce tunes the type coercion stage.
	Coerce Coerce `json:"coerce" yaml:"coerce"`

	// Dedupe drops records whose canonical content repeats an earlier record
	// (overlapping yearly exports from the same agency).
	Dedupe bool `json:"dedupe" yaml:"dedupe"`

	// DedupeKeys restricts the duplicate comparison to these columns. Names
	// go through the synonym table. Empty compares every column.
	DedupeKeys []string `json:"dedupe_keys" yaml:"dedupe_keys"`

	// Clean adds value rewrites after the built-in text cleanup.
	Clean Clean `json:"clean" yaml:"clean"`

	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
	HTTP    HTTPConfig    `json:"http" yaml:"http"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Storage Storage       `json:"storage" yaml:"storage"`
}

// Source identifies one input file.
type Source struct {
	// Location is a filesystem path, a file:// URL, or an http(s):// URL.
	Location string `json:"location" yaml:"location"`

	// Name labels the source in warnings and provenance. Defaults to the
	// location's base name.
	Name string `json:"name" yaml:"name"`

	// Parser is a free-form bag interpreted by the CSV parser. Recognized keys:
	//   comma (string), encoding (string), lazy_quotes (bool),
	//   trim_space (bool), max_bytes (int), scrub (array of {from,to}).
	Parser Options `json:"parser" yaml:"parser"`
}

// Schema configures the schema normalizer.
type Schema struct {
	// Synonyms are evaluated before the built-in rules; the first rule that
	// lists a column wins.
	Synonyms []SynonymRule `json:"synonyms" yaml:"synonyms"`

	// DisableDefaults drops the built-in synonym table entirely.
	DisableDefaults bool `json:"disable_defaults" yaml:"disable_defaults"`
}

// SynonymRule maps alternate source spellings onto one canonical column.
type SynonymRule struct {
	Canonical string   `json:"canonical" yaml:"canonical"`
	Aliases   []string `json:"aliases" yaml:"aliases"`
}

// Clean configures per-column value rewrites. Column names go through the
// synonym table, so "bairro" and "locality" name the same column.
type Clean struct {
	// Replace rewrites whole values. A rule matches ignoring case; an empty
	// To blanks the value.
	Replace []ValueRule `json:"replace" yaml:"replace"`

	// Upper lists columns whose values are upper-cased, so spellings that
	// differ only in case group together.
	Upper []string `json:"upper" yaml:"upper"`
}

// ValueRule replaces one value of one column.
type ValueRule struct {
	Column string `json:"column" yaml:"column"`
	From   string `json:"from" yaml:"from"`
	To     string `json:"to" yaml:"to"`
}

// Coerce configures the type coercion stage.
type Coerce struct {
	// DateLayouts are Go time layouts tried before the built-in ones.
	DateLayouts []string `json:"date_layouts" yaml:"date_layouts"`
}

// RuntimeConfig controls loader concurrency and limits.
type RuntimeConfig struct {
	// LoadWorkers bounds concurrent source loads. Zero means one per source
	// up to 4.
	LoadWorkers int `json:"load_workers" yaml:"load_workers"`

	// MaxSourceBytes caps a single source's size; zero disables the cap.
	MaxSourceBytes int64 `json:"max_source_bytes" yaml:"max_source_bytes"`
}

// HTTPConfig configures remote (http/https) sources.
type HTTPConfig struct {
	TimeoutSeconds     int  `json:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries         int  `json:"max_retries" yaml:"max_retries"`
	InsecureSkipVerify bool `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// MetricsConfig selects a metrics backend.
type MetricsConfig struct {
	// Backend is one of "", "none", "pushgateway", "datadog".
	Backend        string `json:"backend" yaml:"backend"`
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr" yaml:"datadog_addr"`
}

// Storage selects the optional export sink for a harmonized dataset.
type Storage struct {
	// Kind selects the backend: "sqlite" or "postgres". Empty disables export.
	Kind string `json:"kind" yaml:"kind"`

	// DSN is the driver connection string (file path for sqlite).
	DSN string `json:"dsn" yaml:"dsn"`

	// Table is the destination table, optionally schema-qualified.
	Table string `json:"table" yaml:"table"`

	// AutoCreateTable issues CREATE TABLE IF NOT EXISTS before loading.
	AutoCreateTable bool `json:"auto_create_table" yaml:"auto_create_table"`
}

// Options is a small helper to fetch typed values from free-form maps decoded
// from JSON or YAML. It performs only minimal type coercion and returns the
// provided default when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64
// and YAML integers as int, so both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. The escape "\t" is accepted for tab-separated files.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			if s == `\t` || s == "tab" {
				return '\t'
			}
			return []rune(s)[0]
		}
	}
	return def
}

// Pairs returns the objects stored under key as from/to string pairs. Entries
// missing either string are skipped.
func (o Options) Pairs(key, from, to string) [][2]string {
	v, ok := o[key]
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out [][2]string
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		f, okF := m[from].(string)
		t, okT := m[to].(string)
		if okF && okT && f != "" {
			out = append(out, [2]string{f, t})
		}
	}
	return out
}

// UnmarshalJSON makes a missing or null options object decode to a non-nil,
// empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
