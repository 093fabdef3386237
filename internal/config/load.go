package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvMetricsBackend = "CRASHDASH_METRICS_BACKEND"
	EnvPushgatewayURL = "PUSHGATEWAY_URL"
	EnvDatadogAddr    = "DD_AGENT_ADDR"
)

// LoadFile decodes a session file. Files ending in .yaml or .yml are decoded
// as YAML; everything else as JSON. Environment overrides are applied after
// decoding.
func LoadFile(path string) (Session, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Session{}, fmt.Errorf("read config: %w", err)
	}
	var s Session
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = Decode(bytes.NewReader(b), "yaml", &s)
	default:
		err = Decode(bytes.NewReader(b), "json", &s)
	}
	if err != nil {
		return Session{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	ApplyEnv(&s)
	return s, nil
}

// Decode reads a session document in the given format ("json" or "yaml").
func Decode(r *bytes.Reader, format string, s *Session) error {
	switch format {
	case "yaml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(s); err != nil {
			return err
		}
	case "json":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(s); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown config format %q", format)
	}
	for i := range s.Sources {
		if s.Sources[i].Parser == nil {
			s.Sources[i].Parser = Options{}
		}
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an
// error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables on top of file settings.
func ApplyEnv(s *Session) {
	if v := os.Getenv(EnvMetricsBackend); v != "" {
		s.Metrics.Backend = v
	}
	if v := os.Getenv(EnvPushgatewayURL); v != "" {
		s.Metrics.PushgatewayURL = v
	}
	if v := os.Getenv(EnvDatadogAddr); v != "" {
		s.Metrics.DatadogAddr = v
	}
}

// FromLocations builds a minimal session from bare locations, as used when the
// CLI is given files directly instead of a session file.
func FromLocations(job string, locations []string) Session {
	s := Session{Job: job}
	for _, loc := range locations {
		s.Sources = append(s.Sources, Source{Location: loc, Parser: Options{}})
	}
	return s
}
