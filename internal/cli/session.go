package cli

import (
	"context"
	"errors"
	"fmt"
	"log"

	"crashdash/internal/config"
	"crashdash/internal/datasource/file"
	"crashdash/internal/domain"
	"crashdash/internal/harmonize"
	"crashdash/internal/loader"
	"crashdash/internal/metrics"
	"crashdash/internal/metrics/datadog"
	"crashdash/internal/metrics/prompush"
)

const (
	defaultJob         = "crashdash"
	defaultPushgateway = "http://localhost:9091"
)

// loadSession assembles the session from the config file, list file and
// --source flags, in that order, then applies .env and environment
// overrides.
func loadSession(opts *RootOptions) (config.Session, error) {
	if err := config.LoadDotEnv(opts.EnvFile); err != nil {
		return config.Session{}, err
	}

	var s config.Session
	if opts.Config != "" {
		var err error
		if s, err = config.LoadFile(opts.Config); err != nil {
			return config.Session{}, err
		}
	} else {
		config.ApplyEnv(&s)
	}
	if opts.SourcesFile != "" {
		srcs, err := file.ReadSources(opts.SourcesFile)
		if err != nil {
			return config.Session{}, err
		}
		s.Sources = append(s.Sources, srcs...)
	}
	s.Sources = append(s.Sources, config.FromLocations("", opts.Sources).Sources...)

	if opts.Job != "" {
		s.Job = opts.Job
	}
	if s.Job == "" {
		s.Job = defaultJob
	}
	if opts.Dedupe {
		s.Dedupe = true
	}
	if len(opts.DedupeKeys) > 0 {
		s.Dedupe = true
		s.DedupeKeys = opts.DedupeKeys
	}
	if len(s.Sources) == 0 {
		return config.Session{}, errors.New("no sources: use --config, --source or --sources-file")
	}
	return s, nil
}

// setupMetrics installs the configured metrics backend. The returned func
// flushes it and restores the no-op backend.
func setupMetrics(s config.Session) (func(), error) {
	var b metrics.Backend
	switch s.Metrics.Backend {
	case "", "none":
		return func() {}, nil
	case "pushgateway":
		url := s.Metrics.PushgatewayURL
		if url == "" {
			url = defaultPushgateway
		}
		pb, err := prompush.NewBackend(s.Job, url)
		if err != nil {
			return nil, err
		}
		b = pb
	case "datadog":
		db, err := datadog.NewBackend(datadog.Config{
			Addr:       s.Metrics.DatadogAddr,
			Namespace:  "crashdash.",
			GlobalTags: []string{"job:" + s.Job},
		})
		if err != nil {
			return nil, err
		}
		b = db
	default:
		log.Printf("metrics: unknown backend %q, metrics disabled", s.Metrics.Backend)
		return func() {}, nil
	}
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush failed: %v", err)
		}
		metrics.Reset()
	}, nil
}

// harmonized is the outcome of the harmonization phase for one command.
type harmonized struct {
	ds      *domain.Dataset
	rep     *harmonize.Report
	session config.Session

	// done flushes the run's metrics. Commands defer it so that work done
	// after harmonization, such as an export, is flushed too.
	done func()
}

// dataset runs the harmonization phase for the command. Failed sources are
// reported on the diagnostic writer; they do not fail the command while at
// least one source loads. On success the caller must call done.
func dataset(ctx context.Context, opts *RootOptions, f *OutputFormatter) (*harmonized, error) {
	s, err := loadSession(opts)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "load session", err)
	}
	if issues := config.ValidateSession(s); config.HasErrors(issues) {
		for _, iss := range issues {
			f.VerboseLog("%s", iss.Error())
		}
		return nil, f.Fail(ExitCommandError, ErrCodeConfig,
			fmt.Sprintf("invalid session: %s", firstError(issues)), nil)
	}

	flush, err := setupMetrics(s)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "metrics", err)
	}

	ds, rep, err := harmonize.Build(ctx, s)
	if rep != nil {
		for _, msg := range rep.FailedSources() {
			fmt.Fprintf(f.GetErrWriter(), "warning: %s\n", msg)
		}
	}
	if err != nil {
		flush()
		if errors.Is(err, loader.ErrNoDataAvailable) {
			return nil, f.Fail(ExitFailure, ErrCodeNoData, "no data available", err)
		}
		return nil, f.Fail(ExitFailure, ErrCodeGeneric, "harmonize", err)
	}
	f.VerboseLog("dataset %s: %d records from %d source(s)", ds.ID(), ds.Len(), len(ds.Sources()))
	return &harmonized{ds: ds, rep: rep, session: s, done: flush}, nil
}

func firstError(issues []config.Issue) string {
	for _, iss := range issues {
		if iss.Severity == config.SeverityError {
			return iss.Error()
		}
	}
	return ""
}
