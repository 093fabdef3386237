package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"crashdash/internal/config"
	"crashdash/internal/harmonize"
	"crashdash/internal/loader"
)

// ValidationIssue is one finding in JSON output.
type ValidationIssue struct {
	Severity string `json:"severity"`
	Path     string `json:"path"`
	Message  string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues,omitempty"`
	// Report is set with --load.
	Report *harmonize.Report `json:"report,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var load bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the session without querying",
		Long: `Check the session configuration statically: sources, parser options,
synonym rules, date layouts, metrics and storage settings.

With --load the sources are also loaded and harmonized, and the report
(failed sources, skipped lines, unparsed values) is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, load, cmd)
		},
	}
	cmd.Flags().BoolVar(&load, "load", false, "also load and harmonize the sources")
	return cmd
}

func runValidate(opts *RootOptions, load bool, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	s, err := loadSession(opts)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "load session", err)
	}
	issues := config.ValidateSession(s)
	res := ValidationResult{Valid: !config.HasErrors(issues)}
	for _, iss := range issues {
		res.Issues = append(res.Issues, ValidationIssue{
			Severity: string(iss.Severity),
			Path:     iss.Path,
			Message:  iss.Message,
		})
	}

	if res.Valid && load {
		_, rep, err := harmonize.Build(cmd.Context(), s)
		res.Report = rep
		if err != nil {
			res.Valid = false
			msg := err.Error()
			if errors.Is(err, loader.ErrNoDataAvailable) {
				msg = "no data available: " + msg
			}
			res.Issues = append(res.Issues, ValidationIssue{Severity: "error", Path: "sources", Message: msg})
		}
		if rep != nil {
			for _, fs := range rep.FailedSources() {
				res.Issues = append(res.Issues, ValidationIssue{Severity: "warning", Path: "sources", Message: fs})
			}
		}
	}

	if err := f.Success("", res, func(w io.Writer) error { return writeValidation(w, res) }); err != nil {
		return err
	}
	if !res.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(res.Issues)))
	}
	return nil
}

func writeValidation(w io.Writer, res ValidationResult) error {
	if res.Valid {
		fmt.Fprintln(w, "✓ session valid")
	} else {
		fmt.Fprintln(w, "✗ validation failed")
	}
	for _, iss := range res.Issues {
		fmt.Fprintf(w, "  %s at %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if r := res.Report; r != nil {
		fmt.Fprintln(w)
		rows := make([][]string, 0, len(r.Sources))
		for _, src := range r.Sources {
			rows = append(rows, []string{
				src.Name,
				strconv.Itoa(src.Rows),
				strconv.Itoa(src.Skipped),
				strconv.Quote(src.Delimiter),
			})
		}
		if err := table(w, []string{"source", "rows", "skipped", "delimiter"}, rows); err != nil {
			return err
		}
		fmt.Fprintf(w, "records=%d duplicates=%d synonyms=%s\n", r.Records, r.Duplicates, r.SynonymVersion)
		for _, field := range r.SkipFields() {
			fmt.Fprintf(w, "  unparsed %s: %d\n", field, r.CoercionSkips[field])
		}
	}
	return nil
}
