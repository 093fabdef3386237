// Package cli implements the crashdash command line: it harmonizes accident
// files into one dataset and prints filtered records, aggregates, map points
// and selection menus as text or JSON, or exports the dataset to SQL.
package cli

import (
	"fmt"
	"io"
	"log"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	Config      string
	Sources     []string
	SourcesFile string
	Job         string
	EnvFile     string
	Dedupe      bool
	DedupeKeys  []string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the crashdash CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "crashdash",
		Short: "Harmonize and query traffic accident records",
		Long: `crashdash merges traffic accident exports from different agencies and
years into one canonical dataset, then filters and aggregates it.

Sources come from a session file (--config), from repeated --source flags,
or from a list file (--sources-file).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Verbose {
				log.SetOutput(cmd.ErrOrStderr())
			} else {
				log.SetOutput(io.Discard)
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (stage logs on stderr)")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVarP(&opts.Config, "config", "c", "", "session file (.json, .yaml or .yml)")
	pf.StringArrayVarP(&opts.Sources, "source", "s", nil, "accident file path or URL (repeatable)")
	pf.StringVar(&opts.SourcesFile, "sources-file", "", "file listing one source per line")
	pf.StringVar(&opts.Job, "job", "", "job name for logs and metrics")
	pf.StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file with metrics settings")
	pf.BoolVar(&opts.Dedupe, "dedupe", false, "drop records repeating an earlier record")
	pf.StringArrayVar(&opts.DedupeKeys, "dedupe-key", nil, "compare duplicates on this column only (repeatable, implies --dedupe)")

	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewRecordsCommand(opts))
	cmd.AddCommand(NewValuesCommand(opts))
	cmd.AddCommand(NewPointsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewProbeCommand(opts))

	return cmd
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
