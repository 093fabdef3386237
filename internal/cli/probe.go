package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"crashdash/internal/config"
	"crashdash/internal/probe"
	"crashdash/internal/schema"
	"crashdash/internal/transformer/builtin"
)

// NewProbeCommand creates the probe command.
func NewProbeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		sampleBytes int
		comma       string
		encoding    string
	)
	cmd := &cobra.Command{
		Use:   "probe <location>",
		Short: "Show how the columns of one file map onto the canonical schema",
		Long: `Sample the head of one accident file and list each header with the
canonical column it maps to, its fill count and how many sampled values
would fail to parse. Synonym rules from --config are applied.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)

			var s config.Session
			if rootOpts.Config != "" {
				var err error
				if s, err = config.LoadFile(rootOpts.Config); err != nil {
					return f.Fail(ExitCommandError, ErrCodeConfig, "load session", err)
				}
			}
			src := config.Source{Location: args[0], Parser: config.Options{}}
			if comma != "" {
				src.Parser["comma"] = comma
			}
			if encoding != "" {
				src.Parser["encoding"] = encoding
			}

			rep, err := probe.Source(cmd.Context(), src, probe.Options{
				MaxBytes: sampleBytes,
				Synonyms: schema.FromConfig(s.Schema),
				Coerce:   builtin.Coerce{ExtraLayouts: s.Coerce.DateLayouts},
			})
			if err != nil {
				return f.Fail(ExitFailure, ErrCodeNoData, "probe", err)
			}
			return f.Success("", rep, func(w io.Writer) error {
				return writeProbe(w, rep)
			})
		},
	}
	cmd.Flags().IntVar(&sampleBytes, "bytes", probe.DefaultSampleBytes, "bytes to sample from the start of the file")
	cmd.Flags().StringVar(&comma, "comma", "", "field delimiter (sniffed when empty)")
	cmd.Flags().StringVar(&encoding, "encoding", "", "text encoding label, e.g. windows-1252")
	return cmd
}

func writeProbe(w io.Writer, rep *probe.Report) error {
	fmt.Fprintf(w, "%s: %d rows sampled, delimiter %q", rep.Source, rep.Rows, rep.Delimiter)
	if rep.Truncated {
		fmt.Fprint(w, " (truncated)")
	}
	if rep.Permissive {
		fmt.Fprintf(w, ", permissive parse skipped %d lines", rep.Skipped)
	}
	fmt.Fprintf(w, "\nsynonyms %s\n\n", rep.SynonymVersion)

	rows := make([][]string, 0, len(rep.Columns))
	for _, c := range rep.Columns {
		target := c.Canonical
		if !c.Mapped {
			target += " (extra)"
		}
		rows = append(rows, []string{
			c.Raw, target, c.Type,
			strconv.Itoa(c.Filled), strconv.Itoa(c.Unparsed),
			strings.Join(c.Examples, " | "),
		})
	}
	return table(w, []string{"header", "column", "type", "filled", "unparsed", "examples"}, rows)
}
