package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"crashdash/internal/aggregate"
	"crashdash/internal/harmonize"
)

// SummaryResult is the payload of the summary command.
type SummaryResult struct {
	aggregate.Result
	Report *harmonize.Report `json:"report,omitempty"`
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		ff         filterFlags
		top        int
		withReport bool
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print totals, rankings and timelines for the selected accidents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			p, err := ff.predicates(f)
			if err != nil {
				return err
			}
			h, err := dataset(cmd.Context(), rootOpts, f)
			if err != nil {
				return err
			}
			defer h.done()
			ds := h.ds
			recs := selected(ds, p, f)
			out := SummaryResult{Result: aggregate.Compute(recs, top)}
			if withReport {
				out.Report = h.rep
			}
			return f.Success(ds.ID(), out, func(w io.Writer) error {
				return writeSummary(w, out)
			})
		},
	}
	ff.register(cmd)
	cmd.Flags().IntVarP(&top, "top", "n", 10, "entries per ranking (0 = all)")
	cmd.Flags().BoolVar(&withReport, "report", false, "include the harmonization report")
	return cmd
}

func writeSummary(w io.Writer, out SummaryResult) error {
	s := out.Summary
	if s.Count == 0 {
		_, err := fmt.Fprintln(w, "no matching records")
		return err
	}
	err := table(w, nil, [][]string{
		{"accidents", strconv.Itoa(s.Count)},
		{"fatalities", strconv.Itoa(s.FatalitiesTotal)},
		{"severe injuries", strconv.Itoa(s.SevereInjuriesTotal)},
		{"minor injuries", strconv.Itoa(s.MinorInjuriesTotal)},
		{"daily average", strconv.FormatFloat(s.DailyAverage, 'f', 2, 64)},
		{"days with accidents", strconv.Itoa(s.Days)},
	})
	if err != nil {
		return err
	}
	sections := []struct {
		title   string
		buckets []aggregate.Bucket
	}{
		{"top localities", out.TopLocalities},
		{"top accident types", out.TopCategories},
		{"top vehicle types", out.TopVehicles},
		{"accidents by hour", out.Hours},
		{"accidents by weekday", out.Weekdays},
	}
	for _, sec := range sections {
		if len(sec.buckets) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", sec.title)
		if err := writeBuckets(w, sec.buckets); err != nil {
			return err
		}
	}
	if r := out.Report; r != nil {
		fmt.Fprintf(w, "\nharmonization (synonyms %s)\n", r.SynonymVersion)
		rows := [][]string{
			{"records", strconv.Itoa(r.Records)},
			{"skipped lines", strconv.Itoa(r.SkippedLines)},
			{"duplicates", strconv.Itoa(r.Duplicates)},
			{"failed sources", strconv.Itoa(len(r.Failures))},
		}
		for _, field := range r.SkipFields() {
			rows = append(rows, []string{"unparsed " + field, strconv.Itoa(r.CoercionSkips[field])})
		}
		return table(w, nil, rows)
	}
	return nil
}

func writeBuckets(w io.Writer, buckets []aggregate.Bucket) error {
	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, []string{"  " + b.Label, strconv.Itoa(b.Count)})
	}
	return table(w, nil, rows)
}
