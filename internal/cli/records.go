package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"crashdash/internal/domain"
)

var defaultRecordColumns = []string{
	domain.ColOccurredAt,
	domain.ColLocality,
	domain.ColCategory,
	domain.ColVehicleType,
	domain.ColFatalities,
	domain.ColSevereInjuries,
	domain.ColMinorInjuries,
}

// RecordRow is one filtered record as printed by the records command.
// Missing values are null.
type RecordRow struct {
	Source string             `json:"source"`
	Line   int                `json:"line"`
	Values map[string]*string `json:"values"`
}

// RecordsResult is the payload of the records command.
type RecordsResult struct {
	Total   int         `json:"total"`
	Columns []string    `json:"columns"`
	Records []RecordRow `json:"records"`
}

// NewRecordsCommand creates the records command.
func NewRecordsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		ff      filterFlags
		limit   int
		columns []string
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List the accidents matching the filters, in load order",
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

			cols := columns
			if all {
				cols = ds.Columns()
			}
			if len(cols) == 0 {
				cols = defaultRecordColumns
			}
			if unknown := unknownColumns(cols, ds.Columns()); len(unknown) > 0 {
				return f.Fail(ExitCommandError, ErrCodeGeneric,
					"unknown column(s): "+strings.Join(unknown, ", "), nil)
			}

			out := RecordsResult{Total: len(recs), Columns: cols, Records: []RecordRow{}}
			shown := recs
			if limit > 0 && len(shown) > limit {
				shown = shown[:limit]
			}
			for _, r := range shown {
				out.Records = append(out.Records, recordRow(r, cols))
			}
			return f.Success(ds.ID(), out, func(w io.Writer) error {
				return writeRecords(w, out)
			})
		},
	}
	ff.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum records to print (0 = all)")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to print (default: date, place, type, vehicle, casualties)")
	cmd.Flags().BoolVar(&all, "all-columns", false, "print every dataset column")
	return cmd
}

func recordRow(r domain.Record, cols []string) RecordRow {
	row := RecordRow{Source: r.Source, Line: r.Line, Values: make(map[string]*string, len(cols))}
	for _, c := range cols {
		if s, ok := r.Text(c); ok {
			row.Values[c] = &s
		} else {
			row.Values[c] = nil
		}
	}
	return row
}

func unknownColumns(cols, known []string) []string {
	set := make(map[string]bool, len(known))
	for _, k := range known {
		set[k] = true
	}
	var out []string
	for _, c := range cols {
		if !set[c] {
			out = append(out, c)
		}
	}
	return out
}

func writeRecords(w io.Writer, out RecordsResult) error {
	if out.Total == 0 {
		_, err := fmt.Fprintln(w, "no matching records")
		return err
	}
	header := append([]string{"source"}, out.Columns...)
	rows := make([][]string, 0, len(out.Records))
	for _, r := range out.Records {
		cells := make([]string, 0, len(header))
		cells = append(cells, r.Source+":"+strconv.Itoa(r.Line))
		for _, c := range out.Columns {
			if v := r.Values[c]; v != nil {
				cells = append(cells, *v)
			} else {
				cells = append(cells, "-")
			}
		}
		rows = append(rows, cells)
	}
	if err := table(w, header, rows); err != nil {
		return err
	}
	if len(out.Records) < out.Total {
		_, err := fmt.Fprintf(w, "(%d of %d records shown)\n", len(out.Records), out.Total)
		return err
	}
	return nil
}
