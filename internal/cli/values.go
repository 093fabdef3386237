package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"crashdash/internal/aggregate"
	"crashdash/internal/domain"
)

// fieldAliases lets the values command take the filter flag names.
var fieldAliases = map[string]string{
	"weather": domain.ColWeather,
	"vehicle": domain.ColVehicleType,
	"type":    domain.ColCategory,
}

// ValuesResult is the payload of the values command.
type ValuesResult struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

// NewValuesCommand creates the values command.
func NewValuesCommand(rootOpts *RootOptions) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "values <field>",
		Short: "List the distinct values of a field, for selection menus",
		Long: `List the sorted distinct values of a field among the selected accidents.

<field> is a dataset column (locality, category, weather_condition, gender,
vehicle_type, or any extra column) or "year".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			p, err := ff.predicates(f)
			if err != nil {
				return err
			}
			field := strings.ToLower(strings.TrimSpace(args[0]))
			if alias, ok := fieldAliases[field]; ok {
				field = alias
			}

			h, err := dataset(cmd.Context(), rootOpts, f)
			if err != nil {
				return err
			}
			defer h.done()
			ds := h.ds
			if field != "year" && !slices.Contains(ds.Columns(), field) {
				return f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("unknown field %q", args[0]), nil)
			}
			recs := selected(ds, p, f)

			out := ValuesResult{Field: field}
			if field == "year" {
				for _, y := range aggregate.Years(recs) {
					out.Values = append(out.Values, strconv.Itoa(y))
				}
			} else {
				out.Values = aggregate.DistinctValues(recs, field)
			}
			if out.Values == nil {
				out.Values = []string{}
			}
			return f.Success(ds.ID(), out, func(w io.Writer) error {
				for _, v := range out.Values {
					if _, err := fmt.Fprintln(w, v); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	ff.register(cmd)
	return cmd
}
