package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"crashdash/internal/aggregate"
	"crashdash/internal/domain"
)

// PointsResult is the payload of the points command.
type PointsResult struct {
	Selected int `json:"selected"`
	// Located counts selected records with both coordinates.
	Located int               `json:"located"`
	Points  []aggregate.Point `json:"points"`
}

// NewPointsCommand creates the points command.
func NewPointsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		ff       filterFlags
		severity string
	)
	cmd := &cobra.Command{
		Use:   "points",
		Short: "Print map points with a severity tier for located accidents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			p, err := ff.predicates(f)
			if err != nil {
				return err
			}
			switch domain.Severity(severity) {
			case "", domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow:
			default:
				return f.Fail(ExitCommandError, ErrCodePredicate,
					fmt.Sprintf("invalid severity %q: must be high, medium or low", severity), nil)
			}

			h, err := dataset(cmd.Context(), rootOpts, f)
			if err != nil {
				return err
			}
			defer h.done()
			ds := h.ds
			recs := selected(ds, p, f)

			pts := aggregate.MapPoints(recs)
			out := PointsResult{Selected: len(recs), Located: len(pts), Points: []aggregate.Point{}}
			for _, p := range pts {
				if severity == "" || p.Severity == domain.Severity(severity) {
					out.Points = append(out.Points, p)
				}
			}
			return f.Success(ds.ID(), out, func(w io.Writer) error {
				return writePoints(w, out)
			})
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVar(&severity, "severity", "", "only points of this tier (high|medium|low)")
	return cmd
}

func writePoints(w io.Writer, out PointsResult) error {
	if len(out.Points) == 0 {
		_, err := fmt.Fprintln(w, "no matching records")
		return err
	}
	rows := make([][]string, 0, len(out.Points))
	for _, p := range out.Points {
		rows = append(rows, []string{
			strconv.FormatFloat(p.Latitude, 'f', -1, 64),
			strconv.FormatFloat(p.Longitude, 'f', -1, 64),
			string(p.Severity),
			deref(p.Locality),
			deref(p.Category),
		})
	}
	return table(w, []string{"latitude", "longitude", "severity", "locality", "category"}, rows)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
