package cli

import (
	"github.com/spf13/cobra"

	"crashdash/internal/domain"
	"crashdash/internal/query"
)

// filterFlags binds the predicate flags shared by the query commands.
type filterFlags struct {
	in query.Input
}

func (ff *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&ff.in.Year, "year", "", "only accidents in this year")
	fs.StringVar(&ff.in.Month, "month", "", "only accidents in this month (1-12)")
	fs.StringVar(&ff.in.Locality, "locality", "", "locality contains (case-insensitive)")
	fs.StringVar(&ff.in.Category, "category", "", "accident type contains")
	fs.StringVar(&ff.in.Weather, "weather", "", "weather condition contains")
	fs.StringVar(&ff.in.Gender, "gender", "", "gender contains")
	fs.StringVar(&ff.in.Vehicle, "vehicle", "", "vehicle type contains")
}

// predicates validates the flags before any source is loaded. Invalid values
// are a command error, never a silently ignored filter.
func (ff *filterFlags) predicates(f *OutputFormatter) (query.Predicates, error) {
	p, err := query.FromInput(ff.in)
	if err != nil {
		return query.Predicates{}, f.Fail(ExitCommandError, ErrCodePredicate, "invalid filter", err)
	}
	return p, nil
}

// selected applies p to ds.
func selected(ds *domain.Dataset, p query.Predicates, f *OutputFormatter) []domain.Record {
	recs := query.Run(ds, p)
	f.VerboseLog("filter: %d of %d records match", len(recs), ds.Len())
	return recs
}
