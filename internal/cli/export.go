package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"crashdash/internal/domain"
	"crashdash/internal/storage"
	_ "crashdash/internal/storage/all"
)

// ExportResult is the payload of the export command.
type ExportResult struct {
	Kind  string `json:"kind"`
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		ff        filterFlags
		kind      string
		dsn       string
		tableName string
		create    bool
		batchSize int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the selected accidents to a SQLite or Postgres table",
		Long: `Write the selected accidents to a SQL table, one row per record with its
source file and line. Flags override the session's storage section.`,
		Args: cobra.NoArgs,
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
			ds, s := h.ds, h.session

			cfg := s.Storage
			if kind != "" {
				cfg.Kind = kind
			}
			if dsn != "" {
				cfg.DSN = dsn
			}
			if tableName != "" {
				cfg.Table = tableName
			}
			if cmd.Flags().Changed("create-table") || s.Storage.Kind == "" {
				cfg.AutoCreateTable = create
			}
			if cfg.Kind == "" || cfg.DSN == "" || cfg.Table == "" {
				return f.Fail(ExitCommandError, ErrCodeConfig,
					"export needs a storage kind, dsn and table (flags or session storage section)", nil)
			}

			if !p.IsEmpty() {
				ds = domain.NewDataset(ds.Extras(), ds.Sources(), selected(ds, p, f))
			}

			n, err := storage.Export(cmd.Context(), s.Job, ds, cfg, batchSize)
			if err != nil {
				return f.Fail(ExitFailure, ErrCodeExport, "export", err)
			}
			out := ExportResult{Kind: cfg.Kind, Table: cfg.Table, Rows: n}
			return f.Success(ds.ID(), out, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "exported %d records to %s table %s\n", n, cfg.Kind, cfg.Table)
				return err
			})
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVar(&kind, "kind", "", "storage backend (sqlite|postgres)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "connection string or sqlite file")
	cmd.Flags().StringVar(&tableName, "table", "", "destination table")
	cmd.Flags().BoolVar(&create, "create-table", true, "create the table if it does not exist (default for flag-only exports)")
	cmd.Flags().IntVar(&batchSize, "batch-size", storage.DefaultBatchSize, "rows per insert batch")
	return cmd
}
