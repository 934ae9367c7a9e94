package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nstlib/nst/migrate"
	"github.com/nstlib/nst/store"
)

// NewMigrateCommand builds "nstctl migrate".
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "backfill left/right/level from path and report the required index DDL",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(rootOpts, configPath, cmd)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to the nstctl config file")
	cmd.MarkFlagRequired("config")
	return cmd
}

func runMigrate(opts *RootOptions, configPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return outputConfigError(formatter, err)
	}

	s, err := store.Open(cfg.DB)
	if err != nil {
		return outputError(formatter, ErrCodeDatabase, fmt.Sprintf("opening database %q: %v", cfg.DB, err), ExitCommandError)
	}
	defer s.Close()

	formatter.VerboseLog("backfilling left/right/level on table %q from path column %q", cfg.Schema.Table, cfg.Schema.Path)

	m := migrate.New(s, cfg.Schema.ColumnSet())
	report, err := m.Run(context.Background())
	if err != nil {
		return outputError(formatter, ErrCodeDatabase, err.Error(), ExitCommandError)
	}

	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	fmt.Fprintf(formatter.Writer, "backfilled %d row(s)\n\nrecommended indexes:\n", report.RowsTouched)
	for _, ddl := range report.IndexDDL {
		fmt.Fprintf(formatter.Writer, "  %s\n", ddl)
	}
	return nil
}
