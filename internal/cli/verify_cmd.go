package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nstlib/nst/store"
	"github.com/nstlib/nst/validate"
)

// NewVerifyCommand builds "nstctl verify".
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "verify",
		Short:         "run the whole-forest soundness checker and report violated invariants",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, configPath, cmd)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to the nstctl config file")
	cmd.MarkFlagRequired("config")
	return cmd
}

func runVerify(opts *RootOptions, configPath string, cmd *cobra.Command) error {
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

	checker := validate.New(s, cfg.Schema.ColumnSet())
	report, err := checker.Verify(context.Background())
	if err != nil {
		return outputError(formatter, ErrCodeDatabase, err.Error(), ExitCommandError)
	}

	if report.OK() {
		formatter.VerboseLog("checked %d row(s)", report.RowCount)
		return formatter.Success(map[string]any{"row_count": report.RowCount, "ok": true})
	}

	if formatter.Format == "json" {
		_ = formatter.Success(map[string]any{"row_count": report.RowCount, "ok": false, "violations": report.Violations})
		return NewExitError(ExitFailure, fmt.Sprintf("%d invariant violation(s) found", len(report.Violations)))
	}

	fmt.Fprintf(formatter.Writer, "checked %d row(s); %d violation(s)\n\n", report.RowCount, len(report.Violations))
	for _, v := range report.Violations {
		fmt.Fprintf(formatter.Writer, "  %s\n", v.String())
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d invariant violation(s) found", len(report.Violations)))
}
