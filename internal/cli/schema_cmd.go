package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nstlib/nst/schema"
	"github.com/nstlib/nst/store"
)

// NewSchemaCommand builds "nstctl schema" with its "check" subcommand.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "schema configuration operations",
	}
	cmd.AddCommand(newSchemaCheckCommand(rootOpts))
	return cmd
}

func newSchemaCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "check",
		Short:         "validate a SchemaSpec against a live database",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaCheck(rootOpts, configPath, cmd)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to the nstctl config file")
	cmd.MarkFlagRequired("config")
	return cmd
}

func runSchemaCheck(opts *RootOptions, configPath string, cmd *cobra.Command) error {
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

	validator, err := schema.NewValidator()
	if err != nil {
		return outputError(formatter, ErrCodeGeneric, err.Error(), ExitCommandError)
	}

	if err := validator.ValidateLive(context.Background(), s, cfg.Schema); err != nil {
		return outputError(formatter, ErrCodeInvalidConfig, err.Error(), ExitFailure)
	}

	return formatter.Success(map[string]any{"table": cfg.Schema.Table, "valid": true})
}

func outputConfigError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if le, ok := err.(*LoadError); ok {
		loadErr = le
	}
	if loadErr != nil {
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return NewExitError(ExitCommandError, loadErr.Message)
	}
	_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, err.Error(), err)
}

func outputError(formatter *OutputFormatter, code, message string, exitCode int) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(exitCode, message)
}
