package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nstlib/nst/pathcodec"
	"github.com/nstlib/nst/store"
	"github.com/nstlib/nst/treeengine"
)

// NewShowCommand builds "nstctl show <path>".
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "show <path>",
		Short:         "print a node's matrix, boundaries, level, and ancestor chain",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, configPath, args[0], cmd)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to the nstctl config file")
	cmd.MarkFlagRequired("config")
	return cmd
}

// showResult is what "show" prints, in both text and json format.
type showResult struct {
	Path      string   `json:"path"`
	Matrix    [4]int64 `json:"matrix"`
	Left      string   `json:"left"`
	Right     string   `json:"right"`
	Level     int      `json:"level"`
	Ancestors []string `json:"ancestors"`
	Resolved  bool     `json:"resolved"`
}

func runShow(opts *RootOptions, configPath, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return outputConfigError(formatter, err)
	}

	m, err := pathcodec.FromPath(path)
	if err != nil {
		return outputError(formatter, ErrCodeInvalidPath, err.Error(), ExitCommandError)
	}
	level, err := pathcodec.LevelOfPath(path)
	if err != nil {
		return outputError(formatter, ErrCodeInvalidPath, err.Error(), ExitCommandError)
	}
	ancestors, err := pathcodec.AncestorPaths(path)
	if err != nil {
		return outputError(formatter, ErrCodeInvalidPath, err.Error(), ExitCommandError)
	}

	a, b, c, d := m.Int64()
	result := showResult{
		Path:      path,
		Matrix:    [4]int64{a, b, c, d},
		Left:      pathcodec.Left(m).RatString(),
		Right:     pathcodec.Right(m).RatString(),
		Level:     level,
		Ancestors: ancestors,
	}

	s, err := store.Open(cfg.DB)
	if err != nil {
		return outputError(formatter, ErrCodeDatabase, fmt.Sprintf("opening database %q: %v", cfg.DB, err), ExitCommandError)
	}
	defer s.Close()

	engine := treeengine.New(s, cfg.Schema.ColumnSet(), 0)
	if _, _, err := engine.LoadRow(context.Background(), path); err == nil {
		result.Resolved = true
	} else {
		formatter.VerboseLog("path %q does not resolve to an existing row: %v", path, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "path:      %s\n", result.Path)
	fmt.Fprintf(formatter.Writer, "matrix:    (%d, %d, %d, %d)\n", result.Matrix[0], result.Matrix[1], result.Matrix[2], result.Matrix[3])
	fmt.Fprintf(formatter.Writer, "left:      %s\n", result.Left)
	fmt.Fprintf(formatter.Writer, "right:     %s\n", result.Right)
	fmt.Fprintf(formatter.Writer, "level:     %d\n", result.Level)
	fmt.Fprintf(formatter.Writer, "ancestors: %v\n", result.Ancestors)
	fmt.Fprintf(formatter.Writer, "resolved:  %v\n", result.Resolved)
	return nil
}
