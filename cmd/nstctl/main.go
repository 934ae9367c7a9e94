// Command nstctl runs the offline schema, migration, and soundness
// operations over a table configured as a nested-set tree.
package main

import (
	"fmt"
	"os"

	"github.com/nstlib/nst/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
