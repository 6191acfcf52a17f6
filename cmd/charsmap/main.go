// Command charsmap compiles, decompiles, and applies text normalization
// rule tables.
package main

import (
	"os"

	"github.com/roach88/charsmap/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
