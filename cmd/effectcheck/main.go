// Command effectcheck validates effect scenario files and inspects or replays
// runs recorded in a journal.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/effectcheck/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
