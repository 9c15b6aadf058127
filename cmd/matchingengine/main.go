// Command matchingengine runs the matching engine as a standalone process,
// or replays a recorded order file through it for offline inspection.
package main

import (
	"fmt"
	"os"

	"github.com/saiputravu/matchingengine/cmd/matchingengine/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
