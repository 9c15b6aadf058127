// Package cli wires the matchingengine binary's cobra command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the matchingengine command tree: serve and replay.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "matchingengine",
		Short: "A continuous double-auction matching engine",
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newReplayCmd())
	return root
}
