// Command identedit is the CLI surface over the edit-apply engine: select
// handles, transform them into a changeset, and apply a changeset's
// files transactionally. Structured the way demo/cmd/main.go builds its
// cobra command tree, adapted from one flat demo command into the
// engine's actual subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/isty2e/identedit/internal/config"
)

func main() {
	cfg := config.LoadConfig()
	root := newRootCmd(cfg)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "identedit",
		Short:         "Byte-accurate, content-addressed source editing for agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newSelectCmd(cfg),
		newTransformCmd(cfg),
		newApplyCmd(cfg),
		newHashlineCmd(),
		newPatchCmd(cfg),
		newReadCmd(),
		newGrammarCmd(),
		newDiscoverCmd(cfg),
		newDiffCmd(),
	)
	return root
}
