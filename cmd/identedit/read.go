package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/isty2e/identedit/internal/hashline"
)

func newReadCmd() *cobra.Command {
	var hashed bool

	cmd := &cobra.Command{
		Use:   "read <file>",
		Short: "Print a file, optionally annotated with line hashes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return emitError(cmd, err)
			}
			if hashed {
				fmt.Fprintln(cmd.OutOrStdout(), hashline.FormatHashedLines(string(source)))
				return nil
			}
			_, err = cmd.OutOrStdout().Write(source)
			return err
		},
	}

	cmd.Flags().BoolVar(&hashed, "hashed", false, "annotate each line with its <line>:<hash>")
	return cmd
}
