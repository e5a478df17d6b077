package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/isty2e/identedit/internal/applyengine"
	"github.com/isty2e/identedit/internal/changeset"
	"github.com/isty2e/identedit/internal/diffutil"
)

func newDiffCmd() *cobra.Command {
	var inputPath string
	var context int
	var noColor bool

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Preview a resolved MultiFileChangeset as a unified diff without writing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readRequest(cmd, inputPath)
			if err != nil {
				return emitError(cmd, err)
			}
			var cs changeset.MultiFileChangeset
			if err := json.Unmarshal(data, &cs); err != nil {
				return emitError(cmd, invalidRequestErr(err))
			}

			for _, fc := range cs.Files {
				source, err := os.ReadFile(fc.File)
				if err != nil {
					return emitError(cmd, err)
				}
				newContent, _, err := applyengine.SpliceFile(source, fc)
				if err != nil {
					return emitError(cmd, err)
				}

				unified, err := diffutil.Unified(string(source), newContent, fc.File, context)
				if err != nil {
					return emitError(cmd, err)
				}
				if !noColor {
					unified = diffutil.Colorize(unified)
				}
				fmt.Fprint(cmd.OutOrStdout(), unified)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "file", "f", "", "read the resolved changeset from this file instead of stdin")
	cmd.Flags().IntVar(&context, "context", 3, "lines of surrounding context")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable ANSI color in the diff output")
	return cmd
}
