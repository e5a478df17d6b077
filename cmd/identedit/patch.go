package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/isty2e/identedit/internal/applyengine"
	"github.com/isty2e/identedit/internal/changeset"
	"github.com/isty2e/identedit/internal/config"
)

// newPatchCmd implements the one-shot facade: resolve and commit a single
// unresolved changeset in one call, bypassing the separate transform/apply
// round trip when a caller already knows exactly what it wants to change.
func newPatchCmd(cfg *config.Config) *cobra.Command {
	var inputPath, journalPath string
	var dryRun, verbose bool

	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Resolve and commit an unresolved changeset in a single call",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readRequest(cmd, inputPath)
			if err != nil {
				return emitError(cmd, err)
			}

			var cs changeset.MultiFileChangeset
			if err := decodeStrict(data, &cs); err != nil {
				return emitError(cmd, invalidRequestErr(err))
			}

			cwd, err := os.Getwd()
			if err != nil {
				return emitError(cmd, err)
			}

			registry, err := buildRegistry(cfg)
			if err != nil {
				return emitError(cmd, err)
			}
			opts := applyengine.Options{
				DryRun:  dryRun,
				Verbose: verbose,
				Inject:  applyengine.FailureInjection{Enabled: false, AfterWrites: -1},
			}
			resp, err := applyengine.Apply(registry, cwd, cs, opts)
			if err != nil {
				return emitError(cmd, err)
			}

			if journalPath != "" && !dryRun {
				if err := recordJournal(journalPath, resp.Transaction); err != nil {
					return emitError(cmd, err)
				}
			}

			return json.NewEncoder(cmd.OutOrStdout()).Encode(resp)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "file", "f", "", "read the unresolved changeset from this file instead of stdin")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute the result without writing any file")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "include per-file operation counts in the response")
	cmd.Flags().StringVar(&journalPath, "journal", "", "append the committed transaction to a durable SQLite journal at this path")
	return cmd
}
