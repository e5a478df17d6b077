package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/isty2e/identedit/internal/apperr"
	"github.com/isty2e/identedit/internal/applyengine"
	"github.com/isty2e/identedit/internal/changeset"
	"github.com/isty2e/identedit/internal/config"
	"github.com/isty2e/identedit/internal/journal"
)

func newApplyCmd(cfg *config.Config) *cobra.Command {
	var inputPath, journalPath string
	var dryRun, repair, verbose bool
	var injectAfterWrites int

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Commit a resolved MultiFileChangeset transactionally across its files",
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

			opts := applyengine.Options{
				DryRun:  dryRun,
				Repair:  repair,
				Verbose: verbose,
				Inject:  applyengine.FailureInjection{Enabled: false, AfterWrites: -1},
			}
			if cfg.Experimental && injectAfterWrites == 0 {
				return emitError(cmd, apperr.New(apperr.InvalidRequest, "--inject-failure-after-writes must be at least 1"))
			}
			if cfg.Experimental && injectAfterWrites >= 0 {
				opts.Inject = applyengine.FailureInjection{Enabled: true, AfterWrites: injectAfterWrites}
			}

			registry, err := buildRegistry(cfg)
			if err != nil {
				return emitError(cmd, err)
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

	cmd.Flags().StringVarP(&inputPath, "file", "f", "", "read the resolved changeset from this file instead of stdin")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute the result without writing any file")
	cmd.Flags().BoolVar(&repair, "repair", false, "accepted but has no effect: stale line anchors in the changeset are not remapped")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "include per-file operation counts in the response")
	cmd.Flags().IntVar(&injectAfterWrites, "inject-failure-after-writes", -1, "experimental: fail the commit after N writes to exercise rollback (requires IDENTEDIT_EXPERIMENTAL=1)")
	_ = cmd.Flags().MarkHidden("inject-failure-after-writes")
	cmd.Flags().StringVar(&journalPath, "journal", "", "append the committed transaction to a durable SQLite journal at this path")

	return cmd
}

// recordJournal opens (or creates) the journal database at path and
// appends one transaction record, closing the connection afterward.
func recordJournal(path string, rec applyengine.TransactionRecord) error {
	db, err := journal.Open(path)
	if err != nil {
		return err
	}
	if err := journal.Record(db, rec); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.Close()
	}
	return nil
}
