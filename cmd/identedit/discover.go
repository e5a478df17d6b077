package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/isty2e/identedit/internal/config"
	"github.com/isty2e/identedit/internal/discover"
)

func newDiscoverCmd(cfg *config.Config) *cobra.Command {
	var include, exclude []string
	var noGitignore, followSymlinks bool
	var maxBytes int64

	cmd := &cobra.Command{
		Use:   "discover [target]...",
		Short: "List files under one or more targets, honoring .gitignore and glob filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := discover.New(discover.Options{
				MaxBytes:       maxBytes,
				FollowSymlinks: followSymlinks,
				IncludeGlobs:   include,
				ExcludeGlobs:   exclude,
				NoGitignore:    noGitignore,
			})
			files, err := d.Discover(context.Background(), args)
			if err != nil {
				return emitError(cmd, err)
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(files)
		},
	}

	cmd.Flags().StringArrayVar(&include, "include", nil, "doublestar glob a file must match (repeatable)")
	cmd.Flags().StringArrayVar(&exclude, "exclude", nil, "doublestar glob a file must not match (repeatable)")
	cmd.Flags().BoolVar(&noGitignore, "no-gitignore", false, "do not honor .gitignore files")
	cmd.Flags().BoolVar(&followSymlinks, "follow-symlinks", false, "follow symlinked files and directories")
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", 0, "skip files larger than this many bytes (0 means unbounded)")
	return cmd
}
