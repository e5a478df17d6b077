package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/isty2e/identedit/internal/apperr"
	"github.com/isty2e/identedit/internal/hashline"
)

// editRequest is the wire shape for one edit in `identedit hashline apply`'s
// input: a tagged union mirroring hashline.Edit, decoded from JSON.
type editRequest struct {
	Kind         hashline.EditKind          `json:"kind"`
	SetLine      *hashline.SetLineEdit      `json:"set_line,omitempty"`
	ReplaceLines *hashline.ReplaceLinesEdit `json:"replace_lines,omitempty"`
	InsertAfter  *hashline.InsertAfterEdit  `json:"insert_after,omitempty"`
}

func (r editRequest) toEdit() hashline.Edit {
	return hashline.Edit{Kind: r.Kind, SetLine: r.SetLine, ReplaceLines: r.ReplaceLines, InsertAfter: r.InsertAfter}
}

func newHashlineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hashline",
		Short: "Line-anchor utilities: show hashed lines, check anchors, apply line edits",
	}
	cmd.AddCommand(newHashlineShowCmd(), newHashlineCheckCmd(), newHashlineApplyCmd())
	return cmd
}

func newHashlineShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Print a file annotated with <line>:<hash>| for each line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return emitError(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hashline.FormatHashedLines(string(source)))
			return nil
		},
	}
}

func newHashlineCheckCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "check <anchor>...",
		Short: "Check one or more <line>:<hash> anchors against a file's current content",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(file)
			if err != nil {
				return emitError(cmd, err)
			}
			check, err := hashline.CheckRefs(string(source), args)
			if err != nil {
				return emitError(cmd, apperr.New(apperr.InvalidRequest, "%s", err.Error()))
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(check)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "file to check anchors against")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newHashlineApplyCmd() *cobra.Command {
	var file, inputPath string
	var repair bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a batch of line edits (set_line/replace_lines/insert_after) to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readRequest(cmd, inputPath)
			if err != nil {
				return emitError(cmd, err)
			}
			var requests []editRequest
			if err := decodeStrict(data, &requests); err != nil {
				return emitError(cmd, invalidRequestErr(err))
			}
			edits := make([]hashline.Edit, len(requests))
			for i, r := range requests {
				edits[i] = r.toEdit()
			}

			source, err := os.ReadFile(file)
			if err != nil {
				return emitError(cmd, err)
			}

			mode := hashline.ModeStrict
			if repair {
				mode = hashline.ModeRepair
			}
			result, aerr := hashline.ApplyWithMode(string(source), edits, mode)
			if aerr != nil {
				return emitError(cmd, aerr.ToAppErr())
			}

			if err := os.WriteFile(file, []byte(result.Content), 0o644); err != nil {
				return emitError(cmd, apperr.Wrap(apperr.IOError, err, "writing %s", file))
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "file to apply edits to")
	cmd.Flags().StringVar(&inputPath, "edits", "", "read the edit batch from this file instead of stdin")
	cmd.Flags().BoolVar(&repair, "repair", false, "remap unambiguously-stale anchors instead of failing")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
