package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/isty2e/identedit/internal/config"
	"github.com/isty2e/identedit/internal/handle"
)

// selectedHandle is the wire shape for one emitted SelectionHandle.
type selectedHandle struct {
	File            string `json:"file"`
	Start           int    `json:"start"`
	End             int    `json:"end"`
	Kind            string `json:"kind"`
	Name            string `json:"name,omitempty"`
	Identity        string `json:"identity"`
	ExpectedOldHash string `json:"expected_old_hash"`
}

func newSelectCmd(cfg *config.Config) *cobra.Command {
	var kind, name string

	cmd := &cobra.Command{
		Use:   "select <file>",
		Short: "List selection handles for a file's structural nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			source, err := os.ReadFile(file)
			if err != nil {
				return emitError(cmd, err)
			}

			registry, err := buildRegistry(cfg)
			if err != nil {
				return emitError(cmd, err)
			}
			nodes, err := registry.Parse(file, source)
			if err != nil {
				return emitError(cmd, err)
			}

			var out []selectedHandle
			for _, n := range nodes {
				if kind != "" && n.Kind != kind {
					continue
				}
				if name != "" && n.Name != name {
					continue
				}
				h := handle.FromParts(file, handle.Span{Start: n.Start, End: n.End}, n.Kind, n.Name, n.Text)
				out = append(out, selectedHandle{
					File: file, Start: h.Span.Start, End: h.Span.End,
					Kind: h.Kind, Name: h.Name, Identity: h.Identity, ExpectedOldHash: h.ExpectedOldHash,
				})
			}

			return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "filter by node kind")
	cmd.Flags().StringVar(&name, "name", "", "filter by node name")
	return cmd
}
