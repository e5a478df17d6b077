package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isty2e/identedit/internal/structprovider"
)

func newGrammarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grammar",
		Short: "Inspect and activate structure-provider grammars",
	}
	cmd.AddCommand(newGrammarListCmd(), newGrammarInstallCmd())
	return cmd
}

func newGrammarListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List grammars available for manifest activation",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range structprovider.AvailableGrammars() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newGrammarInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install <manifest.json>",
		Short: "Validate a grammar manifest and report the extensions it activates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			providers, err := structprovider.LoadManifest(args[0])
			if err != nil {
				return emitError(cmd, err)
			}

			type activated struct {
				Extension string `json:"extension"`
				Lang      string `json:"lang"`
			}
			out := make([]activated, 0, len(providers))
			for _, p := range providers {
				for _, ext := range p.Extensions() {
					out = append(out, activated{Extension: ext, Lang: p.Lang()})
				}
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
		},
	}
}
