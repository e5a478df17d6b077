package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/isty2e/identedit/internal/changeset"
	"github.com/isty2e/identedit/internal/config"
)

func newTransformCmd(cfg *config.Config) *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Resolve an unresolved changeset's targets into a previewed MultiFileChangeset",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readRequest(cmd, inputPath)
			if err != nil {
				return emitError(cmd, err)
			}

			var cs changeset.MultiFileChangeset
			if err := decodeStrict(data, &cs); err != nil {
				return emitError(cmd, invalidRequestErr(err))
			}

			registry, err := buildRegistry(cfg)
			if err != nil {
				return emitError(cmd, err)
			}
			resolved, err := changeset.ResolveChangeset(registry, cs)
			if err != nil {
				return emitError(cmd, err)
			}

			return json.NewEncoder(cmd.OutOrStdout()).Encode(resolved)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "file", "f", "", "read the unresolved changeset from this file instead of stdin")
	return cmd
}

func readRequest(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// decodeStrict rejects any field in data not present in v's JSON tags,
// per the request-shape contract: unknown fields are a malformed request,
// not a forward-compatibility signal.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
