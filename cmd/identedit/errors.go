package main

import (
	"encoding/json"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/isty2e/identedit/internal/apperr"
)

// emitError writes the structured error response to stdout (for agent
// consumers) and a short colored line to stderr (for a human watching),
// then returns the error so cobra's Execute exits non-zero.
func emitError(cmd *cobra.Command, err error) error {
	resp := apperr.ToResponse(err)
	_ = json.NewEncoder(cmd.OutOrStdout()).Encode(resp)

	red := color.New(color.FgRed).SprintFunc()
	cmd.PrintErrln(red(resp.Error.Type) + ": " + resp.Error.Message)
	return err
}

// invalidRequestErr classifies a request-body decoding failure (malformed
// JSON from an agent caller) as invalid_request rather than the generic
// io_error a bare decode error would otherwise surface as.
func invalidRequestErr(cause error) *apperr.Error {
	return apperr.Wrap(apperr.InvalidRequest, cause, "request body is not valid JSON")
}
