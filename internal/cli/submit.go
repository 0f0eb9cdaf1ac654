package cli

import (
	"github.com/spf13/cobra"

	"github.com/consensource/consensource-cli/internal/payload"
	"github.com/consensource/consensource-cli/internal/signing"
	"github.com/consensource/consensource-cli/internal/submitter"
)

// submitSingle signs and submits one payload as a single-transaction
// batch, waits for the terminal status and reports it.
func submitSingle(cmd *cobra.Command, signer *signing.Signer, pl *payload.Payload, inputs, outputs []string) error {
	payloadBytes, err := pl.Encode()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	conn, err := dialValidator(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub := submitter.New(conn, signer, submitterOptions())
	result, err := sub.Submit(ctx, []submitter.Payload{{
		Bytes:   payloadBytes,
		Inputs:  inputs,
		Outputs: outputs,
	}})
	return reportResult(cmd, result, err)
}
