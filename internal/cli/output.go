package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/consensource/consensource-cli/internal/protocol"
	"github.com/consensource/consensource-cli/internal/submitter"
)

// resultView is the JSON shape of a submission result.
type resultView struct {
	BatchID             string               `json:"batch_id"`
	Status              string               `json:"status"`
	InvalidTransactions []invalidTransaction `json:"invalid_transactions,omitempty"`
}

type invalidTransaction struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// printResult renders a submission result on stdout in the configured
// output format.
func printResult(cmd *cobra.Command, result *submitter.SubmissionResult) {
	if cfg.OutputFormat == "json" {
		view := resultView{BatchID: result.BatchID, Status: result.Status.String()}
		for _, inv := range result.InvalidTransactions {
			view.InvalidTransactions = append(view.InvalidTransactions, invalidTransaction{
				ID:      inv.TransactionID,
				Message: inv.Message,
			})
		}
		out, _ := json.MarshalIndent(view, "", "  ")
		cmd.Println(string(out))
		return
	}

	cmd.Printf("Batch:  %s\n", result.BatchID)
	cmd.Printf("Status: %s\n", result.Status)
	for _, inv := range result.InvalidTransactions {
		cmd.Printf("  transaction %s: %s\n", inv.TransactionID, inv.Message)
	}
}

// reportResult prints the result and converts non-committed terminal
// states into errors so the process exits non-zero.
func reportResult(cmd *cobra.Command, result *submitter.SubmissionResult, err error) error {
	if result != nil {
		printResult(cmd, result)
	}
	if err != nil {
		return err
	}
	if result != nil && result.Status != protocol.StatusCommitted {
		return fmt.Errorf("batch %s did not commit: %s", result.BatchID, result.Status)
	}
	return nil
}
