package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/consensource/consensource-cli/internal/protocol"
	"github.com/consensource/consensource-cli/internal/submitter"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Work with pre-built batch files",
}

var batchSubmitCmd = &cobra.Command{
	Use:   "submit <file>",
	Short: "Submit a batch list file, one batch at a time",
	Long: `Reads a serialized batch list (such as one produced by 'csrc genesis')
and submits each batch to the validator in order, waiting for a terminal
status before moving on. Submission stops at the first batch that fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read batch file %s: %w", args[0], err)
		}
		list, err := protocol.DecodeBatchList(data)
		if err != nil {
			return fmt.Errorf("failed to decode batch file %s: %w", args[0], err)
		}
		if len(list.Batches) == 0 {
			return fmt.Errorf("batch file %s contains no batches", args[0])
		}

		ctx := cmd.Context()
		conn, err := dialValidator(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()

		// Batches in a list may depend on state written by earlier ones,
		// so each must reach a terminal status before the next goes out.
		sub := submitter.New(conn, nil, submitterOptions())
		for i, batch := range list.Batches {
			cmd.Printf("submitting batch %d/%d\n", i+1, len(list.Batches))
			result, err := sub.SubmitBatch(ctx, batch)
			if err := reportResult(cmd, result, err); err != nil {
				return fmt.Errorf("batch %d/%d: %w", i+1, len(list.Batches), err)
			}
		}
		return nil
	},
}

func init() {
	batchCmd.AddCommand(batchSubmitCmd)
	rootCmd.AddCommand(batchCmd)
}
