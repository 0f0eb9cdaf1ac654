package cli

import (
	"github.com/spf13/cobra"

	"github.com/consensource/consensource-cli/internal/submitter"
)

var statusCmd = &cobra.Command{
	Use:   "status <batch-id>",
	Short: "Query the current status of a submitted batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		conn, err := dialValidator(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()

		// Status queries never sign anything.
		sub := submitter.New(conn, nil, submitterOptions())
		result, err := sub.Status(ctx, args[0])
		if err != nil {
			return err
		}
		printResult(cmd, result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
