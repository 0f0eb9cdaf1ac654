package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/consensource/consensource-cli/pkg/health"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check connectivity to the validator",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		checker := health.NewChecker()
		checker.Register("validator", func(ctx context.Context) error {
			conn, err := dialValidator(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()
			return conn.Ping(ctx, cfg.Connect.RequestTimeout)
		})

		checks := checker.Run(ctx)
		if cfg.OutputFormat == "json" {
			out, _ := json.MarshalIndent(checks, "", "  ")
			cmd.Println(string(out))
		} else {
			for _, check := range checks {
				cmd.Printf("%s (%s): %s\n", check.Name, cfg.ValidatorEndpoint, check.Status)
				if check.Message != "" {
					cmd.Printf("  %s\n", check.Message)
				}
			}
		}

		for _, check := range checks {
			if check.Status != health.StatusUp {
				return fmt.Errorf("validator at %s is unreachable", cfg.ValidatorEndpoint)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
