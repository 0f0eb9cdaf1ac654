package cli

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/consensource/consensource-cli/internal/payload"
)

var standardID string

var standardCmd = &cobra.Command{
	Use:   "standard",
	Short: "Manage standards",
}

var standardCreateCmd = &cobra.Command{
	Use:   "create <name> <version> <description> <link> <organization-id> <approval-date>",
	Short: "Create a new standard",
	Args:  cobra.ExactArgs(6),
	RunE: func(cmd *cobra.Command, args []string) error {
		approvalDate, err := strconv.ParseUint(args[5], 10, 64)
		if err != nil {
			return fmt.Errorf("approval-date must be seconds since Unix epoch: %q", args[5])
		}

		signer, err := loadSigner()
		if err != nil {
			return err
		}

		id := standardID
		if id == "" {
			id = uuid.NewString()
		}

		pl := &payload.Payload{
			Action: payload.ActionCreateStandard,
			CreateStandard: &payload.CreateStandard{
				StandardID:   id,
				Name:         args[0],
				Version:      args[1],
				Description:  args[2],
				Link:         args[3],
				ApprovalDate: approvalDate,
			},
		}
		inputs, outputs := payload.CreateStandardAddresses(signer.PublicKeyHex(), id, args[4])
		return submitSingle(cmd, signer, pl, inputs, outputs)
	},
}

func init() {
	standardCreateCmd.Flags().StringVar(&standardID, "id", "", "standard id (a random id is generated when omitted)")
	standardCmd.AddCommand(standardCreateCmd)
	rootCmd.AddCommand(standardCmd)
}
