package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/consensource/consensource-cli/internal/payload"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage agents",
}

var agentCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an agent keyed by the signing key's public key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signer, err := loadSigner()
		if err != nil {
			return err
		}

		pl := &payload.Payload{
			Action: payload.ActionCreateAgent,
			CreateAgent: &payload.CreateAgent{
				Name:      args[0],
				Timestamp: uint64(time.Now().Unix()),
			},
		}
		inputs, outputs := payload.CreateAgentAddresses(signer.PublicKeyHex())
		return submitSingle(cmd, signer, pl, inputs, outputs)
	},
}

var agentAuthorizeCmd = &cobra.Command{
	Use:   "authorize <public-key> <org-id> <role>",
	Short: "Authorize an agent within an organization (role: 1=ADMIN, 2=TRANSACTOR)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var role payload.Role
		switch args[2] {
		case "1":
			role = payload.RoleAdmin
		case "2":
			role = payload.RoleTransactor
		default:
			return fmt.Errorf("invalid role %q: must be 1 (ADMIN) or 2 (TRANSACTOR)", args[2])
		}

		signer, err := loadSigner()
		if err != nil {
			return err
		}

		pl := &payload.Payload{
			Action: payload.ActionAuthorizeAgent,
			AuthorizeAgent: &payload.AuthorizeAgent{
				PublicKey: args[0],
				Role:      role,
			},
		}
		inputs, outputs := payload.AuthorizeAgentAddresses(signer.PublicKeyHex(), args[1], args[0])
		return submitSingle(cmd, signer, pl, inputs, outputs)
	},
}

func init() {
	agentCmd.AddCommand(agentCreateCmd)
	agentCmd.AddCommand(agentAuthorizeCmd)
	rootCmd.AddCommand(agentCmd)
}
