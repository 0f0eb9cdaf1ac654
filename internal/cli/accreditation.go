package cli

import (
	"github.com/spf13/cobra"

	"github.com/consensource/consensource-cli/internal/payload"
)

var accreditationCmd = &cobra.Command{
	Use:   "accreditation",
	Short: "Manage accreditations",
}

var accreditationCreateCmd = &cobra.Command{
	Use:   "create <certifying-body-id> <standards-body-id> <standard-id> <valid-from> <valid-to>",
	Short: "Accredit a certifying body for a standard",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		validFrom, validTo, err := parseValidity(args[3], args[4])
		if err != nil {
			return err
		}

		signer, err := loadSigner()
		if err != nil {
			return err
		}

		accredit := &payload.AccreditCertifyingBody{
			CertifyingBodyID: args[0],
			StandardsBodyID:  args[1],
			StandardID:       args[2],
			ValidFrom:        validFrom,
			ValidTo:          validTo,
		}
		pl := &payload.Payload{
			Action:                 payload.ActionAccreditCertifyingBody,
			AccreditCertifyingBody: accredit,
		}
		inputs, outputs := payload.AccreditCertifyingBodyAddresses(signer.PublicKeyHex(), accredit)
		return submitSingle(cmd, signer, pl, inputs, outputs)
	},
}

func init() {
	accreditationCmd.AddCommand(accreditationCreateCmd)
	rootCmd.AddCommand(accreditationCmd)
}
