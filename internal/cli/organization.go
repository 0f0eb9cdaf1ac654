package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/consensource/consensource-cli/internal/payload"
)

var (
	orgID            string
	orgStreetAddress string
	orgCity          string
	orgStateProvince string
	orgCountry       string
	orgPostalCode    string
)

var organizationCmd = &cobra.Command{
	Use:   "organization",
	Short: "Manage organizations",
}

var organizationCreateCmd = &cobra.Command{
	Use:   "create <name> <type> <contact-name> <contact-phone> <contact-language>",
	Short: "Create an organization (type: 1=CERTIFYING_BODY, 2=STANDARDS_BODY, 3=FACTORY, 4=INGESTION)",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		orgType, err := parseOrgType(args[1])
		if err != nil {
			return err
		}

		signer, err := loadSigner()
		if err != nil {
			return err
		}

		id := orgID
		if id == "" {
			id = uuid.NewString()
		}

		pl := &payload.Payload{
			Action: payload.ActionCreateOrganization,
			CreateOrganization: &payload.CreateOrganization{
				ID:   id,
				Type: orgType,
				Name: args[0],
				Contacts: []payload.Contact{{
					Name:         args[2],
					PhoneNumber:  args[3],
					LanguageCode: args[4],
				}},
				Address: factoryAddressFromFlags(),
			},
		}
		inputs, outputs := payload.CreateOrganizationAddresses(signer.PublicKeyHex(), id)
		return submitSingle(cmd, signer, pl, inputs, outputs)
	},
}

var organizationUpdateCmd = &cobra.Command{
	Use:   "update <id> [name] [contact-name] [contact-phone] [contact-language]",
	Short: "Update an organization",
	Args:  cobra.RangeArgs(1, 5),
	RunE: func(cmd *cobra.Command, args []string) error {
		signer, err := loadSigner()
		if err != nil {
			return err
		}

		update := &payload.UpdateOrganization{
			ID:      args[0],
			Address: factoryAddressFromFlags(),
		}
		if len(args) > 1 {
			update.Name = args[1]
		}
		if len(args) == 5 {
			update.Contacts = []payload.Contact{{
				Name:         args[2],
				PhoneNumber:  args[3],
				LanguageCode: args[4],
			}}
		}

		pl := &payload.Payload{
			Action:             payload.ActionUpdateOrganization,
			UpdateOrganization: update,
		}
		inputs, outputs := payload.UpdateOrganizationAddresses(signer.PublicKeyHex(), args[0])
		return submitSingle(cmd, signer, pl, inputs, outputs)
	},
}

func parseOrgType(s string) (payload.OrganizationType, error) {
	switch s {
	case "1":
		return payload.OrgTypeCertifyingBody, nil
	case "2":
		return payload.OrgTypeStandardsBody, nil
	case "3":
		return payload.OrgTypeFactory, nil
	case "4":
		return payload.OrgTypeIngestion, nil
	default:
		return payload.OrgTypeUnset, fmt.Errorf(
			"invalid organization type %q: must be 1 (CERTIFYING_BODY), 2 (STANDARDS_BODY), 3 (FACTORY) or 4 (INGESTION)", s)
	}
}

func factoryAddressFromFlags() *payload.FactoryAddress {
	if orgStreetAddress == "" && orgCity == "" && orgStateProvince == "" &&
		orgCountry == "" && orgPostalCode == "" {
		return nil
	}
	return &payload.FactoryAddress{
		StreetLine1:   orgStreetAddress,
		City:          orgCity,
		StateProvince: orgStateProvince,
		Country:       orgCountry,
		PostalCode:    orgPostalCode,
	}
}

func init() {
	organizationCreateCmd.Flags().StringVar(&orgID, "id", "", "organization id (a random id is generated when omitted)")
	for _, c := range []*cobra.Command{organizationCreateCmd, organizationUpdateCmd} {
		c.Flags().StringVar(&orgStreetAddress, "street-address", "", "street address of the factory")
		c.Flags().StringVar(&orgCity, "city", "", "city of the factory")
		c.Flags().StringVar(&orgStateProvince, "state-province", "", "state or province of the factory")
		c.Flags().StringVar(&orgCountry, "country", "", "country of the factory")
		c.Flags().StringVar(&orgPostalCode, "postal-code", "", "postal code of the factory")
	}

	organizationCmd.AddCommand(organizationCreateCmd)
	organizationCmd.AddCommand(organizationUpdateCmd)
	rootCmd.AddCommand(organizationCmd)
}
