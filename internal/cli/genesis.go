package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/consensource/consensource-cli/internal/payload"
	"github.com/consensource/consensource-cli/internal/protocol"
	"github.com/consensource/consensource-cli/internal/signing"
	"github.com/consensource/consensource-cli/internal/submitter"
)

var (
	genesisDescriptorFile string
	genesisOutputFile     string
	genesisKeysDirectory  string
	genesisDryRun         bool
)

// genesisDescriptor is the YAML document describing the organizations,
// agents and standards to seed the network with.
type genesisDescriptor struct {
	Organizations []genesisOrganization `yaml:"organizations"`
}

type genesisOrganization struct {
	ID        string            `yaml:"id"`
	Name      string            `yaml:"name"`
	Type      string            `yaml:"type"`
	Contact   genesisContact    `yaml:"contact"`
	Address   *genesisAddress   `yaml:"address"`
	Agents    []genesisAgent    `yaml:"agents"`
	Standards []genesisStandard `yaml:"standards"`
}

type genesisContact struct {
	Name         string `yaml:"name"`
	PhoneNumber  string `yaml:"phone_number"`
	LanguageCode string `yaml:"language_code"`
}

type genesisAddress struct {
	StreetLine1   string `yaml:"street_line_1"`
	City          string `yaml:"city"`
	StateProvince string `yaml:"state_province"`
	Country       string `yaml:"country"`
	PostalCode    string `yaml:"postal_code"`
}

type genesisAgent struct {
	Name string `yaml:"name"`
	Key  string `yaml:"key"`
	Role string `yaml:"role"`
}

type genesisStandard struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Version      string `yaml:"version"`
	Description  string `yaml:"description"`
	Link         string `yaml:"link"`
	ApprovalDate uint64 `yaml:"approval_date"`
}

var genesisCmd = &cobra.Command{
	Use:   "genesis",
	Short: "Build a batch list file seeding the network from a YAML descriptor",
	Long: `Reads a YAML descriptor of organizations, their agents and standards and
builds the corresponding signed batches into a batch list file suitable
for inclusion in the validator genesis block. Signing keys for each agent
are read from the keys directory, generated there when missing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(genesisDescriptorFile)
		if err != nil {
			return fmt.Errorf("failed to read descriptor %s: %w", genesisDescriptorFile, err)
		}
		var desc genesisDescriptor
		if err := yaml.Unmarshal(data, &desc); err != nil {
			return fmt.Errorf("failed to parse descriptor %s: %w", genesisDescriptorFile, err)
		}
		if len(desc.Organizations) == 0 {
			return fmt.Errorf("descriptor %s defines no organizations", genesisDescriptorFile)
		}

		list, err := buildGenesisBatches(cmd, &desc)
		if err != nil {
			return err
		}

		if genesisDryRun {
			cmd.Printf("dry run: would write %d batches to %s\n", len(list.Batches), genesisOutputFile)
			return nil
		}

		encoded, err := protocol.EncodeBatchList(list)
		if err != nil {
			return err
		}
		if err := os.WriteFile(genesisOutputFile, encoded, 0o644); err != nil {
			return fmt.Errorf("failed to write batch list: %w", err)
		}
		cmd.Printf("wrote %d batches to %s\n", len(list.Batches), genesisOutputFile)
		return nil
	},
}

// buildGenesisBatches builds one single-transaction batch per seed
// operation so a partially applied genesis never interleaves state from
// two organizations.
func buildGenesisBatches(cmd *cobra.Command, desc *genesisDescriptor) (*protocol.BatchList, error) {
	list := &protocol.BatchList{}
	timestamp := uint64(time.Now().Unix())

	for i := range desc.Organizations {
		org := &desc.Organizations[i]
		if org.Name == "" {
			return nil, fmt.Errorf("organization %d has no name", i)
		}
		orgType, err := parseGenesisOrgType(org.Type)
		if err != nil {
			return nil, fmt.Errorf("organization %q: %w", org.Name, err)
		}
		if len(org.Agents) == 0 {
			return nil, fmt.Errorf("organization %q has no agents", org.Name)
		}
		if org.ID == "" {
			org.ID = uuid.NewString()
		}

		admin, err := genesisSigner(&org.Agents[0])
		if err != nil {
			return nil, err
		}
		cmd.Printf("organization %s: admin key %s\n", org.Name, admin.PublicKeyHex())

		// The admin registers itself, then the organization. Creating an
		// organization grants its creator the admin role.
		createAdmin := &payload.Payload{
			Action:      payload.ActionCreateAgent,
			CreateAgent: &payload.CreateAgent{Name: org.Agents[0].Name, Timestamp: timestamp},
		}
		inputs, outputs := payload.CreateAgentAddresses(admin.PublicKeyHex())
		if err := appendGenesisBatch(list, admin, createAdmin, inputs, outputs); err != nil {
			return nil, err
		}

		createOrg := &payload.Payload{
			Action: payload.ActionCreateOrganization,
			CreateOrganization: &payload.CreateOrganization{
				ID:       org.ID,
				Type:     orgType,
				Name:     org.Name,
				Contacts: genesisContacts(org.Contact),
				Address:  genesisFactoryAddress(org.Address),
			},
		}
		inputs, outputs = payload.CreateOrganizationAddresses(admin.PublicKeyHex(), org.ID)
		if err := appendGenesisBatch(list, admin, createOrg, inputs, outputs); err != nil {
			return nil, err
		}

		for j := 1; j < len(org.Agents); j++ {
			agent := &org.Agents[j]
			signer, err := genesisSigner(agent)
			if err != nil {
				return nil, err
			}
			role, err := parseGenesisRole(agent.Role)
			if err != nil {
				return nil, fmt.Errorf("agent %q: %w", agent.Name, err)
			}

			create := &payload.Payload{
				Action:      payload.ActionCreateAgent,
				CreateAgent: &payload.CreateAgent{Name: agent.Name, Timestamp: timestamp},
			}
			inputs, outputs = payload.CreateAgentAddresses(signer.PublicKeyHex())
			if err := appendGenesisBatch(list, signer, create, inputs, outputs); err != nil {
				return nil, err
			}

			authorize := &payload.Payload{
				Action:         payload.ActionAuthorizeAgent,
				AuthorizeAgent: &payload.AuthorizeAgent{PublicKey: signer.PublicKeyHex(), Role: role},
			}
			inputs, outputs = payload.AuthorizeAgentAddresses(admin.PublicKeyHex(), org.ID, signer.PublicKeyHex())
			if err := appendGenesisBatch(list, admin, authorize, inputs, outputs); err != nil {
				return nil, err
			}
		}

		for _, std := range org.Standards {
			if orgType != payload.OrgTypeStandardsBody {
				return nil, fmt.Errorf("organization %q defines standards but is not a standards body", org.Name)
			}
			id := std.ID
			if id == "" {
				id = uuid.NewString()
			}
			create := &payload.Payload{
				Action: payload.ActionCreateStandard,
				CreateStandard: &payload.CreateStandard{
					StandardID:   id,
					Name:         std.Name,
					Version:      std.Version,
					Description:  std.Description,
					Link:         std.Link,
					ApprovalDate: std.ApprovalDate,
				},
			}
			inputs, outputs = payload.CreateStandardAddresses(admin.PublicKeyHex(), id, org.ID)
			if err := appendGenesisBatch(list, admin, create, inputs, outputs); err != nil {
				return nil, err
			}
		}
	}
	return list, nil
}

func appendGenesisBatch(list *protocol.BatchList, signer *signing.Signer, pl *payload.Payload, inputs, outputs []string) error {
	payloadBytes, err := pl.Encode()
	if err != nil {
		return err
	}
	txn, err := submitter.BuildTransaction(signer, submitter.Payload{
		Bytes:   payloadBytes,
		Inputs:  inputs,
		Outputs: outputs,
	})
	if err != nil {
		return err
	}
	batch, err := submitter.BuildBatch(signer, []*protocol.Transaction{txn})
	if err != nil {
		return err
	}
	list.Batches = append(list.Batches, batch)
	return nil
}

// genesisSigner loads the agent's key from the keys directory, generating
// and persisting a fresh one when the file does not exist yet.
func genesisSigner(agent *genesisAgent) (*signing.Signer, error) {
	name := agent.Key
	if name == "" {
		name = agent.Name
	}
	if name == "" {
		return nil, fmt.Errorf("agent has neither a name nor a key name")
	}
	path := filepath.Join(genesisKeysDirectory, name+".priv")

	if _, err := os.Stat(path); err == nil {
		return signing.LoadKeyFile(path)
	}

	signer, err := signing.NewSigner()
	if err != nil {
		return nil, err
	}
	if genesisDryRun {
		return signer, nil
	}
	if err := signer.WriteKeyFile(path); err != nil {
		return nil, err
	}
	return signer, nil
}

func genesisContacts(c genesisContact) []payload.Contact {
	if c.Name == "" && c.PhoneNumber == "" && c.LanguageCode == "" {
		return nil
	}
	return []payload.Contact{{
		Name:         c.Name,
		PhoneNumber:  c.PhoneNumber,
		LanguageCode: c.LanguageCode,
	}}
}

func genesisFactoryAddress(a *genesisAddress) *payload.FactoryAddress {
	if a == nil {
		return nil
	}
	return &payload.FactoryAddress{
		StreetLine1:   a.StreetLine1,
		City:          a.City,
		StateProvince: a.StateProvince,
		Country:       a.Country,
		PostalCode:    a.PostalCode,
	}
}

func parseGenesisOrgType(s string) (payload.OrganizationType, error) {
	switch strings.ToUpper(s) {
	case "CERTIFYING_BODY":
		return payload.OrgTypeCertifyingBody, nil
	case "STANDARDS_BODY":
		return payload.OrgTypeStandardsBody, nil
	case "FACTORY":
		return payload.OrgTypeFactory, nil
	case "INGESTION":
		return payload.OrgTypeIngestion, nil
	default:
		return payload.OrgTypeUnset, fmt.Errorf(
			"invalid organization type %q: must be CERTIFYING_BODY, STANDARDS_BODY, FACTORY or INGESTION", s)
	}
}

func parseGenesisRole(s string) (payload.Role, error) {
	switch strings.ToUpper(s) {
	case "", "TRANSACTOR":
		return payload.RoleTransactor, nil
	case "ADMIN":
		return payload.RoleAdmin, nil
	default:
		return payload.RoleUnset, fmt.Errorf("invalid role %q: must be ADMIN or TRANSACTOR", s)
	}
}

func init() {
	genesisCmd.Flags().StringVar(&genesisDescriptorFile, "descriptor", "genesis.yaml", "YAML descriptor of the seed organizations")
	genesisCmd.Flags().StringVarP(&genesisOutputFile, "output-file", "O", "consensource-genesis.batch", "file the batch list is written to")
	genesisCmd.Flags().StringVar(&genesisKeysDirectory, "keys-directory", "keys", "directory agent signing keys are read from and generated into")
	genesisCmd.Flags().BoolVar(&genesisDryRun, "dry-run", false, "parse the descriptor and build batches without writing any files")
	rootCmd.AddCommand(genesisCmd)
}
