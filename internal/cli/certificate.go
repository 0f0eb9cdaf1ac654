package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/consensource/consensource-cli/internal/payload"
)

var (
	certRequestID string
	certData      []string
)

var certificateCmd = &cobra.Command{
	Use:   "certificate",
	Short: "Manage certificates",
}

var certificateCreateCmd = &cobra.Command{
	Use:   "create <id> <certifying-body-id> <factory-id> <source> <standard-id> <valid-from> <valid-to>",
	Short: "Issue a certificate (source: 1=FROM_REQUEST, 2=INDEPENDENT)",
	Args:  cobra.ExactArgs(7),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := parseCertSource(args[3])
		if err != nil {
			return err
		}
		validFrom, validTo, err := parseValidity(args[5], args[6])
		if err != nil {
			return err
		}
		data, err := parseCertData(certData)
		if err != nil {
			return err
		}

		signer, err := loadSigner()
		if err != nil {
			return err
		}

		issue := &payload.IssueCertificate{
			ID:               args[0],
			CertifyingBodyID: args[1],
			FactoryID:        args[2],
			Source:           source,
			RequestID:        certRequestID,
			StandardID:       args[4],
			CertificateData:  data,
			ValidFrom:        validFrom,
			ValidTo:          validTo,
		}
		pl := &payload.Payload{
			Action:           payload.ActionIssueCertificate,
			IssueCertificate: issue,
		}
		inputs, outputs := payload.IssueCertificateAddresses(signer.PublicKeyHex(), issue)
		return submitSingle(cmd, signer, pl, inputs, outputs)
	},
}

var certificateUpdateCmd = &cobra.Command{
	Use:   "update <id> <certifying-body-id> <valid-from> <valid-to>",
	Short: "Update a certificate's validity window",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		validFrom, validTo, err := parseValidity(args[2], args[3])
		if err != nil {
			return err
		}
		data, err := parseCertData(certData)
		if err != nil {
			return err
		}

		signer, err := loadSigner()
		if err != nil {
			return err
		}

		pl := &payload.Payload{
			Action: payload.ActionUpdateCertificate,
			UpdateCertificate: &payload.UpdateCertificate{
				ID:               args[0],
				CertifyingBodyID: args[1],
				ValidFrom:        validFrom,
				ValidTo:          validTo,
				CertificateData:  data,
			},
		}
		inputs, outputs := payload.UpdateCertificateAddresses(signer.PublicKeyHex(), args[0], args[1])
		return submitSingle(cmd, signer, pl, inputs, outputs)
	},
}

func parseCertSource(s string) (payload.CertificateSource, error) {
	switch s {
	case "1":
		return payload.SourceFromRequest, nil
	case "2":
		return payload.SourceIndependent, nil
	default:
		return payload.SourceUnset, fmt.Errorf(
			"invalid source %q: must be 1 (FROM_REQUEST) or 2 (INDEPENDENT)", s)
	}
}

func parseValidity(from, to string) (uint64, uint64, error) {
	validFrom, err := strconv.ParseUint(from, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("valid-from must be seconds since Unix epoch: %q", from)
	}
	validTo, err := strconv.ParseUint(to, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("valid-to must be seconds since Unix epoch: %q", to)
	}
	if validTo < validFrom {
		return 0, 0, fmt.Errorf("valid-to %d precedes valid-from %d", validTo, validFrom)
	}
	return validFrom, validTo, nil
}

func parseCertData(entries []string) ([]payload.CertificateDatum, error) {
	var data []payload.CertificateDatum
	for _, entry := range entries {
		field, value, ok := strings.Cut(entry, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid cert data %q: expected field=value", entry)
		}
		data = append(data, payload.CertificateDatum{Field: field, Data: value})
	}
	return data, nil
}

func init() {
	certificateCreateCmd.Flags().StringVar(&certRequestID, "request-id", "", "id of the certificate request made by the factory")
	for _, c := range []*cobra.Command{certificateCreateCmd, certificateUpdateCmd} {
		c.Flags().StringArrayVar(&certData, "cert-data", nil, "additional certificate data as field=value (repeatable)")
	}

	certificateCmd.AddCommand(certificateCreateCmd)
	certificateCmd.AddCommand(certificateUpdateCmd)
	rootCmd.AddCommand(certificateCmd)
}
