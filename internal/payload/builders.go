package payload

import (
	"github.com/consensource/consensource-cli/internal/addressing"
)

// Each builder returns the state addresses a transaction for the action
// may read (inputs) and write (outputs). The validator rejects
// transactions that touch addresses outside these sets, so the sets must
// cover every address the transaction processor resolves for the action.

// CreateAgentAddresses returns the address sets for registering the agent
// keyed by signerPublicKey.
func CreateAgentAddresses(signerPublicKey string) (inputs, outputs []string) {
	agent := addressing.AgentAddress(signerPublicKey)
	return []string{agent}, []string{agent}
}

// AuthorizeAgentAddresses returns the address sets for an authorization
// performed by the admin keyed by signerPublicKey.
func AuthorizeAgentAddresses(signerPublicKey, orgID, agentPublicKey string) (inputs, outputs []string) {
	authorizer := addressing.AgentAddress(signerPublicKey)
	org := addressing.OrganizationAddress(orgID)
	agent := addressing.AgentAddress(agentPublicKey)
	return []string{authorizer, org, agent}, []string{org, agent}
}

// CreateOrganizationAddresses returns the address sets for creating orgID.
func CreateOrganizationAddresses(signerPublicKey, orgID string) (inputs, outputs []string) {
	agent := addressing.AgentAddress(signerPublicKey)
	org := addressing.OrganizationAddress(orgID)
	return []string{agent, org}, []string{agent, org}
}

// UpdateOrganizationAddresses returns the address sets for updating orgID.
func UpdateOrganizationAddresses(signerPublicKey, orgID string) (inputs, outputs []string) {
	agent := addressing.AgentAddress(signerPublicKey)
	org := addressing.OrganizationAddress(orgID)
	return []string{agent, org}, []string{org}
}

// IssueCertificateAddresses returns the address sets for issuing a
// certificate. requestID may be empty for independently-sourced
// certificates.
func IssueCertificateAddresses(signerPublicKey string, c *IssueCertificate) (inputs, outputs []string) {
	agent := addressing.AgentAddress(signerPublicKey)
	certifyingBody := addressing.OrganizationAddress(c.CertifyingBodyID)
	factory := addressing.OrganizationAddress(c.FactoryID)
	certificate := addressing.CertificateAddress(c.ID)

	inputs = []string{agent, certifyingBody, factory, certificate}
	outputs = []string{certificate}
	if c.StandardID != "" {
		inputs = append(inputs, addressing.StandardAddress(c.StandardID))
	}
	if c.RequestID != "" {
		request := addressing.CertificateRequestAddress(c.RequestID)
		inputs = append(inputs, request)
		outputs = append(outputs, request)
	}
	return inputs, outputs
}

// UpdateCertificateAddresses returns the address sets for updating a
// certificate.
func UpdateCertificateAddresses(signerPublicKey, certID, certifyingBodyID string) (inputs, outputs []string) {
	agent := addressing.AgentAddress(signerPublicKey)
	certifyingBody := addressing.OrganizationAddress(certifyingBodyID)
	certificate := addressing.CertificateAddress(certID)
	return []string{agent, certifyingBody, certificate}, []string{certificate}
}

// CreateStandardAddresses returns the address sets for creating a
// standard owned by orgID.
func CreateStandardAddresses(signerPublicKey, standardID, orgID string) (inputs, outputs []string) {
	agent := addressing.AgentAddress(signerPublicKey)
	org := addressing.OrganizationAddress(orgID)
	standard := addressing.StandardAddress(standardID)
	return []string{agent, org, standard}, []string{standard}
}

// AccreditCertifyingBodyAddresses returns the address sets for an
// accreditation.
func AccreditCertifyingBodyAddresses(signerPublicKey string, a *AccreditCertifyingBody) (inputs, outputs []string) {
	agent := addressing.AgentAddress(signerPublicKey)
	certifyingBody := addressing.OrganizationAddress(a.CertifyingBodyID)
	standardsBody := addressing.OrganizationAddress(a.StandardsBodyID)
	standard := addressing.StandardAddress(a.StandardID)
	return []string{agent, certifyingBody, standardsBody, standard}, []string{certifyingBody}
}
