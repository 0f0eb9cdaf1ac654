// Package addressing computes certificate registry state addresses.
//
// A state address is 70 hex characters: a 6-character family namespace
// (the first 6 characters of the SHA-256 of the family name), a
// 2-character resource prefix, and the first 62 characters of the
// SHA-256 of the resource identifier.
package addressing

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	// FamilyName is the transaction family handled by the certificate
	// registry transaction processor.
	FamilyName = "certificate_registry"
	// FamilyVersion is the transaction family version this client speaks.
	FamilyVersion = "0.1"
)

// Resource prefixes within the family namespace.
const (
	agentPrefix              = "00"
	certificatePrefix        = "01"
	organizationPrefix       = "02"
	standardPrefix           = "03"
	certificateRequestPrefix = "04"
	assertionPrefix          = "05"
)

// FamilyNamespace returns the 6-character address prefix for the family.
func FamilyNamespace() string {
	return hashPrefix(FamilyName, 6)
}

// AgentAddress returns the state address of an agent, keyed by the
// agent's public key.
func AgentAddress(publicKey string) string {
	return FamilyNamespace() + agentPrefix + hashPrefix(publicKey, 62)
}

// CertificateAddress returns the state address of a certificate.
func CertificateAddress(id string) string {
	return FamilyNamespace() + certificatePrefix + hashPrefix(id, 62)
}

// OrganizationAddress returns the state address of an organization.
func OrganizationAddress(id string) string {
	return FamilyNamespace() + organizationPrefix + hashPrefix(id, 62)
}

// StandardAddress returns the state address of a standard.
func StandardAddress(id string) string {
	return FamilyNamespace() + standardPrefix + hashPrefix(id, 62)
}

// CertificateRequestAddress returns the state address of a certificate
// request.
func CertificateRequestAddress(id string) string {
	return FamilyNamespace() + certificateRequestPrefix + hashPrefix(id, 62)
}

// AssertionAddress returns the state address of an assertion.
func AssertionAddress(id string) string {
	return FamilyNamespace() + assertionPrefix + hashPrefix(id, 62)
}

func hashPrefix(s string, n int) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:n]
}
