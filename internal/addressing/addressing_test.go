package addressing

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func TestFamilyNamespace(t *testing.T) {
	sum := sha256.Sum256([]byte(FamilyName))
	want := hex.EncodeToString(sum[:])[:6]

	if got := FamilyNamespace(); got != want {
		t.Errorf("FamilyNamespace: %q != %q", got, want)
	}
	if len(FamilyNamespace()) != 6 {
		t.Errorf("namespace length: %d", len(FamilyNamespace()))
	}
}

func TestAddressShape(t *testing.T) {
	addresses := map[string]string{
		"agent":               AgentAddress("02aabbcc"),
		"certificate":         CertificateAddress("cert-1"),
		"organization":        OrganizationAddress("org-1"),
		"standard":            StandardAddress("std-1"),
		"certificate request": CertificateRequestAddress("req-1"),
		"assertion":           AssertionAddress("asrt-1"),
	}
	for name, addr := range addresses {
		if len(addr) != 70 {
			t.Errorf("%s address length: %d", name, len(addr))
		}
		if !strings.HasPrefix(addr, FamilyNamespace()) {
			t.Errorf("%s address outside family namespace: %s", name, addr)
		}
		if _, err := hex.DecodeString(addr); err != nil {
			t.Errorf("%s address is not hex: %s", name, addr)
		}
	}
}

func TestAddressesAreDeterministic(t *testing.T) {
	if AgentAddress("02aabbcc") != AgentAddress("02aabbcc") {
		t.Error("agent address is not deterministic")
	}
	if OrganizationAddress("org-1") == OrganizationAddress("org-2") {
		t.Error("distinct ids produced the same address")
	}
}

func TestResourcePrefixesAreDistinct(t *testing.T) {
	// Same id through every resource type must land on distinct
	// addresses, differing in the two prefix characters.
	id := "shared-id"
	prefixes := map[string]bool{}
	for _, addr := range []string{
		AgentAddress(id),
		CertificateAddress(id),
		OrganizationAddress(id),
		StandardAddress(id),
		CertificateRequestAddress(id),
		AssertionAddress(id),
	} {
		prefix := addr[6:8]
		if prefixes[prefix] {
			t.Errorf("duplicate resource prefix %q", prefix)
		}
		prefixes[prefix] = true
	}
}
