package payload

import (
	"bytes"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/consensource/consensource-cli/pkg/errors"
)

func TestEncodeCarriesActionDiscriminant(t *testing.T) {
	payloads := []*Payload{
		{Action: ActionCreateAgent, CreateAgent: &CreateAgent{Name: "alice", Timestamp: 1}},
		{Action: ActionCreateOrganization, CreateOrganization: &CreateOrganization{
			ID: "org-1", Type: OrgTypeFactory, Name: "Acme",
		}},
		{Action: ActionUpdateOrganization, UpdateOrganization: &UpdateOrganization{ID: "org-1"}},
		{Action: ActionAuthorizeAgent, AuthorizeAgent: &AuthorizeAgent{PublicKey: "02aa", Role: RoleTransactor}},
		{Action: ActionIssueCertificate, IssueCertificate: &IssueCertificate{
			ID: "cert-1", CertifyingBodyID: "cb-1", FactoryID: "f-1", Source: SourceIndependent,
		}},
		{Action: ActionUpdateCertificate, UpdateCertificate: &UpdateCertificate{
			ID: "cert-1", CertifyingBodyID: "cb-1",
		}},
		{Action: ActionCreateStandard, CreateStandard: &CreateStandard{
			StandardID: "std-1", Name: "ISO-9001", Version: "2015",
		}},
		{Action: ActionAccreditCertifyingBody, AccreditCertifyingBody: &AccreditCertifyingBody{
			CertifyingBodyID: "cb-1", StandardsBodyID: "sb-1", StandardID: "std-1",
		}},
	}

	for _, p := range payloads {
		encoded, err := p.Encode()
		if err != nil {
			t.Fatalf("Encode action %d: %v", p.Action, err)
		}

		num, typ, n := protowire.ConsumeTag(encoded)
		if n < 0 || num != 1 || typ != protowire.VarintType {
			t.Fatalf("action %d: first field is not the action varint", p.Action)
		}
		action, m := protowire.ConsumeVarint(encoded[n:])
		if m < 0 || Action(action) != p.Action {
			t.Errorf("action %d: discriminant decoded as %d", p.Action, action)
		}
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	build := func() *Payload {
		return &Payload{
			Action: ActionCreateOrganization,
			CreateOrganization: &CreateOrganization{
				ID:   "org-1",
				Type: OrgTypeStandardsBody,
				Name: "Standards Inc",
				Contacts: []Contact{
					{Name: "alice", PhoneNumber: "555-0100", LanguageCode: "en"},
					{Name: "bob", PhoneNumber: "555-0101", LanguageCode: "fr"},
				},
				Address: &FactoryAddress{
					StreetLine1: "1 Main St",
					City:        "Springfield",
					Country:     "US",
				},
			},
		}
	}

	first, err := build().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	second, err := build().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("encoding the same payload twice produced different bytes")
	}
}

func TestEncodeRejectsInvalidPayloads(t *testing.T) {
	cases := []struct {
		name string
		p    *Payload
	}{
		{"unset action", &Payload{}},
		{"agent without name", &Payload{Action: ActionCreateAgent, CreateAgent: &CreateAgent{}}},
		{"agent without body", &Payload{Action: ActionCreateAgent}},
		{"organization without type", &Payload{
			Action:             ActionCreateOrganization,
			CreateOrganization: &CreateOrganization{ID: "org-1", Name: "Acme"},
		}},
		{"organization without id", &Payload{
			Action:             ActionCreateOrganization,
			CreateOrganization: &CreateOrganization{Name: "Acme", Type: OrgTypeFactory},
		}},
		{"authorize without role", &Payload{
			Action:         ActionAuthorizeAgent,
			AuthorizeAgent: &AuthorizeAgent{PublicKey: "02aa"},
		}},
		{"certificate from request without request id", &Payload{
			Action: ActionIssueCertificate,
			IssueCertificate: &IssueCertificate{
				ID: "cert-1", CertifyingBodyID: "cb-1", FactoryID: "f-1", Source: SourceFromRequest,
			},
		}},
		{"standard without version", &Payload{
			Action:         ActionCreateStandard,
			CreateStandard: &CreateStandard{StandardID: "std-1", Name: "ISO"},
		}},
		{"accreditation without standard", &Payload{
			Action:                 ActionAccreditCertifyingBody,
			AccreditCertifyingBody: &AccreditCertifyingBody{CertifyingBodyID: "cb-1", StandardsBodyID: "sb-1"},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.p.Encode(); !errors.Is(err, errors.ErrMalformedPayload) {
				t.Errorf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}

func TestDistinctActionsEncodeDistinctly(t *testing.T) {
	authorize, err := (&Payload{
		Action:         ActionAuthorizeAgent,
		AuthorizeAgent: &AuthorizeAgent{PublicKey: "02aa", Role: RoleAdmin},
	}).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	create, err := (&Payload{
		Action:      ActionCreateAgent,
		CreateAgent: &CreateAgent{Name: "02aa", Timestamp: 1},
	}).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if bytes.Equal(authorize, create) {
		t.Error("different actions encoded to identical bytes")
	}
}
