// Package payload builds certificate registry payloads. A payload is a
// closed tagged union: an action discriminant plus exactly one action
// body, serialized with the same canonical wire rules as the rest of the
// protocol.
package payload

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/consensource/consensource-cli/pkg/errors"
)

// Action discriminates the payload body.
type Action int32

// Payload actions.
const (
	ActionUnset                  Action = 0
	ActionCreateAgent            Action = 1
	ActionCreateOrganization     Action = 2
	ActionUpdateOrganization     Action = 3
	ActionAuthorizeAgent         Action = 4
	ActionIssueCertificate       Action = 5
	ActionUpdateCertificate      Action = 6
	ActionCreateStandard         Action = 7
	ActionAccreditCertifyingBody Action = 8
)

// Role is an agent's authorization level within an organization.
type Role int32

// Agent roles.
const (
	RoleUnset      Role = 0
	RoleAdmin      Role = 1
	RoleTransactor Role = 2
)

// OrganizationType classifies an organization.
type OrganizationType int32

// Organization types.
const (
	OrgTypeUnset          OrganizationType = 0
	OrgTypeCertifyingBody OrganizationType = 1
	OrgTypeStandardsBody  OrganizationType = 2
	OrgTypeFactory        OrganizationType = 3
	OrgTypeIngestion      OrganizationType = 4
)

// CertificateSource records what triggered a certificate issuance.
type CertificateSource int32

// Certificate sources.
const (
	SourceUnset CertificateSource = 0
	// SourceFromRequest ties the certificate to a request opened by the
	// factory; RequestID must be set.
	SourceFromRequest CertificateSource = 1
	// SourceIndependent issues the certificate with no prior request.
	SourceIndependent CertificateSource = 2
)

// Contact is an organization contact entry.
type Contact struct {
	Name         string
	PhoneNumber  string
	LanguageCode string
}

// FactoryAddress is a factory's physical address.
type FactoryAddress struct {
	StreetLine1   string
	City          string
	StateProvince string
	Country       string
	PostalCode    string
}

// CertificateDatum is one field/value pair of auxiliary certificate data.
type CertificateDatum struct {
	Field string
	Data  string
}

// CreateAgent registers a new agent keyed by the signer's public key.
type CreateAgent struct {
	Name      string
	Timestamp uint64
}

// AuthorizeAgent grants an agent a role within an organization.
type AuthorizeAgent struct {
	PublicKey string
	Role      Role
}

// CreateOrganization registers a new organization.
type CreateOrganization struct {
	ID       string
	Type     OrganizationType
	Name     string
	Contacts []Contact
	Address  *FactoryAddress
}

// UpdateOrganization replaces an organization's mutable fields.
type UpdateOrganization struct {
	ID       string
	Name     string
	Contacts []Contact
	Address  *FactoryAddress
}

// IssueCertificate issues a certificate to a factory.
type IssueCertificate struct {
	ID               string
	CertifyingBodyID string
	FactoryID        string
	Source           CertificateSource
	RequestID        string
	StandardID       string
	CertificateData  []CertificateDatum
	ValidFrom        uint64
	ValidTo          uint64
}

// UpdateCertificate updates the validity window and data of a certificate.
type UpdateCertificate struct {
	ID               string
	CertifyingBodyID string
	ValidFrom        uint64
	ValidTo          uint64
	CertificateData  []CertificateDatum
}

// CreateStandard registers a new standard.
type CreateStandard struct {
	StandardID   string
	Name         string
	Version      string
	Description  string
	Link         string
	ApprovalDate uint64
}

// AccreditCertifyingBody accredits a certifying body for a standard.
type AccreditCertifyingBody struct {
	CertifyingBodyID string
	StandardsBodyID  string
	StandardID       string
	ValidFrom        uint64
	ValidTo          uint64
}

// Payload is the certificate registry payload union. Exactly one body
// field matching Action must be populated.
type Payload struct {
	Action Action

	CreateAgent            *CreateAgent
	CreateOrganization     *CreateOrganization
	UpdateOrganization     *UpdateOrganization
	AuthorizeAgent         *AuthorizeAgent
	IssueCertificate       *IssueCertificate
	UpdateCertificate      *UpdateCertificate
	CreateStandard         *CreateStandard
	AccreditCertifyingBody *AccreditCertifyingBody
}

// Encode serializes the payload. The resulting bytes are what the
// transaction header's payload digest is computed over, so encoding is
// deterministic: fixed field order, no maps.
func (p *Payload) Encode() ([]byte, error) {
	body, err := p.encodeBody()
	if err != nil {
		return nil, err
	}

	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Action))
	b = protowire.AppendTag(b, protowire.Number(p.Action)+1, protowire.BytesType)
	b = protowire.AppendBytes(b, body)
	return b, nil
}

func (p *Payload) encodeBody() ([]byte, error) {
	switch p.Action {
	case ActionCreateAgent:
		if p.CreateAgent == nil || p.CreateAgent.Name == "" {
			return nil, malformed("agent name is required")
		}
		var b []byte
		b = appendString(b, 1, p.CreateAgent.Name)
		b = appendVarint(b, 2, p.CreateAgent.Timestamp)
		return b, nil

	case ActionCreateOrganization:
		o := p.CreateOrganization
		if o == nil || o.ID == "" || o.Name == "" {
			return nil, malformed("organization id and name are required")
		}
		if o.Type == OrgTypeUnset {
			return nil, malformed("organization type is required")
		}
		var b []byte
		b = appendString(b, 1, o.ID)
		b = appendVarint(b, 2, uint64(o.Type))
		b = appendString(b, 3, o.Name)
		for _, c := range o.Contacts {
			b = appendBytes(b, 4, encodeContact(c))
		}
		if o.Address != nil {
			b = appendBytes(b, 5, encodeFactoryAddress(o.Address))
		}
		return b, nil

	case ActionUpdateOrganization:
		o := p.UpdateOrganization
		if o == nil || o.ID == "" {
			return nil, malformed("organization id is required")
		}
		var b []byte
		b = appendString(b, 1, o.ID)
		b = appendString(b, 2, o.Name)
		for _, c := range o.Contacts {
			b = appendBytes(b, 3, encodeContact(c))
		}
		if o.Address != nil {
			b = appendBytes(b, 4, encodeFactoryAddress(o.Address))
		}
		return b, nil

	case ActionAuthorizeAgent:
		a := p.AuthorizeAgent
		if a == nil || a.PublicKey == "" {
			return nil, malformed("agent public key is required")
		}
		if a.Role != RoleAdmin && a.Role != RoleTransactor {
			return nil, malformed("role must be ADMIN or TRANSACTOR")
		}
		var b []byte
		b = appendString(b, 1, a.PublicKey)
		b = appendVarint(b, 2, uint64(a.Role))
		return b, nil

	case ActionIssueCertificate:
		c := p.IssueCertificate
		if c == nil || c.ID == "" || c.CertifyingBodyID == "" || c.FactoryID == "" {
			return nil, malformed("certificate id, certifying body and factory are required")
		}
		if c.Source == SourceFromRequest && c.RequestID == "" {
			return nil, malformed("request id is required when issuing from a request")
		}
		var b []byte
		b = appendString(b, 1, c.ID)
		b = appendString(b, 2, c.CertifyingBodyID)
		b = appendString(b, 3, c.FactoryID)
		b = appendVarint(b, 4, uint64(c.Source))
		b = appendString(b, 5, c.RequestID)
		b = appendString(b, 6, c.StandardID)
		for _, d := range c.CertificateData {
			b = appendBytes(b, 7, encodeCertificateDatum(d))
		}
		b = appendVarint(b, 8, c.ValidFrom)
		b = appendVarint(b, 9, c.ValidTo)
		return b, nil

	case ActionUpdateCertificate:
		c := p.UpdateCertificate
		if c == nil || c.ID == "" || c.CertifyingBodyID == "" {
			return nil, malformed("certificate id and certifying body are required")
		}
		var b []byte
		b = appendString(b, 1, c.ID)
		b = appendString(b, 2, c.CertifyingBodyID)
		b = appendVarint(b, 3, c.ValidFrom)
		b = appendVarint(b, 4, c.ValidTo)
		for _, d := range c.CertificateData {
			b = appendBytes(b, 5, encodeCertificateDatum(d))
		}
		return b, nil

	case ActionCreateStandard:
		s := p.CreateStandard
		if s == nil || s.StandardID == "" || s.Name == "" || s.Version == "" {
			return nil, malformed("standard id, name and version are required")
		}
		var b []byte
		b = appendString(b, 1, s.StandardID)
		b = appendString(b, 2, s.Name)
		b = appendString(b, 3, s.Version)
		b = appendString(b, 4, s.Description)
		b = appendString(b, 5, s.Link)
		b = appendVarint(b, 6, s.ApprovalDate)
		return b, nil

	case ActionAccreditCertifyingBody:
		a := p.AccreditCertifyingBody
		if a == nil || a.CertifyingBodyID == "" || a.StandardsBodyID == "" || a.StandardID == "" {
			return nil, malformed("certifying body, standards body and standard are required")
		}
		var b []byte
		b = appendString(b, 1, a.CertifyingBodyID)
		b = appendString(b, 2, a.StandardsBodyID)
		b = appendString(b, 3, a.StandardID)
		b = appendVarint(b, 4, a.ValidFrom)
		b = appendVarint(b, 5, a.ValidTo)
		return b, nil

	default:
		return nil, malformed("payload action is not set")
	}
}

func encodeContact(c Contact) []byte {
	var b []byte
	b = appendString(b, 1, c.Name)
	b = appendString(b, 2, c.PhoneNumber)
	b = appendString(b, 3, c.LanguageCode)
	return b
}

func encodeFactoryAddress(a *FactoryAddress) []byte {
	var b []byte
	b = appendString(b, 1, a.StreetLine1)
	b = appendString(b, 2, a.City)
	b = appendString(b, 3, a.StateProvince)
	b = appendString(b, 4, a.Country)
	b = appendString(b, 5, a.PostalCode)
	return b
}

func encodeCertificateDatum(d CertificateDatum) []byte {
	var b []byte
	b = appendString(b, 1, d.Field)
	b = appendString(b, 2, d.Data)
	return b
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func malformed(msg string) error {
	return errors.E(errors.ErrMalformedPayload, "payload", "Encode", msg)
}
