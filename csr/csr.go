package csr

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/base64"
	"encoding/hex"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xcsr/oid"
)

// X509Name contains the SubjectInfo fields.
type X509Name struct {
	Country            string `json:"c" yaml:"c"`
	Province           string `json:"st" yaml:"st"`
	Locality           string `json:"l" yaml:"l"`
	Organization       string `json:"o" yaml:"o"`
	OrganizationalUnit string `json:"ou" yaml:"ou"`
	EmailAddress       string `json:"email" yaml:"email"` // 1.2.840.113549.1.9.1
	SerialNumber       string `json:"serial_number" yaml:"serial_number"`
}

// X509Extension represents a raw extension to be included in the request.
// The "value" field must be hex or base64 encoded.
type X509Extension struct {
	ID       OID    `json:"id" yaml:"id"`
	Critical bool   `json:"critical" yaml:"critical"`
	Value    string `json:"value" yaml:"value"`
}

// GetValue returns raw value.
// if prefix is hex or base64, then it's decoded,
// otherwise hex decoding is tried first then base64
func (ext X509Extension) GetValue() ([]byte, error) {
	var rawValue []byte
	var err error
	if strings.HasPrefix(ext.Value, "hex:") {
		rawValue, err = hex.DecodeString(ext.Value[4:])
	} else if strings.HasPrefix(ext.Value, "base64:") {
		rawValue, err = base64.StdEncoding.DecodeString(ext.Value[7:])
	} else {
		rawValue, err = hex.DecodeString(ext.Value)
		if err != nil {
			rawValue, err = base64.StdEncoding.DecodeString(ext.Value)
		}
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to decode extension: %s", ext.Value)
	}
	return rawValue, nil
}

// A CertificateRequest is a request profile in YAML or JSON format.
type CertificateRequest struct {
	// CommonName of the Subject
	CommonName string `json:"common_name" yaml:"common_name"`
	// Names of the Subject
	Names []X509Name `json:"names" yaml:"names"`
	// SerialNumber of the Subject
	SerialNumber string `json:"serial_number,omitempty" yaml:"serial_number,omitempty"`
	// SAN is Subject Alt Names
	SAN []string `json:"san" yaml:"san"`
	// KeyUsage contains OpenSSL names of key usages
	KeyUsage []string `json:"key_usage,omitempty" yaml:"key_usage,omitempty"`
	// ExtKeyUsage contains OpenSSL names or OIDs of extended key usages
	ExtKeyUsage []string `json:"ext_key_usage,omitempty" yaml:"ext_key_usage,omitempty"`
	// Digest specifies the signature digest: sha256, sha384 or sha512
	Digest string `json:"digest,omitempty" yaml:"digest,omitempty"`
	// EncryptKey specifies protection of derived key artifacts
	EncryptKey *bool `json:"encrypt_key,omitempty" yaml:"encrypt_key,omitempty"`
	// Extensions for the request
	Extensions []X509Extension `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// Validate returns error if the request does not have a subject
func (r *CertificateRequest) Validate() error {
	if r.CommonName != "" {
		return nil
	}

	if len(r.Names) == 0 {
		return errors.New("missing subject information")
	}

	for _, n := range r.Names {
		if isNameEmpty(n) {
			return errors.New("empty name")
		}
	}

	return nil
}

// AddSAN adds a SAN value to the request
func (r *CertificateRequest) AddSAN(s string) {
	if !slices.Contains(r.SAN, s) {
		r.SAN = append(r.SAN, s)
	}
}

// isNameEmpty returns true if the name has no identifying information in it.
func isNameEmpty(n X509Name) bool {
	empty := func(s string) bool { return strings.TrimSpace(s) == "" }

	if empty(n.Country) && empty(n.Province) && empty(n.Locality) && empty(n.Organization) && empty(n.OrganizationalUnit) {
		return true
	}
	return false
}

// Request returns the request content described by the profile
func (r *CertificateRequest) Request() (*Request, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	req := &Request{
		EncryptKey: r.EncryptKey,
	}
	r.appendSubject(req)

	var err error
	if req.Digest, err = parseDigest(r.Digest); err != nil {
		return nil, err
	}

	if len(r.SAN) > 0 {
		san := new(SubjectAltName)
		for _, s := range r.SAN {
			if err = san.Add(s); err != nil {
				return nil, err
			}
		}
		ext, err := san.Extension(false)
		if err != nil {
			return nil, err
		}
		if err = req.AddExtension(ext); err != nil {
			return nil, err
		}
	}

	if len(r.KeyUsage) > 0 {
		ext, err := parseKeyUsage(r.KeyUsage, false)
		if err != nil {
			return nil, errors.WithMessage(err, "invalid key_usage")
		}
		if err = req.AddExtension(ext); err != nil {
			return nil, err
		}
	}

	if len(r.ExtKeyUsage) > 0 {
		ext, err := parseExtKeyUsage(r.ExtKeyUsage, false)
		if err != nil {
			return nil, errors.WithMessage(err, "invalid ext_key_usage")
		}
		if err = req.AddExtension(ext); err != nil {
			return nil, err
		}
	}

	for _, e := range r.Extensions {
		val, err := e.GetValue()
		if err != nil {
			return nil, err
		}
		ext := pkix.Extension{
			Id:       asn1.ObjectIdentifier(e.ID),
			Critical: e.Critical,
			Value:    val,
		}
		if err = req.AddExtension(ext); err != nil {
			return nil, err
		}
	}

	return req, nil
}

// appendSubject adds the subject attributes in the order of the profile
func (r *CertificateRequest) appendSubject(req *Request) {
	add := func(id asn1.ObjectIdentifier, value string) {
		if value = strings.TrimSpace(value); value != "" {
			req.AddAttribute(id, value)
		}
	}

	for _, n := range r.Names {
		add(oid.NameC, n.Country)
		add(oid.NameST, n.Province)
		add(oid.NameL, n.Locality)
		add(oid.NameO, n.Organization)
		add(oid.NameOU, n.OrganizationalUnit)
		add(oid.NameEmailAddress, n.EmailAddress)
		add(oid.NameSerial, n.SerialNumber)
	}
	add(oid.NameCN, r.CommonName)
	add(oid.NameSerial, r.SerialNumber)
}
