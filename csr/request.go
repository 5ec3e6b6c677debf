package csr

import (
	"crypto"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/bits"
	"net"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xcsr/oid"
)

// Attribute is a single subject attribute
type Attribute struct {
	Type  asn1.ObjectIdentifier
	Value string
}

// Request is the content of a certificate request resolved from a template
type Request struct {
	// Subject attributes, in the order of the template
	Subject []Attribute
	// Extensions to request
	Extensions []pkix.Extension
	// SubjectKeyID requests subjectKeyIdentifier computed from the public key
	SubjectKeyID bool
	// Digest for the signature, zero for the default of the key
	Digest crypto.Hash
	// EncryptKey is the encrypt_key setting of the template, if specified
	EncryptKey *bool
}

// KeyEncryption returns the protection mode of derived key artifacts:
// the requested mode, unless the template disables key encryption.
func (r *Request) KeyEncryption(requested bool) bool {
	if r.EncryptKey != nil && !*r.EncryptKey {
		return false
	}
	return requested
}

// AddAttribute appends subject attribute
func (r *Request) AddAttribute(id asn1.ObjectIdentifier, value string) {
	r.Subject = append(r.Subject, Attribute{Type: id, Value: value})
}

// AddExtension appends the extension, or returns error if it's already present
func (r *Request) AddExtension(ext pkix.Extension) error {
	if ext.Id.Equal(oid.ExtensionSubjectKeyID) && r.SubjectKeyID {
		return errors.Errorf("duplicate extension: %s", ext.Id.String())
	}
	for _, e := range r.Extensions {
		if e.Id.Equal(ext.Id) {
			return errors.Errorf("duplicate extension: %s", ext.Id.String())
		}
	}
	r.Extensions = append(r.Extensions, ext)
	return nil
}

// RawSubject returns DER encoded subject.
// Each attribute is encoded as a single valued RDN,
// with the string type OpenSSL uses for the attribute.
func (r *Request) RawSubject() ([]byte, error) {
	if len(r.Subject) == 0 {
		return nil, errors.New("empty subject")
	}

	rdns := make(pkix.RDNSequence, 0, len(r.Subject))
	for _, a := range r.Subject {
		val, err := attributeValue(a.Type, a.Value)
		if err != nil {
			return nil, err
		}
		rdns = append(rdns, []pkix.AttributeTypeAndValue{{Type: a.Type, Value: val}})
	}

	der, err := asn1.Marshal(rdns)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to marshal subject")
	}
	return der, nil
}

func attributeValue(id asn1.ObjectIdentifier, value string) (asn1.RawValue, error) {
	tag := asn1.TagUTF8String
	switch {
	case id.Equal(oid.NameC):
		if len(value) != 2 {
			return asn1.RawValue{}, errors.Errorf("invalid country name %q: must be 2 characters", value)
		}
		fallthrough
	case id.Equal(oid.NameSerial), id.Equal(oid.NameDNQualifier):
		if !isPrintable(value) {
			return asn1.RawValue{}, errors.Errorf("invalid value for %s: %q is not a printable string", id.String(), value)
		}
		tag = asn1.TagPrintableString
	case id.Equal(oid.NameEmailAddress), id.Equal(oid.NameDomainComponent):
		if !isIA5(value) {
			return asn1.RawValue{}, errors.Errorf("invalid value for %s: %q is not an IA5 string", id.String(), value)
		}
		tag = asn1.TagIA5String
	default:
		if !utf8.ValidString(value) {
			return asn1.RawValue{}, errors.Errorf("invalid value for %s: %q is not a valid UTF-8 string", id.String(), value)
		}
	}
	return asn1.RawValue{
		Class: asn1.ClassUniversal,
		Tag:   tag,
		Bytes: []byte(value),
	}, nil
}

func isPrintable(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		case c == ' ', c == '\'', c == '(', c == ')', c == '+', c == ',',
			c == '-', c == '.', c == '/', c == ':', c == '=', c == '?':
		default:
			return false
		}
	}
	return true
}

func isIA5(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}

// BasicConstraintsExtension returns basicConstraints extension
func BasicConstraintsExtension(bc BasicConstraints, critical bool) (pkix.Extension, error) {
	val, err := asn1.Marshal(bc)
	if err != nil {
		return pkix.Extension{}, errors.WithStack(err)
	}
	return pkix.Extension{Id: oid.ExtensionBasicConstraints, Critical: critical, Value: val}, nil
}

// KeyUsageExtension returns keyUsage extension
func KeyUsageExtension(ku x509.KeyUsage, critical bool) (pkix.Extension, error) {
	var a [2]byte
	a[0] = bits.Reverse8(byte(ku))
	a[1] = bits.Reverse8(byte(ku >> 8))

	l := 1
	if a[1] != 0 {
		l = 2
	}
	bitString := a[:l]

	val, err := asn1.Marshal(asn1.BitString{Bytes: bitString, BitLength: bitLength(bitString)})
	if err != nil {
		return pkix.Extension{}, errors.WithStack(err)
	}
	return pkix.Extension{Id: oid.ExtensionKeyUsage, Critical: critical, Value: val}, nil
}

// bitLength returns the length of the bit string without trailing zero bits
func bitLength(b []byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0 {
			return i*8 + 8 - bits.TrailingZeros8(b[i])
		}
	}
	return 0
}

// ExtKeyUsageExtension returns extendedKeyUsage extension
func ExtKeyUsageExtension(ids []asn1.ObjectIdentifier, critical bool) (pkix.Extension, error) {
	val, err := asn1.Marshal(ids)
	if err != nil {
		return pkix.Extension{}, errors.WithStack(err)
	}
	return pkix.Extension{Id: oid.ExtensionExtendedKeyUsage, Critical: critical, Value: val}, nil
}

// SubjectAltName contains the names of subjectAltName extension
type SubjectAltName struct {
	DNSNames       []string
	EmailAddresses []string
	IPAddresses    []net.IP
	URIs           []*url.URL
}

// Empty returns true if there are no names
func (s *SubjectAltName) Empty() bool {
	return len(s.DNSNames) == 0 && len(s.EmailAddresses) == 0 &&
		len(s.IPAddresses) == 0 && len(s.URIs) == 0
}

// Add classifies the value as URI, IP, email or DNS name
func (s *SubjectAltName) Add(value string) error {
	if value == "" {
		return errors.New("empty subject alt name")
	}
	if strings.Contains(value, "://") {
		return s.AddURI(value)
	}
	if ip := net.ParseIP(value); ip != nil {
		s.IPAddresses = append(s.IPAddresses, ip)
		return nil
	}
	if email, err := mail.ParseAddress(value); err == nil && email != nil {
		s.EmailAddresses = append(s.EmailAddresses, email.Address)
		return nil
	}
	s.DNSNames = append(s.DNSNames, value)
	return nil
}

// AddURI adds URI name
func (s *SubjectAltName) AddURI(value string) error {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" {
		return errors.Errorf("invalid URI: %q", value)
	}
	s.URIs = append(s.URIs, u)
	return nil
}

// Extension returns subjectAltName extension
func (s *SubjectAltName) Extension(critical bool) (pkix.Extension, error) {
	var names []asn1.RawValue
	for _, name := range s.EmailAddresses {
		names = append(names, asn1.RawValue{Tag: 1, Class: asn1.ClassContextSpecific, Bytes: []byte(name)})
	}
	for _, name := range s.DNSNames {
		names = append(names, asn1.RawValue{Tag: 2, Class: asn1.ClassContextSpecific, Bytes: []byte(name)})
	}
	for _, u := range s.URIs {
		names = append(names, asn1.RawValue{Tag: 6, Class: asn1.ClassContextSpecific, Bytes: []byte(u.String())})
	}
	for _, ip := range s.IPAddresses {
		raw := ip.To4()
		if raw == nil {
			raw = ip.To16()
		}
		names = append(names, asn1.RawValue{Tag: 7, Class: asn1.ClassContextSpecific, Bytes: raw})
	}

	val, err := asn1.Marshal(names)
	if err != nil {
		return pkix.Extension{}, errors.WithStack(err)
	}
	return pkix.Extension{Id: oid.ExtensionSubjectAltName, Critical: critical, Value: val}, nil
}
