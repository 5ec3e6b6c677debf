package certutil

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"strings"

	"github.com/cockroachdb/errors"
)

// PEM block types for certificate requests
const (
	PEMTypeCertificateRequest    = "CERTIFICATE REQUEST"
	PEMTypeNewCertificateRequest = "NEW CERTIFICATE REQUEST"
)

// EncodeCSRToPEM returns PEM encoded certificate request
func EncodeCSRToPEM(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  PEMTypeCertificateRequest,
		Bytes: der,
	})
}

// DecodeCSRFromPEM returns DER of the first certificate request in PEM.
// Both "CERTIFICATE REQUEST" and the legacy "NEW CERTIFICATE REQUEST"
// block types are accepted.
func DecodeCSRFromPEM(b []byte) ([]byte, error) {
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, errors.New("unable to parse PEM")
	}

	if block.Type != PEMTypeNewCertificateRequest && block.Type != PEMTypeCertificateRequest {
		return nil, errors.Errorf("unsupported type in PEM: %s", block.Type)
	}
	return block.Bytes, nil
}

// ParseCSRFromPEM returns certificate request parsed from PEM.
// The signature is not checked.
func ParseCSRFromPEM(b []byte) (*x509.CertificateRequest, error) {
	der, err := DecodeCSRFromPEM(b)
	if err != nil {
		return nil, err
	}

	csr, err := x509.ParseCertificateRequest(der)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to parse certificate request")
	}
	return csr, nil
}

var shortNames = map[string]string{
	"2.5.4.3":              "CN",
	"2.5.4.5":              "SERIALNUMBER",
	"2.5.4.6":              "C",
	"2.5.4.7":              "L",
	"2.5.4.8":              "ST",
	"2.5.4.9":              "STREET",
	"2.5.4.10":             "O",
	"2.5.4.11":             "OU",
	"2.5.4.17":             "POSTALCODE",
	"1.2.840.113549.1.9.1": "emailAddress",
}

// NameToString converts name to string, in the order of attributes
// in the name, separated by ", "
func NameToString(name *pkix.Name) string {
	attrs := name.Names
	if len(attrs) == 0 {
		for _, rdn := range name.ToRDNSequence() {
			attrs = append(attrs, rdn...)
		}
	}

	var list []string
	for _, atv := range attrs {
		key := atv.Type.String()
		if short, ok := shortNames[key]; ok {
			key = short
		}
		if s, ok := atv.Value.(string); ok {
			list = append(list, key+"="+s)
		}
	}
	return strings.Join(list, ", ")
}
