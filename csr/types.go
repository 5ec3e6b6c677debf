package csr

import (
	"encoding/asn1"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xcsr/oid"
)

// BasicConstraints CSR information RFC 5280, 4.2.1.9
type BasicConstraints struct {
	IsCA       bool `asn1:"optional"`
	MaxPathLen int  `asn1:"optional,default:-1"`
}

// OID is the asn1's ObjectIdentifier, provide a custom
// JSON marshal / unmarshal.
type OID asn1.ObjectIdentifier

// Equal reports whether oi and other represent the same identifier.
func (id OID) Equal(other OID) bool {
	return asn1.ObjectIdentifier(id).Equal(asn1.ObjectIdentifier(other))
}

func (id OID) String() string {
	return asn1.ObjectIdentifier(id).String()
}

// UnmarshalJSON unmarshals a JSON string into an OID.
func (id *OID) UnmarshalJSON(data []byte) (err error) {
	last := len(data) - 1
	if last < 1 || data[0] != '"' || data[last] != '"' {
		return errors.New("OID JSON string not wrapped in quotes: " + string(data))
	}
	parsed, err := ParseObjectIdentifier(string(data[1:last]))
	if err != nil {
		return err
	}
	*id = OID(parsed)
	return
}

// UnmarshalYAML unmarshals a YAML string into an OID.
func (id *OID) UnmarshalYAML(unmarshal func(any) error) error {
	var buf string
	err := unmarshal(&buf)
	if err != nil {
		return err
	}

	parsed, err := ParseObjectIdentifier(buf)
	if err != nil {
		return err
	}
	*id = OID(parsed)
	return nil
}

// MarshalJSON marshals an oid into a JSON string.
func (id OID) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%v"`, asn1.ObjectIdentifier(id))), nil
}

// ParseObjectIdentifier returns OID
func ParseObjectIdentifier(s string) (asn1.ObjectIdentifier, error) {
	id, err := oid.Parse(s)
	if err != nil {
		return nil, errors.Errorf("invalid OID: %q", s)
	}
	return id, nil
}
