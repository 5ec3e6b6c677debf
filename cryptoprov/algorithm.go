package cryptoprov

import (
	"strings"

	"github.com/effective-security/xcsr/certutil"
	"github.com/effective-security/xcsr/csrerr"
)

// Algorithm specifies the key algorithm family
type Algorithm string

// Supported algorithms
const (
	DSA Algorithm = "DSA"
	RSA Algorithm = "RSA"
	EC  Algorithm = "EC"
)

// ParseAlgorithm returns Algorithm from its case-insensitive name.
// ECDSA is accepted as an alias of EC.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DSA":
		return DSA, nil
	case "RSA":
		return RSA, nil
	case "EC", "ECDSA":
		return EC, nil
	}
	return "", csrerr.New(csrerr.ErrUnsupportedAlgorithm, "unknown authentication type %q", s)
}

// Validate returns error if the algorithm is not supported
func (a Algorithm) Validate() error {
	switch a {
	case DSA, RSA, EC:
		return nil
	}
	return csrerr.New(csrerr.ErrUnsupportedAlgorithm, "unknown authentication type %q", string(a))
}

func (a Algorithm) String() string {
	return string(a)
}

// keyType returns the certutil key type of the algorithm family
func (a Algorithm) keyType() string {
	switch a {
	case DSA:
		return certutil.KeyTypeDSA
	case RSA:
		return certutil.KeyTypeRSA
	case EC:
		return certutil.KeyTypeECDSA
	}
	return ""
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Algorithm) UnmarshalText(b []byte) error {
	v, err := ParseAlgorithm(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
