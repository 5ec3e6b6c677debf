package reconciler

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xcsr/cryptoprov"
	"github.com/effective-security/xcsr/csrerr"
)

// Ensure specifies the desired presence of the request
type Ensure string

// Ensure values
const (
	Present Ensure = "present"
	Absent  Ensure = "absent"
)

// Descriptor describes the desired state of a certificate request
type Descriptor struct {
	// Path of the certificate request
	Path string `json:"path" yaml:"path"`
	// PrivateKeyPath is the location of the private key,
	// by default the request path with .key extension
	PrivateKeyPath string `json:"private_key,omitempty" yaml:"private_key,omitempty"`
	// Password is optional passphrase of the private key
	Password string `json:"-" yaml:"password,omitempty"`
	// Authentication is the key algorithm: DSA, RSA or EC, RSA by default
	Authentication string `json:"authentication,omitempty" yaml:"authentication,omitempty"`
	// Template is the location of the subject template,
	// by default the request path with .cnf extension
	Template string `json:"template,omitempty" yaml:"template,omitempty"`
	// Force specifies to regenerate a request that does not match the key
	Force bool `json:"force,omitempty" yaml:"force,omitempty"`
	// Encrypted specifies protection of derived key artifacts, true by default
	Encrypted *bool `json:"encrypted,omitempty" yaml:"encrypted,omitempty"`
	// Ensure is present or absent, present by default
	Ensure Ensure `json:"ensure,omitempty" yaml:"ensure,omitempty"`
	// KeyOut is optional location to write the private key
	// re-encoded according to Encrypted
	KeyOut string `json:"key_out,omitempty" yaml:"key_out,omitempty"`
}

// WithDefaults returns a copy of the descriptor with defaults applied
func (d *Descriptor) WithDefaults() *Descriptor {
	c := *d
	if c.Authentication == "" {
		c.Authentication = string(cryptoprov.RSA)
	}
	if c.Ensure == "" {
		c.Ensure = Present
	}
	if c.Encrypted == nil {
		encrypted := true
		c.Encrypted = &encrypted
	}
	if c.Path != "" {
		base := strings.TrimSuffix(c.Path, filepath.Ext(c.Path))
		if c.PrivateKeyPath == "" {
			c.PrivateKeyPath = base + ".key"
		}
		if c.Template == "" {
			c.Template = base + ".cnf"
		}
	}
	return &c
}

// Validate returns the key algorithm of the descriptor,
// or error if the descriptor is not valid.
// It does not access the filesystem.
func (d *Descriptor) Validate() (cryptoprov.Algorithm, error) {
	algo, err := cryptoprov.ParseAlgorithm(d.Authentication)
	if err != nil {
		return "", err
	}
	if d.Path == "" {
		return "", csrerr.New(csrerr.ErrIO, "path is required")
	}
	switch d.Ensure {
	case "", Present, Absent:
	default:
		return "", errors.Errorf("invalid ensure value: %q", d.Ensure)
	}
	return algo, nil
}

// IsEncrypted returns the Encrypted value, true if not specified
func (d *Descriptor) IsEncrypted() bool {
	return d.Encrypted == nil || *d.Encrypted
}

// password returns a new copy of the password,
// the key loader wipes the slice it receives.
func (d *Descriptor) password() []byte {
	if d.Password == "" {
		return nil
	}
	return []byte(d.Password)
}
