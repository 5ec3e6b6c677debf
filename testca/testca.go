// Package testca provides key fixtures for tests: RSA, EC and DSA keys
// encoded in every format the key loader accepts.
package testca

import (
	"crypto"
	"crypto/dsa" //nolint:staticcheck // DSA keys are managed for compatibility
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xcsr/cryptoprov"
	"github.com/spf13/afero"
	"github.com/youmark/pkcs8"
)

// Format specifies PEM encoding of the key
type Format int

// Key formats
const (
	// Traditional is PKCS#1 for RSA, SEC1 for EC, OpenSSL format for DSA
	Traditional Format = iota
	// PKCS8 is unencrypted PKCS#8
	PKCS8
	// LegacyEncrypted is the traditional format with Proc-Type: 4,ENCRYPTED
	LegacyEncrypted
	// EncryptedPKCS8 is PBES2 encrypted PKCS#8, RSA and EC only
	EncryptedPKCS8
)

// Entity is a generated key with its encoding parameters
type Entity struct {
	Algorithm  cryptoprov.Algorithm
	PrivateKey crypto.PrivateKey
	Password   string
	Format     Format

	bits  int
	curve elliptic.Curve
}

// Option configures Entity
type Option func(*Entity)

// Algorithm specifies the key algorithm, RSA by default
func Algorithm(algo cryptoprov.Algorithm) Option {
	return func(e *Entity) {
		e.Algorithm = algo
	}
}

// RSABits specifies RSA key size
func RSABits(bits int) Option {
	return func(e *Entity) {
		e.bits = bits
	}
}

// Curve specifies EC curve
func Curve(c elliptic.Curve) Option {
	return func(e *Entity) {
		e.curve = c
	}
}

// Password specifies the passphrase of encrypted formats
func Password(pwd string) Option {
	return func(e *Entity) {
		e.Password = pwd
	}
}

// KeyFormat specifies the PEM format
func KeyFormat(f Format) Option {
	return func(e *Entity) {
		e.Format = f
	}
}

// PrivateKey uses the provided key instead of generating one
func PrivateKey(k crypto.PrivateKey) Option {
	return func(e *Entity) {
		e.PrivateKey = k
	}
}

var dsaParams = sync.OnceValue(func() *dsa.Parameters {
	params := new(dsa.Parameters)
	if err := dsa.GenerateParameters(params, rand.Reader, dsa.L1024N160); err != nil {
		panic(err)
	}
	return params
})

// NewEntity returns Entity with a new key, it panics on failure
func NewEntity(opts ...Option) *Entity {
	e := &Entity{
		Algorithm: cryptoprov.RSA,
		bits:      2048,
		curve:     elliptic.P256(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.PrivateKey != nil {
		return e
	}

	var err error
	switch e.Algorithm {
	case cryptoprov.RSA:
		e.PrivateKey, err = rsa.GenerateKey(rand.Reader, e.bits)
	case cryptoprov.EC:
		e.PrivateKey, err = ecdsa.GenerateKey(e.curve, rand.Reader)
	case cryptoprov.DSA:
		k := &dsa.PrivateKey{PublicKey: dsa.PublicKey{Parameters: *dsaParams()}}
		err = dsa.GenerateKey(k, rand.Reader)
		e.PrivateKey = k
	default:
		err = errors.Errorf("unsupported algorithm: %s", e.Algorithm)
	}
	if err != nil {
		panic(err)
	}
	return e
}

// Public returns the public key
func (e *Entity) Public() crypto.PublicKey {
	if d, ok := e.PrivateKey.(*dsa.PrivateKey); ok {
		return &d.PublicKey
	}
	return e.PrivateKey.(crypto.Signer).Public()
}

// PublicEqual returns true if pub is the public key of the entity
func (e *Entity) PublicEqual(pub crypto.PublicKey) bool {
	if d, ok := e.PrivateKey.(*dsa.PrivateKey); ok {
		other, ok := pub.(*dsa.PublicKey)
		return ok &&
			d.Y.Cmp(other.Y) == 0 &&
			d.P.Cmp(other.P) == 0 &&
			d.Q.Cmp(other.Q) == 0 &&
			d.G.Cmp(other.G) == 0
	}
	k, ok := e.Public().(interface{ Equal(crypto.PublicKey) bool })
	return ok && k.Equal(pub)
}

// PasswordBytes returns a new copy of the password,
// the key loader wipes the slice it receives.
func (e *Entity) PasswordBytes() []byte {
	if e.Password == "" {
		return nil
	}
	return []byte(e.Password)
}

// KeyPEM returns the key encoded in the entity format
func (e *Entity) KeyPEM() ([]byte, error) {
	var der []byte
	var typ string
	var err error

	switch e.Format {
	case PKCS8, EncryptedPKCS8:
		typ = cryptoprov.PEMTypePrivateKey
		if d, ok := e.PrivateKey.(*dsa.PrivateKey); ok {
			der, err = cryptoprov.MarshalPKCS8DSAPrivateKey(d)
		} else if e.Format == EncryptedPKCS8 {
			typ = cryptoprov.PEMTypeEncryptedPrivateKey
			der, err = pkcs8.MarshalPrivateKey(e.PrivateKey, []byte(e.Password), nil)
		} else {
			der, err = x509.MarshalPKCS8PrivateKey(e.PrivateKey)
		}
	default:
		switch k := e.PrivateKey.(type) {
		case *rsa.PrivateKey:
			typ = cryptoprov.PEMTypeRSAPrivateKey
			der = x509.MarshalPKCS1PrivateKey(k)
		case *ecdsa.PrivateKey:
			typ = cryptoprov.PEMTypeECPrivateKey
			der, err = x509.MarshalECPrivateKey(k)
		case *dsa.PrivateKey:
			typ = cryptoprov.PEMTypeDSAPrivateKey
			der, err = cryptoprov.MarshalDSAPrivateKey(k)
		default:
			err = errors.Errorf("key not supported: %T", k)
		}
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	block := &pem.Block{Type: typ, Bytes: der}
	if e.Format == LegacyEncrypted {
		//nolint:staticcheck
		block, err = x509.EncryptPEMBlock(rand.Reader, typ, der, []byte(e.Password), x509.PEMCipherAES256)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return pem.EncodeToMemory(block), nil
}

// WriteKey saves the key in the entity format to path
func (e *Entity) WriteKey(fs afero.Fs, path string) error {
	pemBytes, err := e.KeyPEM()
	if err != nil {
		return err
	}
	if err = fs.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(afero.WriteFile(fs, path, pemBytes, 0o600))
}
