package cryptoprov

import (
	"crypto"
	"crypto/dsa" //nolint:staticcheck // DSA keys are managed for compatibility
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"time"

	"github.com/awnumar/memguard"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xcsr/csrerr"
	"github.com/effective-security/xcsr/metricskey"
	"github.com/spf13/afero"
	"github.com/youmark/pkcs8"
)

// PEM block types of private keys
const (
	PEMTypePrivateKey          = "PRIVATE KEY"
	PEMTypeEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
	PEMTypeRSAPrivateKey       = "RSA PRIVATE KEY"
	PEMTypeECPrivateKey        = "EC PRIVATE KEY"
	PEMTypeDSAPrivateKey       = "DSA PRIVATE KEY"
	PEMTypeECParameters        = "EC PARAMETERS"
)

type derParser func(der []byte) (crypto.PrivateKey, error)

// parsers lists the DER decoders tried for each algorithm, in order
var parsers = map[Algorithm][]derParser{
	RSA: {parsePKCS8, parsePKCS1},
	EC:  {parsePKCS8, parseSEC1},
	DSA: {parsePKCS8DSA, parseTraditionalDSA},
}

// LoadPrivateKey reads a PEM encoded private key from path and returns it
// as PrivateKey of the specified algorithm.
// The password is optional, LoadPrivateKey takes the ownership of
// the password slice and wipes it before returning.
// The caller must Destroy the returned key.
func LoadPrivateKey(fs afero.Fs, path string, password []byte, algo Algorithm) (*PrivateKey, error) {
	defer metricskey.PerfCryptoOperation.MeasureSince(time.Now(), "file", "load_key")

	// moves the password into locked memory and wipes the source
	lb := memguard.NewBufferFromBytes(password)
	defer lb.Destroy()

	if err := algo.Validate(); err != nil {
		return nil, err
	}

	keyPEM, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, csrerr.Mark(errors.WithStack(err), csrerr.ErrIO, "unable to read private key %q", path)
	}
	defer memguard.WipeBytes(keyPEM)

	key, err := ParsePrivateKeyPEMWithPassword(keyPEM, lb.Bytes(), algo)
	if err != nil {
		return nil, csrerr.Mark(err, csrerr.ErrDecryption, "unable to load private key %q", path)
	}
	return NewPrivateKey(algo, key), nil
}

// ParsePrivateKeyPEM parses and returns a PEM-encoded unencrypted private key
func ParsePrivateKeyPEM(keyPEM []byte, algo Algorithm) (crypto.PrivateKey, error) {
	return ParsePrivateKeyPEMWithPassword(keyPEM, nil, algo)
}

// ParsePrivateKeyPEMWithPassword parses and returns a PEM-encoded private
// key of the specified algorithm. The key may be encrypted with
// legacy PEM encryption, or be an encrypted PKCS#8 for RSA and EC keys.
func ParsePrivateKeyPEMWithPassword(keyPEM []byte, password []byte, algo Algorithm) (crypto.PrivateKey, error) {
	block := decodeKeyBlock(keyPEM)
	if block == nil {
		return nil, errors.New("unable to decode private key")
	}

	if block.Type == PEMTypeEncryptedPrivateKey {
		if len(password) == 0 {
			return nil, errors.New("private key is encrypted")
		}
		if algo == DSA {
			return nil, errors.New("encrypted PKCS#8 is not supported for DSA keys")
		}
		key, err := pkcs8.ParsePKCS8PrivateKey(block.Bytes, password)
		if err != nil {
			return nil, errors.New("unable to decrypt private key")
		}
		if err = checkFamily(key, algo); err != nil {
			destroyKey(key)
			return nil, err
		}
		return key, nil
	}

	keyDER, err := GetPrivateKeyDERFromPEM(keyPEM, password)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(keyDER)

	return ParsePrivateKeyDER(keyDER, algo)
}

// GetPrivateKeyDERFromPEM parses a PEM-encoded private key and
// returns DER-format key bytes, decrypting legacy encrypted PEM blocks.
// The returned slice is a copy and the caller may wipe it.
func GetPrivateKeyDERFromPEM(in []byte, password []byte) ([]byte, error) {
	block := decodeKeyBlock(in)
	if block == nil {
		return nil, errors.New("unable to decode private key")
	}
	if block.Type == PEMTypeEncryptedPrivateKey {
		return nil, errors.New("encrypted PKCS#8 private key must be parsed with a password")
	}

	//nolint:staticcheck // legacy PEM encryption is produced by OpenSSL traditional formats
	if x509.IsEncryptedPEMBlock(block) {
		if len(password) == 0 {
			return nil, errors.New("private key is encrypted")
		}
		//nolint:staticcheck
		der, err := x509.DecryptPEMBlock(block, password)
		if err != nil {
			return nil, errors.New("unable to decrypt private key")
		}
		return der, nil
	}
	return append([]byte(nil), block.Bytes...), nil
}

// ParsePrivateKeyDER parses a DER-encoded private key of the specified
// algorithm: PKCS#1 or PKCS#8 for RSA, SEC1 or PKCS#8 for EC,
// OpenSSL traditional or PKCS#8 for DSA.
func ParsePrivateKeyDER(keyDER []byte, algo Algorithm) (crypto.PrivateKey, error) {
	list, ok := parsers[algo]
	if !ok {
		return nil, csrerr.New(csrerr.ErrUnsupportedAlgorithm, "unknown authentication type %q", string(algo))
	}

	for _, parse := range list {
		key, err := parse(keyDER)
		if err != nil {
			continue
		}
		if err = checkFamily(key, algo); err != nil {
			destroyKey(key)
			return nil, err
		}
		return key, nil
	}
	return nil, errors.Errorf("failed to parse %s key", algo)
}

// decodeKeyBlock returns the first PEM block that is not EC PARAMETERS,
// openssl includes them by default.
func decodeKeyBlock(in []byte) *pem.Block {
	var block *pem.Block
	for {
		block, in = pem.Decode(in)
		if block == nil || block.Type != PEMTypeECParameters {
			return block
		}
	}
}

func checkFamily(key crypto.PrivateKey, algo Algorithm) error {
	var found Algorithm
	switch key.(type) {
	case *rsa.PrivateKey:
		found = RSA
	case *ecdsa.PrivateKey:
		found = EC
	case *dsa.PrivateKey:
		found = DSA
	default:
		return errors.Errorf("key not supported: %T", key)
	}
	if found != algo {
		return errors.Errorf("key type mismatch: expected %s, found %s", algo, found)
	}
	return nil
}

func destroyKey(key crypto.PrivateKey) {
	NewPrivateKey("", key).Destroy()
}

func parsePKCS8(der []byte) (crypto.PrivateKey, error) {
	return x509.ParsePKCS8PrivateKey(der)
}

func parsePKCS1(der []byte) (crypto.PrivateKey, error) {
	return x509.ParsePKCS1PrivateKey(der)
}

func parseSEC1(der []byte) (crypto.PrivateKey, error) {
	return x509.ParseECPrivateKey(der)
}

func parsePKCS8DSA(der []byte) (crypto.PrivateKey, error) {
	return ParsePKCS8DSAPrivateKey(der)
}

func parseTraditionalDSA(der []byte) (crypto.PrivateKey, error) {
	return ParseDSAPrivateKey(der)
}
