package cryptoprov

import (
	"crypto/dsa" //nolint:staticcheck // DSA keys are managed for compatibility
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"time"

	"github.com/awnumar/memguard"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xcsr/metricskey"
	"github.com/youmark/pkcs8"
)

// ExportPEM returns PEM encoding of the key.
// If encrypted is true and the password is not empty, RSA and EC keys are
// encoded as encrypted PKCS#8, and DSA keys with legacy AES-256 PEM encryption.
// Otherwise the key is encoded as PKCS#8 for RSA and EC,
// or as OpenSSL traditional DSA key.
func ExportPEM(key *PrivateKey, password []byte, encrypted bool) ([]byte, error) {
	if key == nil || key.Destroyed() {
		return nil, errors.New("private key is not available")
	}
	defer metricskey.PerfCryptoOperation.MeasureSince(time.Now(), "file", "export_key")

	protect := encrypted && len(password) > 0

	if d, ok := key.Key().(*dsa.PrivateKey); ok {
		der, err := MarshalDSAPrivateKey(d)
		if err != nil {
			return nil, err
		}
		defer memguard.WipeBytes(der)

		if !protect {
			return pem.EncodeToMemory(&pem.Block{Type: PEMTypeDSAPrivateKey, Bytes: der}), nil
		}
		//nolint:staticcheck // OpenSSL traditional DSA keys support only legacy encryption
		block, err := x509.EncryptPEMBlock(rand.Reader, PEMTypeDSAPrivateKey, der, password, x509.PEMCipherAES256)
		if err != nil {
			return nil, errors.WithMessage(err, "unable to encrypt private key")
		}
		return pem.EncodeToMemory(block), nil
	}

	if !protect {
		der, err := x509.MarshalPKCS8PrivateKey(key.Key())
		if err != nil {
			return nil, errors.WithMessage(err, "unable to marshal private key")
		}
		defer memguard.WipeBytes(der)
		return pem.EncodeToMemory(&pem.Block{Type: PEMTypePrivateKey, Bytes: der}), nil
	}

	der, err := pkcs8.MarshalPrivateKey(key.Key(), password, nil)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to encrypt private key")
	}
	return pem.EncodeToMemory(&pem.Block{Type: PEMTypeEncryptedPrivateKey, Bytes: der}), nil
}
