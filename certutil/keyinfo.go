package certutil

import (
	"crypto"
	"crypto/dsa" //nolint:staticcheck // DSA keys are managed for compatibility
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"

	"github.com/cockroachdb/errors"
)

// Key types reported by KeyInfo
const (
	KeyTypeRSA   = "RSA"
	KeyTypeECDSA = "ECDSA"
	KeyTypeDSA   = "DSA"
)

// KeyInfo provides information about the key
type KeyInfo struct {
	KeySize   int
	Type      string
	IsPrivate bool
	Hash      crypto.Hash
	Key       any
}

// NewKeyInfo returns *KeyInfo
func NewKeyInfo(k any) (*KeyInfo, error) {
	ki := &KeyInfo{Key: k}
	var pubKey crypto.PublicKey

	// find the Public
	switch typ := k.(type) {
	case *rsa.PrivateKey:
		ki.KeySize = typ.N.BitLen()
		ki.IsPrivate = true
		ki.Type = KeyTypeRSA
		ki.Hash = hashAlgo(typ.Public())
		return ki, nil
	case *ecdsa.PrivateKey:
		ki.Type = KeyTypeECDSA
		ki.IsPrivate = true
		ki.KeySize = typ.Curve.Params().BitSize
		ki.Hash = hashAlgo(typ.Public())
		return ki, nil
	case *dsa.PrivateKey:
		ki.Type = KeyTypeDSA
		ki.IsPrivate = true
		ki.KeySize = typ.P.BitLen()
		ki.Hash = crypto.SHA256
		return ki, nil
	case crypto.Signer:
		pubKey = typ.Public()
	default:
		pubKey = k
	}

	switch typ := pubKey.(type) {
	case *rsa.PublicKey:
		ki.KeySize = typ.N.BitLen()
		ki.Type = KeyTypeRSA
	case *ecdsa.PublicKey:
		ki.Type = KeyTypeECDSA
		ki.KeySize = typ.Curve.Params().BitSize
	case *dsa.PublicKey:
		ki.Type = KeyTypeDSA
		ki.KeySize = typ.P.BitLen()
	default:
		return nil, errors.Errorf("key not supported: %T", typ)
	}
	ki.Hash = hashAlgo(pubKey)
	return ki, nil
}

// SignatureAlgorithm returns x509 signature algorithm for the key
// with the specified digest
func (ki *KeyInfo) SignatureAlgorithm(h crypto.Hash) (x509.SignatureAlgorithm, error) {
	switch ki.Type {
	case KeyTypeRSA:
		switch h {
		case crypto.SHA256:
			return x509.SHA256WithRSA, nil
		case crypto.SHA384:
			return x509.SHA384WithRSA, nil
		case crypto.SHA512:
			return x509.SHA512WithRSA, nil
		}
	case KeyTypeECDSA:
		switch h {
		case crypto.SHA256:
			return x509.ECDSAWithSHA256, nil
		case crypto.SHA384:
			return x509.ECDSAWithSHA384, nil
		case crypto.SHA512:
			return x509.ECDSAWithSHA512, nil
		}
	case KeyTypeDSA:
		switch h {
		case crypto.SHA1:
			return x509.DSAWithSHA1, nil
		case crypto.SHA256:
			return x509.DSAWithSHA256, nil
		}
	}
	return x509.UnknownSignatureAlgorithm, errors.Errorf("unsupported digest %s for %s key", h, ki.Type)
}

func hashAlgo(pub crypto.PublicKey) crypto.Hash {
	switch pub := pub.(type) {
	case *rsa.PublicKey:
		keySize := pub.N.BitLen()
		switch {
		case keySize >= 4096:
			return crypto.SHA512
		case keySize >= 3072:
			return crypto.SHA384
		default:
			return crypto.SHA256
		}
	case *ecdsa.PublicKey:
		switch pub.Curve {
		case elliptic.P384():
			return crypto.SHA384
		case elliptic.P521():
			return crypto.SHA512
		default:
			return crypto.SHA256
		}
	default:
		return crypto.SHA256
	}
}
