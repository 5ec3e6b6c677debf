package cryptoprov

import (
	"crypto/dsa" //nolint:staticcheck // DSA keys are managed for compatibility
	"encoding/asn1"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xcsr/oid"
	"golang.org/x/crypto/cryptobyte"
	casn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// ParseDSAPrivateKey parses OpenSSL traditional DSA private key:
//
//	DSAPrivateKey ::= SEQUENCE { version INTEGER, p, q, g, y, x INTEGER }
func ParseDSAPrivateKey(der []byte) (*dsa.PrivateKey, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	var version int
	key := newDSAKey()

	if !input.ReadASN1(&seq, casn1.SEQUENCE) || !input.Empty() ||
		!seq.ReadASN1Integer(&version) || version != 0 ||
		!seq.ReadASN1Integer(key.P) ||
		!seq.ReadASN1Integer(key.Q) ||
		!seq.ReadASN1Integer(key.G) ||
		!seq.ReadASN1Integer(key.Y) ||
		!seq.ReadASN1Integer(key.X) ||
		!seq.Empty() {
		return nil, errors.New("invalid DSA private key")
	}
	if err := checkDSAKey(key); err != nil {
		return nil, err
	}
	return key, nil
}

// ParsePKCS8DSAPrivateKey parses unencrypted PKCS#8 DSA private key
func ParsePKCS8DSAPrivateKey(der []byte) (*dsa.PrivateKey, error) {
	input := cryptobyte.String(der)
	var seq, algID, params, privOctets cryptobyte.String
	var version int
	var algo asn1.ObjectIdentifier
	key := newDSAKey()

	if !input.ReadASN1(&seq, casn1.SEQUENCE) || !input.Empty() ||
		!seq.ReadASN1Integer(&version) || version != 0 ||
		!seq.ReadASN1(&algID, casn1.SEQUENCE) ||
		!algID.ReadASN1ObjectIdentifier(&algo) {
		return nil, errors.New("invalid PKCS#8 private key")
	}
	if !algo.Equal(oid.PublicKeyDSA) {
		return nil, errors.Errorf("not a DSA key: %s", algo.String())
	}
	// optional attributes after the private key are ignored
	if !algID.ReadASN1(&params, casn1.SEQUENCE) ||
		!params.ReadASN1Integer(key.P) ||
		!params.ReadASN1Integer(key.Q) ||
		!params.ReadASN1Integer(key.G) ||
		!params.Empty() ||
		!seq.ReadASN1(&privOctets, casn1.OCTET_STRING) ||
		!privOctets.ReadASN1Integer(key.X) ||
		!privOctets.Empty() {
		return nil, errors.New("invalid PKCS#8 DSA private key")
	}
	if key.P.Sign() <= 0 {
		return nil, errors.New("invalid DSA parameters")
	}
	key.Y.Exp(key.G, key.X, key.P)
	if err := checkDSAKey(key); err != nil {
		return nil, err
	}
	return key, nil
}

// MarshalDSAPrivateKey returns OpenSSL traditional DER encoding of the key
func MarshalDSAPrivateKey(key *dsa.PrivateKey) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(0)
		b.AddASN1BigInt(key.P)
		b.AddASN1BigInt(key.Q)
		b.AddASN1BigInt(key.G)
		b.AddASN1BigInt(key.Y)
		b.AddASN1BigInt(key.X)
	})
	der, err := b.Bytes()
	if err != nil {
		return nil, errors.WithMessage(err, "unable to marshal DSA key")
	}
	return der, nil
}

// MarshalPKCS8DSAPrivateKey returns unencrypted PKCS#8 DER encoding of the key
func MarshalPKCS8DSAPrivateKey(key *dsa.PrivateKey) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(0)
		b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oid.PublicKeyDSA)
			AddDSAParameters(b, &key.Parameters)
		})
		b.AddASN1(casn1.OCTET_STRING, func(b *cryptobyte.Builder) {
			b.AddASN1BigInt(key.X)
		})
	})
	der, err := b.Bytes()
	if err != nil {
		return nil, errors.WithMessage(err, "unable to marshal DSA key")
	}
	return der, nil
}

// AddDSAParameters appends Dss-Parms ::= SEQUENCE { p, q, g INTEGER }
func AddDSAParameters(b *cryptobyte.Builder, params *dsa.Parameters) {
	b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(params.P)
		b.AddASN1BigInt(params.Q)
		b.AddASN1BigInt(params.G)
	})
}

func newDSAKey() *dsa.PrivateKey {
	return &dsa.PrivateKey{
		PublicKey: dsa.PublicKey{
			Parameters: dsa.Parameters{
				P: new(big.Int),
				Q: new(big.Int),
				G: new(big.Int),
			},
			Y: new(big.Int),
		},
		X: new(big.Int),
	}
}

// checkDSAKey validates the domain parameters and y = g^x mod p
func checkDSAKey(key *dsa.PrivateKey) error {
	one := big.NewInt(1)
	if key.P.Sign() <= 0 || key.Q.Sign() <= 0 ||
		key.G.Cmp(one) <= 0 || key.G.Cmp(key.P) >= 0 ||
		key.Q.Cmp(key.P) >= 0 {
		return errors.New("invalid DSA parameters")
	}
	if key.X.Sign() <= 0 || key.X.Cmp(key.Q) >= 0 {
		return errors.New("invalid DSA private value")
	}
	if new(big.Int).Exp(key.G, key.X, key.P).Cmp(key.Y) != 0 {
		return errors.New("DSA public value does not match private value")
	}
	return nil
}
