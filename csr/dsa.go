package csr

import (
	"crypto"
	"crypto/dsa" //nolint:staticcheck // DSA keys are managed for compatibility
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xcsr/cryptoprov"
	"github.com/effective-security/xcsr/oid"
	"golang.org/x/crypto/cryptobyte"
	casn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// crypto/x509 does not sign nor verify with DSA keys,
// so DSA requests are encoded here.

// MarshalDSAPublicKey returns SubjectPublicKeyInfo of DSA key
func MarshalDSAPublicKey(pub *dsa.PublicKey) ([]byte, error) {
	var b cryptobyte.Builder
	addDSAPublicKey(&b, pub)
	der, err := b.Bytes()
	if err != nil {
		return nil, errors.WithMessage(err, "unable to marshal DSA public key")
	}
	return der, nil
}

func addDSAPublicKey(b *cryptobyte.Builder, pub *dsa.PublicKey) {
	b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oid.PublicKeyDSA)
			cryptoprov.AddDSAParameters(b, &pub.Parameters)
		})
		b.AddASN1(casn1.BIT_STRING, func(b *cryptobyte.Builder) {
			b.AddUint8(0)
			b.AddASN1BigInt(pub.Y)
		})
	})
}

// createDSARequest returns DER encoded request signed with dsa-with-SHA256
func createDSARequest(key *dsa.PrivateKey, rawSubject []byte, exts []pkix.Extension) ([]byte, error) {
	var info cryptobyte.Builder
	info.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(0)
		b.AddBytes(rawSubject)
		addDSAPublicKey(b, &key.PublicKey)
		b.AddASN1(casn1.Tag(0).ContextSpecific().Constructed(), func(b *cryptobyte.Builder) {
			if len(exts) == 0 {
				return
			}
			b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1ObjectIdentifier(oid.AttributeExtensionRequest)
				b.AddASN1(casn1.SET, func(b *cryptobyte.Builder) {
					addExtensions(b, exts)
				})
			})
		})
	})
	tbs, err := info.Bytes()
	if err != nil {
		return nil, errors.WithMessage(err, "unable to marshal request info")
	}

	digest := dsaDigest(crypto.SHA256, tbs, key.Q)
	r, s, err := dsa.Sign(rand.Reader, key, digest)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to sign request")
	}

	var sig cryptobyte.Builder
	sig.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(r)
		b.AddASN1BigInt(s)
	})
	sigDER, err := sig.Bytes()
	if err != nil {
		return nil, errors.WithMessage(err, "unable to marshal signature")
	}

	var req cryptobyte.Builder
	req.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddBytes(tbs)
		b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oid.SignatureDSAWithSHA256)
		})
		b.AddASN1BitString(sigDER)
	})
	der, err := req.Bytes()
	if err != nil {
		return nil, errors.WithMessage(err, "unable to marshal request")
	}
	return der, nil
}

func addExtensions(b *cryptobyte.Builder, exts []pkix.Extension) {
	b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		for _, ext := range exts {
			b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1ObjectIdentifier(ext.Id)
				if ext.Critical {
					b.AddASN1Boolean(true)
				}
				b.AddASN1OctetString(ext.Value)
			})
		}
	})
}

// verifyDSA returns true if the request is signed by the key
func verifyDSA(req *x509.CertificateRequest, pub *dsa.PublicKey) bool {
	var h crypto.Hash
	switch req.SignatureAlgorithm {
	case x509.DSAWithSHA1:
		h = crypto.SHA1
	case x509.DSAWithSHA256:
		h = crypto.SHA256
	default:
		return false
	}

	var sig struct {
		R, S *big.Int
	}
	rest, err := asn1.Unmarshal(req.Signature, &sig)
	if err != nil || len(rest) != 0 || sig.R == nil || sig.S == nil {
		return false
	}
	if sig.R.Sign() <= 0 || sig.S.Sign() <= 0 {
		return false
	}

	digest := dsaDigest(h, req.RawTBSCertificateRequest, pub.Q)
	return dsa.Verify(pub, digest, sig.R, sig.S)
}

// dsaDigest returns the hash of data truncated to the byte length of q
func dsaDigest(h crypto.Hash, data []byte, q *big.Int) []byte {
	hf := h.New()
	hf.Write(data)
	digest := hf.Sum(nil)
	if n := (q.BitLen() + 7) / 8; len(digest) > n {
		digest = digest[:n]
	}
	return digest
}
