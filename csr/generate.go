package csr

import (
	"crypto"
	"crypto/dsa" //nolint:staticcheck // DSA keys are managed for compatibility
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // RFC 5280 subject key identifier method 1
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xcsr/certutil"
	"github.com/effective-security/xcsr/cryptoprov"
	"github.com/effective-security/xcsr/csrerr"
	"github.com/effective-security/xcsr/metricskey"
	"github.com/effective-security/xcsr/oid"
	"github.com/effective-security/xcsr/x/fileutil"
	"github.com/spf13/afero"
)

// RequestFileMode is the permission of written requests
const RequestFileMode = 0o644

// Generate creates a certificate request for the key with the subject and
// extensions of req, and atomically writes it to outPath in PEM format.
// outPath is the only file written.
func Generate(fs afero.Fs, key *cryptoprov.PrivateKey, req *Request, outPath string) error {
	der, err := Create(key, req)
	if err != nil {
		return errors.WithMessagef(err, "unable to create certificate request %q", outPath)
	}

	err = fileutil.WriteFileAtomic(fs, outPath, certutil.EncodeCSRToPEM(der), RequestFileMode)
	if err != nil {
		return csrerr.Mark(err, csrerr.ErrWrite, "unable to write certificate request %q", outPath)
	}
	return nil
}

// Create returns DER encoded certificate request signed by the key.
// Errors caused by the content of req are marked with csrerr.ErrTemplate.
func Create(key *cryptoprov.PrivateKey, req *Request) ([]byte, error) {
	if key == nil || key.Destroyed() {
		return nil, errors.New("private key is not available")
	}
	defer metricskey.PerfCryptoOperation.MeasureSince(time.Now(), "file", "sign_csr")

	rawSubject, err := req.RawSubject()
	if err != nil {
		return nil, errors.Mark(err, csrerr.ErrTemplate)
	}

	exts := req.Extensions
	if req.SubjectKeyID {
		ski, err := subjectKeyID(key.Public())
		if err != nil {
			return nil, errors.Mark(err, csrerr.ErrTemplate)
		}
		val, err := asn1.Marshal(ski)
		if err != nil {
			return nil, errors.Mark(errors.WithStack(err), csrerr.ErrTemplate)
		}
		exts = append(append([]pkix.Extension{}, exts...), pkix.Extension{Id: oid.ExtensionSubjectKeyID, Value: val})
	}

	if k, ok := key.Key().(*dsa.PrivateKey); ok {
		return createDSARequest(k, rawSubject, exts)
	}

	signer, ok := key.Signer()
	if !ok {
		return nil, errors.Errorf("key not supported: %T", key.Key())
	}

	ki, err := certutil.NewKeyInfo(key.Key())
	if err != nil {
		return nil, err
	}
	digest := req.Digest
	if digest == 0 {
		digest = ki.Hash
	}
	sigAlg, err := ki.SignatureAlgorithm(digest)
	if err != nil {
		return nil, err
	}

	template := &x509.CertificateRequest{
		RawSubject:         rawSubject,
		ExtraExtensions:    exts,
		SignatureAlgorithm: sigAlg,
	}
	der, err := x509.CreateCertificateRequest(rand.Reader, template, signer)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to sign request")
	}
	return der, nil
}

// subjectKeyID returns SHA-1 hash of the subjectPublicKey
func subjectKeyID(pub crypto.PublicKey) ([]byte, error) {
	var spki []byte
	var err error
	if dpub, ok := pub.(*dsa.PublicKey); ok {
		spki, err = MarshalDSAPublicKey(dpub)
	} else {
		spki, err = x509.MarshalPKIXPublicKey(pub)
	}
	if err != nil {
		return nil, errors.WithMessage(err, "unable to marshal public key")
	}

	var info struct {
		Algorithm pkix.AlgorithmIdentifier
		PublicKey asn1.BitString
	}
	if _, err = asn1.Unmarshal(spki, &info); err != nil {
		return nil, errors.WithStack(err)
	}
	h := sha1.Sum(info.PublicKey.RightAlign()) //nolint:gosec
	return h[:], nil
}
