package csr

import (
	"crypto/dsa" //nolint:staticcheck // DSA keys are managed for compatibility
	"crypto/x509"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xcsr/certutil"
	"github.com/effective-security/xcsr/cryptoprov"
	"github.com/effective-security/xcsr/csrerr"
	"github.com/effective-security/xcsr/metricskey"
	"github.com/spf13/afero"
)

// Verify returns true if the certificate request at path
// is signed by the key. It does not modify any file.
func Verify(fs afero.Fs, path string, key *cryptoprov.PrivateKey) (bool, error) {
	if key == nil || key.Destroyed() {
		return false, errors.New("private key is not available")
	}

	pemBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		return false, csrerr.Mark(errors.WithStack(err), csrerr.ErrIO, "unable to read certificate request %q", path)
	}

	req, err := certutil.ParseCSRFromPEM(pemBytes)
	if err != nil {
		return false, csrerr.Mark(err, csrerr.ErrMalformedRequest, "invalid certificate request %q", path)
	}

	return CheckSignature(req, key), nil
}

// CheckSignature returns true if the request signature verifies
// with the public component of the key.
func CheckSignature(req *x509.CertificateRequest, key *cryptoprov.PrivateKey) bool {
	defer metricskey.PerfCryptoOperation.MeasureSince(time.Now(), "file", "verify_csr")

	switch pub := key.Public().(type) {
	case *dsa.PublicKey:
		return verifyDSA(req, pub)
	case nil:
		return false
	default:
		c := &x509.Certificate{PublicKey: pub}
		return c.CheckSignature(req.SignatureAlgorithm, req.RawTBSCertificateRequest, req.Signature) == nil
	}
}
