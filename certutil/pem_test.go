package certutil_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"strings"
	"testing"

	"github.com/effective-security/xcsr/certutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSRFromPEM(t *testing.T) {
	pem := `-----BEGIN CERTIFICATE REQUEST-----
MIIBSjCB0QIBADBSMQswCQYDVQQGEwJVUzELMAkGA1UEBxMCV0ExEzARBgNVBAoT
CnRydXN0eS5jb20xITAfBgNVBAMMGFtURVNUXSBUcnVzdHkgTGV2ZWwgMSBDQTB2
MBAGByqGSM49AgEGBSuBBAAiA2IABITXg6XB0tSqS+8gLJ8iPEErcIkiXzA2VFuo
Y/joGvOXaq2GXQyOLXPXDLf0LlTNcQww6McTQUBRjocT7USwhR0EdTS4tfdgQi53
lE9lpMy4V5Gbg9x0t08PQ4EpXM+2KaAAMAoGCCqGSM49BAMDA2gAMGUCMQCut6W1
r6sX2RQbFtUPYEjg2EJdwo8KP0KMzDQEzdh0TzkFaTSxBvMjSR9L2HuntIYCMCuZ
18vhP1NmhNWaLmAPbbukNMhlrDgsezJXzN+/RFv3LCzzOLzHR4V90x6sb2jhmQ==
-----END CERTIFICATE REQUEST-----
`
	csr, err := certutil.ParseCSRFromPEM([]byte(pem))
	require.NoError(t, err)
	assert.Equal(t, "C=US, L=WA, O=trusty.com, CN=[TEST] Trusty Level 1 CA", certutil.NameToString(&csr.Subject))
	assert.NoError(t, csr.CheckSignature())

	legacy := strings.ReplaceAll(pem, "CERTIFICATE REQUEST", "NEW CERTIFICATE REQUEST")
	_, err = certutil.ParseCSRFromPEM([]byte(legacy))
	require.NoError(t, err)

	_, err = certutil.ParseCSRFromPEM([]byte("not a pem"))
	require.Error(t, err)
	assert.Equal(t, "unable to parse PEM", err.Error())

	_, err = certutil.ParseCSRFromPEM([]byte(strings.ReplaceAll(pem, "CERTIFICATE REQUEST", "CERTIFICATE")))
	require.Error(t, err)
	assert.Equal(t, "unsupported type in PEM: CERTIFICATE", err.Error())

	garbage := "-----BEGIN CERTIFICATE REQUEST-----\nMIIBSjCB0QIBADBSMQsw\n-----END CERTIFICATE REQUEST-----\n"
	_, err = certutil.ParseCSRFromPEM([]byte(garbage))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to parse certificate request")
}

func TestEncodeCSRToPEM(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	der, err := x509.CreateCertificateRequest(rand.Reader, &x509.CertificateRequest{
		Subject: pkix.Name{CommonName: "localhost", Organization: []string{"xcsr"}},
	}, key)
	require.NoError(t, err)

	pem := certutil.EncodeCSRToPEM(der)
	assert.True(t, strings.HasPrefix(string(pem), "-----BEGIN CERTIFICATE REQUEST-----\n"))

	csr, err := certutil.ParseCSRFromPEM(pem)
	require.NoError(t, err)
	assert.Equal(t, "O=xcsr, CN=localhost", certutil.NameToString(&csr.Subject))

	name := pkix.Name{CommonName: "localhost", Country: []string{"US"}}
	assert.Equal(t, "C=US, CN=localhost", certutil.NameToString(&name))
}
