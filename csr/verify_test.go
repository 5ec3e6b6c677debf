package csr_test

import (
	"encoding/pem"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xcsr/cryptoprov"
	"github.com/effective-security/xcsr/csr"
	"github.com/effective-security/xcsr/csrerr"
	"github.com/effective-security/xcsr/testca"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	key, _ := newKey(t)

	_, err := csr.Verify(fs, "/missing.csr", key)
	require.Error(t, err)
	assert.True(t, errors.Is(err, csrerr.ErrIO))
	assert.Contains(t, err.Error(), `unable to read certificate request "/missing.csr"`)

	require.NoError(t, afero.WriteFile(fs, "/garbage.csr", []byte("garbage"), 0o644))
	_, err = csr.Verify(fs, "/garbage.csr", key)
	require.Error(t, err)
	assert.True(t, errors.Is(err, csrerr.ErrMalformedRequest))
	assert.Contains(t, err.Error(), `invalid certificate request "/garbage.csr": unable to parse PEM`)

	block := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: []byte{0x30, 0x00}})
	require.NoError(t, afero.WriteFile(fs, "/bad.csr", block, 0o644))
	_, err = csr.Verify(fs, "/bad.csr", key)
	require.Error(t, err)
	assert.True(t, errors.Is(err, csrerr.ErrMalformedRequest))

	key.Destroy()
	_, err = csr.Verify(fs, "/bad.csr", key)
	assert.EqualError(t, err, "private key is not available")
}

func TestVerifyLegacyHeader(t *testing.T) {
	fs := afero.NewMemMapFs()
	tmpl, err := csr.ParseConfig([]byte(promptConfig))
	require.NoError(t, err)

	key, _ := newKey(t, testca.Algorithm(cryptoprov.EC))
	require.NoError(t, csr.Generate(fs, key, tmpl, "/a.csr"))

	b, err := afero.ReadFile(fs, "/a.csr")
	require.NoError(t, err)
	legacy := strings.ReplaceAll(string(b), "CERTIFICATE REQUEST", "NEW CERTIFICATE REQUEST")
	require.NoError(t, afero.WriteFile(fs, "/legacy.csr", []byte(legacy), 0o644))

	valid, err := csr.Verify(fs, "/legacy.csr", key)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestVerifyAcrossAlgorithms(t *testing.T) {
	fs := afero.NewMemMapFs()
	tmpl, err := csr.ParseConfig([]byte(promptConfig))
	require.NoError(t, err)

	rsaKey, _ := newKey(t)
	ecKey, _ := newKey(t, testca.Algorithm(cryptoprov.EC))
	dsaKey, _ := newKey(t, testca.Algorithm(cryptoprov.DSA))

	require.NoError(t, csr.Generate(fs, rsaKey, tmpl, "/rsa.csr"))
	require.NoError(t, csr.Generate(fs, dsaKey, tmpl, "/dsa.csr"))

	for _, k := range []*cryptoprov.PrivateKey{ecKey, dsaKey} {
		valid, err := csr.Verify(fs, "/rsa.csr", k)
		require.NoError(t, err)
		assert.False(t, valid)
	}
	for _, k := range []*cryptoprov.PrivateKey{rsaKey, ecKey} {
		valid, err := csr.Verify(fs, "/dsa.csr", k)
		require.NoError(t, err)
		assert.False(t, valid)
	}
}

func TestVerifyTamperedDSA(t *testing.T) {
	fs := afero.NewMemMapFs()
	tmpl, err := csr.ParseConfig([]byte(promptConfig))
	require.NoError(t, err)

	key, _ := newKey(t, testca.Algorithm(cryptoprov.DSA))
	der, err := csr.Create(key, tmpl)
	require.NoError(t, err)

	// flip a bit of the last byte of the signature
	der[len(der)-1] ^= 0x01
	require.NoError(t, afero.WriteFile(fs, "/dsa.csr", pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: der}), 0o644))

	valid, err := csr.Verify(fs, "/dsa.csr", key)
	require.NoError(t, err)
	assert.False(t, valid)
}
