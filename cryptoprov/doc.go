// Package cryptoprov loads private keys for certificate request operations.
//
// This package supports:
//   - RSA keys in PKCS#1 and PKCS#8 formats
//   - EC keys in SEC1 and PKCS#8 formats
//   - DSA keys in OpenSSL traditional and PKCS#8 formats
//   - legacy PEM encryption (Proc-Type: 4,ENCRYPTED) for all of the above
//   - encrypted PKCS#8 (ENCRYPTED PRIVATE KEY) for RSA and EC keys
//
// A loaded PrivateKey owns the decrypted material and must be destroyed
// as soon as the caller is done with it. The passphrase is kept in locked
// memory only while the key is being decrypted.
package cryptoprov
