// Package csr creates and verifies PKCS#10 certificate requests
// as defined by RFC 2986.
//
// This package supports:
//   - request templates in OpenSSL req configuration format
//   - request profiles in YAML or JSON format
//   - RSA, EC and DSA signing keys
//   - verification of an existing request against a private key
//
// Requests are written atomically: readers observe either the previous
// request or the complete new one.
package csr
