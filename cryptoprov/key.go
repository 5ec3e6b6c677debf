package cryptoprov

import (
	"crypto"
	"crypto/dsa" //nolint:staticcheck // DSA keys are managed for compatibility
	"crypto/ecdsa"
	"crypto/rsa"
	"math/big"
)

// PrivateKey holds decrypted key material for the duration of one operation
type PrivateKey struct {
	algo Algorithm
	key  crypto.PrivateKey
}

// NewPrivateKey wraps key, the caller transfers the ownership of the key
func NewPrivateKey(algo Algorithm, key crypto.PrivateKey) *PrivateKey {
	return &PrivateKey{algo: algo, key: key}
}

// Algorithm returns the key algorithm family
func (k *PrivateKey) Algorithm() Algorithm {
	return k.algo
}

// Key returns the underlying key: *rsa.PrivateKey, *ecdsa.PrivateKey
// or *dsa.PrivateKey; nil once destroyed.
func (k *PrivateKey) Key() crypto.PrivateKey {
	return k.key
}

// Signer returns crypto.Signer for RSA and EC keys.
// DSA keys do not implement crypto.Signer.
func (k *PrivateKey) Signer() (crypto.Signer, bool) {
	s, ok := k.key.(crypto.Signer)
	return s, ok
}

// Public returns the public component of the key
func (k *PrivateKey) Public() crypto.PublicKey {
	switch typ := k.key.(type) {
	case *rsa.PrivateKey:
		return &typ.PublicKey
	case *ecdsa.PrivateKey:
		return &typ.PublicKey
	case *dsa.PrivateKey:
		return &typ.PublicKey
	}
	return nil
}

// Destroyed returns true if the key material was released
func (k *PrivateKey) Destroyed() bool {
	return k.key == nil
}

// Destroy zeroes the secret components of the key and releases it.
// It is safe to call Destroy more than once.
func (k *PrivateKey) Destroy() {
	if k == nil || k.key == nil {
		return
	}

	switch typ := k.key.(type) {
	case *rsa.PrivateKey:
		wipeInt(typ.D)
		for _, p := range typ.Primes {
			wipeInt(p)
		}
		wipeInt(typ.Precomputed.Dp)
		wipeInt(typ.Precomputed.Dq)
		wipeInt(typ.Precomputed.Qinv)
		for _, v := range typ.Precomputed.CRTValues {
			wipeInt(v.Exp)
			wipeInt(v.Coeff)
			wipeInt(v.R)
		}
	case *ecdsa.PrivateKey:
		wipeInt(typ.D)
	case *dsa.PrivateKey:
		wipeInt(typ.X)
	}
	k.key = nil
}

// wipeInt zeroes the words backing n
func wipeInt(n *big.Int) {
	if n == nil {
		return
	}
	words := n.Bits()
	for i := range words {
		words[i] = 0
	}
	n.SetInt64(0)
}
