// Package keystore maps a certificate serial to a trusted certificate,
// the key store contract consumed by the verification core. It mirrors
// the way signedrootreader.go treats a remote store as a narrow,
// read-only lookup interface.
package keystore

import (
	"crypto/x509"
	"math/big"
)

// Store resolves a canonical key ID to a trusted certificate. It is
// read-only during a verification run.
type Store interface {
	Get(keyID string) *x509.Certificate
}

// CanonicalKeyID maps a certificate serial number to the key store's
// naming convention: a decimal string, sign preserved, no leading
// zeros. big.Int.String() already satisfies this.
func CanonicalKeyID(serial *big.Int) string {
	return serial.String()
}

// MapStore is the simplest Store: an in-memory map, typically built by
// loading certificates from a JSON document (see keystore.LoadJSON).
type MapStore map[string]*x509.Certificate

func (m MapStore) Get(keyID string) *x509.Certificate {
	return m[keyID]
}
