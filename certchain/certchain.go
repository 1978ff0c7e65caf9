// Package certchain walks a certificate up a supporting chain to a
// trusted anchor in the key store, the way verify.py's verifyCert does:
// stop at the first certificate the store recognizes (checking for a
// fingerprint collision), otherwise keep climbing the chain until it is
// exhausted, at which point the top of the chain must itself be
// anchored in the store.
package certchain

import (
	"crypto/x509"
	"encoding/hex"
	"fmt"

	"github.com/rksv-go/depverify/depverifyerr"
	"github.com/rksv-go/depverify/keystore"
	"github.com/rksv-go/depverify/rkcrypto"
)

// Verify walks cert up through chain (leaf-to-root order) looking for an
// anchor in store. It returns nil on success.
func Verify(cert *x509.Certificate, chain []*x509.Certificate, store keystore.Store) error {
	prev := cert

	for _, next := range chain {
		if err := checkAgainstStore(prev, store); err != errNotInStore {
			return err
		}

		if err := rkcrypto.X509Verify(prev, next); err != nil {
			return &depverifyerr.CertificateChainBrokenError{
				Leaf:   keystore.CanonicalKeyID(prev.SerialNumber),
				Signer: keystore.CanonicalKeyID(next.SerialNumber),
			}
		}
		prev = next
	}

	if err := checkAgainstStore(prev, store); err != errNotInStore {
		return err
	}

	return fmt.Errorf("%w: %s", depverifyerr.ErrUntrustedCertificate, keystore.CanonicalKeyID(cert.SerialNumber))
}

// errNotInStore is a private sentinel used only to distinguish "the
// store has no entry for this key ID, keep climbing" from "the store
// settled this (either matched or collided)".
var errNotInStore = fmt.Errorf("not in store")

func checkAgainstStore(cert *x509.Certificate, store keystore.Store) error {
	keyID := keystore.CanonicalKeyID(cert.SerialNumber)
	stored := store.Get(keyID)
	if stored == nil {
		return errNotInStore
	}
	storedFP := rkcrypto.X509Fingerprint(stored)
	certFP := rkcrypto.X509Fingerprint(cert)
	if storedFP != certFP {
		return &depverifyerr.CertificateSerialCollisionError{
			KeyID:        keyID,
			Fingerprint1: hex.EncodeToString(certFP[:]),
			Fingerprint2: hex.EncodeToString(storedFP[:]),
		}
	}
	return nil
}
