package cluster

import (
	"fmt"

	"github.com/rksv-go/depverify/algorithm"
	"github.com/rksv-go/depverify/certchain"
	"github.com/rksv-go/depverify/depio"
	"github.com/rksv-go/depverify/depverifyerr"
	"github.com/rksv-go/depverify/keystore"
	"github.com/rksv-go/depverify/verifyreceipt"
)

// assignVerifiers resolves one Verifier per group in chunk. A chunk whose
// single group carries no certificate falls back to the key-store-
// resolving verifier; any other group lacking a certificate is a
// NoCertificateGiven error. A group with a certificate has that
// certificate chain-verified once, up front.
func assignVerifiers(chunk depio.Chunk, store keystore.Store, registry *algorithm.Registry) ([]verifyreceipt.Verifier, error) {
	verifiers := make([]verifyreceipt.Verifier, len(chunk))
	singleGroupNoCert := len(chunk) == 1 && chunk[0].Cert == nil

	for i, g := range chunk {
		if g.Cert == nil {
			if !singleGroupNoCert {
				return nil, fmt.Errorf("%w: group %d", depverifyerr.ErrNoCertificateGiven, i)
			}
			verifiers[i] = verifyreceipt.FromKeyStore(store, registry)
			continue
		}
		if err := certchain.Verify(g.Cert, g.Chain, store); err != nil {
			return nil, err
		}
		verifiers[i] = verifyreceipt.FromCert(g.Cert, registry)
	}
	return verifiers, nil
}
