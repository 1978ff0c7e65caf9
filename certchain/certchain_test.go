package certchain_test

import (
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rksv-go/depverify/certchain"
	"github.com/rksv-go/depverify/depverifyerr"
	"github.com/rksv-go/depverify/keystore"
	"github.com/rksv-go/depverify/rkvtesting"
)

func TestVerify_LeafDirectlyTrusted(t *testing.T) {
	key := rkvtesting.GenerateKey(t)
	cert := rkvtesting.SelfSignedCert(t, key, 1)
	store := keystore.MapStore{"1": cert}

	err := certchain.Verify(cert, nil, store)
	assert.NoError(t, err)
}

func TestVerify_RootOfChainTrusted(t *testing.T) {
	rootKey := rkvtesting.GenerateKey(t)
	root := rkvtesting.SelfSignedCert(t, rootKey, 1)
	store := keystore.MapStore{"1": root}

	leafKey := rkvtesting.GenerateKey(t)
	leaf := rkvtesting.SignedBy(t, leafKey, 2, rootKey, root)

	err := certchain.Verify(leaf, []*x509.Certificate{root}, store)
	assert.NoError(t, err)
}

func TestVerify_UntrustedAtTopOfChain(t *testing.T) {
	rootKey := rkvtesting.GenerateKey(t)
	root := rkvtesting.SelfSignedCert(t, rootKey, 1)
	store := keystore.MapStore{}

	leafKey := rkvtesting.GenerateKey(t)
	leaf := rkvtesting.SignedBy(t, leafKey, 2, rootKey, root)

	err := certchain.Verify(leaf, []*x509.Certificate{root}, store)
	assert.ErrorIs(t, err, depverifyerr.ErrUntrustedCertificate)
}

func TestVerify_SerialCollision(t *testing.T) {
	key1 := rkvtesting.GenerateKey(t)
	cert1 := rkvtesting.SelfSignedCert(t, key1, 7)
	key2 := rkvtesting.GenerateKey(t)
	cert2 := rkvtesting.SelfSignedCert(t, key2, 7)

	store := keystore.MapStore{"7": cert1}

	err := certchain.Verify(cert2, nil, store)
	var collision *depverifyerr.CertificateSerialCollisionError
	assert.ErrorAs(t, err, &collision)
}
