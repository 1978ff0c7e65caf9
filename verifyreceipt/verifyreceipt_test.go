package verifyreceipt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rksv-go/depverify/algorithm"
	"github.com/rksv-go/depverify/depverifyerr"
	"github.com/rksv-go/depverify/keystore"
	"github.com/rksv-go/depverify/rkvtesting"
	"github.com/rksv-go/depverify/verifyreceipt"
)

func TestVerify_ValidSignatureAgainstFixedCert(t *testing.T) {
	key := rkvtesting.GenerateKey(t)
	cert := rkvtesting.SelfSignedCert(t, key, 1)

	jws := rkvtesting.BuildJWS(t, key, rkvtesting.Fields{
		AlgorithmPrefix:   "R1",
		ZDA:               "AT0",
		RegisterID:        "REG1",
		ReceiptID:         "r-1",
		SumA:              "0.00", SumB: "0.00", SumC: "0.00", SumD: "0.00", SumE: "0.00",
		Turnover:          "",
		PreviousChain:     rkvtesting.Chain("", "REG1"),
		CertificateSerial: "1",
	})

	v := verifyreceipt.FromCert(cert, algorithm.DefaultRegistry())
	res, err := v.Verify(jws)
	require.NoError(t, err)
	assert.Equal(t, verifyreceipt.Valid, res.Outcome)
}

func TestVerify_ValidSignatureAgainstKeyStore(t *testing.T) {
	key := rkvtesting.GenerateKey(t)
	cert := rkvtesting.SelfSignedCert(t, key, 42)
	store := keystore.MapStore{keystore.CanonicalKeyID(cert.SerialNumber): cert}

	jws := rkvtesting.BuildJWS(t, key, rkvtesting.Fields{
		AlgorithmPrefix:   "R1",
		ZDA:               "AT0",
		RegisterID:        "REG1",
		ReceiptID:         "r-2",
		SumA:              "100.00", SumB: "0.00", SumC: "0.00", SumD: "0.00", SumE: "0.00",
		Turnover:          "",
		PreviousChain:     rkvtesting.Chain("prev", "REG1"),
		CertificateSerial: keystore.CanonicalKeyID(cert.SerialNumber),
	})

	v := verifyreceipt.FromKeyStore(store, algorithm.DefaultRegistry())
	res, err := v.Verify(jws)
	require.NoError(t, err)
	assert.Equal(t, verifyreceipt.Valid, res.Outcome)
	assert.Equal(t, "R1", res.Algorithm.Prefix())
}

func TestVerify_SignatureSystemFailedSkipsSignatureCheck(t *testing.T) {
	cert := rkvtesting.SelfSignedCert(t, rkvtesting.GenerateKey(t), 1)
	jws := rkvtesting.BuildJWS(t, nil, rkvtesting.Fields{
		AlgorithmPrefix:   "R1",
		ZDA:               "AT0",
		RegisterID:        "REG1",
		ReceiptID:         "r-3",
		SumA:              "0.00", SumB: "0.00", SumC: "0.00", SumD: "0.00", SumE: "0.00",
		Turnover:          "SIGNATURE-SYSTEM-FAILED",
		PreviousChain:     rkvtesting.Chain("prev", "REG1"),
		CertificateSerial: "1",
	})

	v := verifyreceipt.FromCert(cert, algorithm.DefaultRegistry())
	res, err := v.Verify(jws)
	require.NoError(t, err)
	assert.Equal(t, verifyreceipt.SignatureSystemFailed, res.Outcome)
}

func TestVerify_InvalidSignatureFails(t *testing.T) {
	key := rkvtesting.GenerateKey(t)
	otherKey := rkvtesting.GenerateKey(t)
	cert := rkvtesting.SelfSignedCert(t, otherKey, 1)

	jws := rkvtesting.BuildJWS(t, key, rkvtesting.Fields{
		AlgorithmPrefix:   "R1",
		ZDA:               "AT0",
		RegisterID:        "REG1",
		ReceiptID:         "r-4",
		SumA:              "0.00", SumB: "0.00", SumC: "0.00", SumD: "0.00", SumE: "0.00",
		PreviousChain:     rkvtesting.Chain("", "REG1"),
		CertificateSerial: "1",
	})

	v := verifyreceipt.FromCert(cert, algorithm.DefaultRegistry())
	_, err := v.Verify(jws)
	assert.ErrorIs(t, err, depverifyerr.ErrInvalidSignature)
}

func TestVerify_CertificateSerialMismatch(t *testing.T) {
	key := rkvtesting.GenerateKey(t)
	cert := rkvtesting.SelfSignedCert(t, key, 1)

	jws := rkvtesting.BuildJWS(t, key, rkvtesting.Fields{
		AlgorithmPrefix:   "R1",
		ZDA:               "AT0",
		RegisterID:        "REG1",
		ReceiptID:         "r-5",
		SumA:              "0.00", SumB: "0.00", SumC: "0.00", SumD: "0.00", SumE: "0.00",
		PreviousChain:     rkvtesting.Chain("", "REG1"),
		CertificateSerial: "999",
	})

	v := verifyreceipt.FromCert(cert, algorithm.DefaultRegistry())
	_, err := v.Verify(jws)
	assert.ErrorIs(t, err, depverifyerr.ErrCertificateSerialMismatch)
}

func TestVerify_NoPublicKeyAvailable(t *testing.T) {
	store := keystore.MapStore{}
	jws := rkvtesting.BuildJWS(t, nil, rkvtesting.Fields{
		AlgorithmPrefix:   "R1",
		RegisterID:        "REG1",
		ReceiptID:         "r-6",
		SumA:              "0.00", SumB: "0.00", SumC: "0.00", SumD: "0.00", SumE: "0.00",
		PreviousChain:     rkvtesting.Chain("", "REG1"),
		CertificateSerial: "1",
	})

	v := verifyreceipt.FromKeyStore(store, algorithm.DefaultRegistry())
	_, err := v.Verify(jws)
	assert.ErrorIs(t, err, depverifyerr.ErrNoPublicKeyAvailable)
}

func TestVerify_UnknownAlgorithm(t *testing.T) {
	jws := rkvtesting.BuildJWS(t, nil, rkvtesting.Fields{
		AlgorithmPrefix:   "R9",
		RegisterID:        "REG1",
		ReceiptID:         "r-7",
		SumA:              "0.00", SumB: "0.00", SumC: "0.00", SumD: "0.00", SumE: "0.00",
		CertificateSerial: "1",
	})

	v := verifyreceipt.FromKeyStore(keystore.MapStore{}, algorithm.DefaultRegistry())
	_, err := v.Verify(jws)
	assert.ErrorIs(t, err, depverifyerr.ErrUnknownAlgorithm)
}
