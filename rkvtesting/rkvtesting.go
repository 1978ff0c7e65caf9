// Package rkvtesting builds signed receipt and certificate fixtures for
// this module's tests, the way mmrtesting centralizes fixture
// construction (key generation, signer setup) so individual _test.go
// files stay short.
package rkvtesting

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rksv-go/depverify/algorithm"
	"github.com/rksv-go/depverify/rkcrypto"
)

// Fields describes one receipt's payload, in the JSON shape receipt.Parse
// expects.
type Fields struct {
	AlgorithmPrefix              string
	ZDA                          string
	RegisterID                   string
	ReceiptID                    string
	DateTime                     string
	SumA, SumB, SumC, SumD, SumE string
	Turnover                     string
	PreviousChain                []byte
	CertificateSerial            string
}

type wirePayload struct {
	AlgorithmPrefix   string `json:"algorithmPrefix"`
	ZDA               string `json:"zda"`
	RegisterID        string `json:"registerId"`
	ReceiptID         string `json:"receiptId"`
	DateTime          string `json:"dateTime"`
	SumA              string `json:"sumA"`
	SumB              string `json:"sumB"`
	SumC              string `json:"sumC"`
	SumD              string `json:"sumD"`
	SumE              string `json:"sumE"`
	Turnover          string `json:"turnover"`
	PreviousChain     string `json:"previousChain"`
	CertificateSerial string `json:"certificateSerial"`
}

// GenerateKey returns a fresh P-256 key for signing test receipts.
func GenerateKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

// SelfSignedCert builds a self-signed CA certificate for key under the
// given serial, suitable for a keystore.MapStore entry or as the parent
// passed to SignedBy.
func SelfSignedCert(t *testing.T, key *ecdsa.PrivateKey, serial int64) *x509.Certificate {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(serial),
		Subject:               pkix.Name{CommonName: "depverify-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

// BuildJWS signs fields with key using the R1 algorithm's literal header
// and returns the compact JWS string. A nil key produces an empty
// signature, for the SIGNATURE-SYSTEM-FAILED/UNSIGNED-NULL fixtures whose
// signature is never checked.
func BuildJWS(t *testing.T, key *ecdsa.PrivateKey, f Fields) string {
	t.Helper()
	header := []byte(algorithm.R1{}.JWSHeader())
	payload, err := json.Marshal(wirePayload{
		AlgorithmPrefix:   f.AlgorithmPrefix,
		ZDA:               f.ZDA,
		RegisterID:        f.RegisterID,
		ReceiptID:         f.ReceiptID,
		DateTime:          f.DateTime,
		SumA:              f.SumA,
		SumB:              f.SumB,
		SumC:              f.SumC,
		SumD:              f.SumD,
		SumE:              f.SumE,
		Turnover:          f.Turnover,
		PreviousChain:     base64.StdEncoding.EncodeToString(f.PreviousChain),
		CertificateSerial: f.CertificateSerial,
	})
	require.NoError(t, err)

	headerB64 := base64.RawURLEncoding.EncodeToString(header)
	payloadB64 := base64.RawURLEncoding.EncodeToString(payload)
	signingInput := headerB64 + "." + payloadB64

	var sig []byte
	if key != nil {
		sig, err = rkcrypto.SignES256(key, signingInput)
		require.NoError(t, err)
	}
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig)
}

// EncryptTurnover encrypts counter the way algorithm "R1" does, returning
// the base64 ciphertext for a receipt's "turnover" field.
func EncryptTurnover(t *testing.T, registerID, receiptID string, counter int64, key []byte, size int) string {
	t.Helper()
	enc, err := algorithm.R1{}.EncryptTurnoverCounter(registerID, receiptID, counter, key, size)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(enc)
}

// TurnoverKey returns a fresh 32-byte AES-256 key.
func TurnoverKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

// Chain computes the R1 chaining value for a receipt whose predecessor's
// full JWS is previousJWS (empty for a register's first receipt).
func Chain(previousJWS, registerID string) []byte {
	return algorithm.R1{}.Chain(previousJWS, registerID)
}

// SignedBy builds a certificate for key/serial, signed by parentKey's
// certificate parent, for tests of a multi-certificate chain walk.
func SignedBy(t *testing.T, key *ecdsa.PrivateKey, serial int64, parentKey *ecdsa.PrivateKey, parent *x509.Certificate) *x509.Certificate {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      pkix.Name{CommonName: "depverify-test-leaf"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, &key.PublicKey, parentKey)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}
