// Package verifyreceipt verifies a single receipt's signature, modeling
// the two "acceptable but unusual" outcomes (signature system failure,
// unsigned null) as a tagged Outcome rather than as thrown exceptions —
// the state machine in package register then imposes its own duties on
// top of whichever outcome it receives.
package verifyreceipt

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/json"
	"fmt"

	"github.com/rksv-go/depverify/algorithm"
	"github.com/rksv-go/depverify/depverifyerr"
	"github.com/rksv-go/depverify/keystore"
	"github.com/rksv-go/depverify/receipt"
)

// Outcome classifies the result of verifying one receipt's signature.
type Outcome int

const (
	// Valid means the signature checked out against a trusted key.
	Valid Outcome = iota
	// SignatureSystemFailed means the receipt declares the signing
	// device was unavailable; the signature step is skipped entirely.
	SignatureSystemFailed
	// UnsignedNull means the receipt is a permitted unsigned zero-turnover
	// variant; the signature step is skipped entirely.
	UnsignedNull
)

// Result is the outcome of verifying one receipt.
type Result struct {
	Outcome   Outcome
	Receipt   *receipt.Receipt
	Algorithm algorithm.Algorithm
}

// Verifier verifies a single JWS-encoded receipt.
type Verifier interface {
	Verify(jws string) (*Result, error)
}

type verifier struct {
	registry *algorithm.Registry
	cert     *x509.Certificate // fixed-certificate mode; nil in key-store mode
	store    keystore.Store    // key-store mode; nil in fixed-certificate mode
}

// FromCert builds a Verifier that checks every receipt against a single,
// already-trusted certificate.
func FromCert(cert *x509.Certificate, registry *algorithm.Registry) Verifier {
	return &verifier{registry: registry, cert: cert}
}

// FromKeyStore builds a Verifier that resolves each receipt's declared
// certificate serial in store.
func FromKeyStore(store keystore.Store, registry *algorithm.Registry) Verifier {
	return &verifier{registry: registry, store: store}
}

func (v *verifier) Verify(jws string) (*Result, error) {
	r, err := receipt.Parse(jws)
	if err != nil {
		return nil, err
	}

	algo, err := v.registry.Get(r.AlgorithmPrefix)
	if err != nil {
		return nil, err
	}

	var hdr struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(r.Header, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", depverifyerr.ErrMalformedReceipt, err)
	}
	if hdr.Alg != algo.SignatureAlgorithmID() {
		return nil, fmt.Errorf("%w: header alg %q, algorithm %q expects %q",
			depverifyerr.ErrAlgorithmMismatch, hdr.Alg, r.AlgorithmPrefix, algo.SignatureAlgorithmID())
	}

	if r.IsSignedBroken() {
		return &Result{Outcome: SignatureSystemFailed, Receipt: r, Algorithm: algo}, nil
	}
	if r.IsUnsignedNull() {
		return &Result{Outcome: UnsignedNull, Receipt: r, Algorithm: algo}, nil
	}

	pub, err := v.resolvePublicKey(r)
	if err != nil {
		return nil, err
	}

	if err := algo.VerifySignature(pub, r.SigningInput, r.Signature); err != nil {
		return nil, fmt.Errorf("%w: %v", depverifyerr.ErrInvalidSignature, err)
	}

	return &Result{Outcome: Valid, Receipt: r, Algorithm: algo}, nil
}

func (v *verifier) resolvePublicKey(r *receipt.Receipt) (*ecdsa.PublicKey, error) {
	var cert *x509.Certificate
	if v.cert != nil {
		cert = v.cert
		if r.CertificateSerial != "" && keystore.CanonicalKeyID(cert.SerialNumber) != r.CertificateSerial {
			return nil, fmt.Errorf("%w: receipt declares %q, certificate is %q",
				depverifyerr.ErrCertificateSerialMismatch, r.CertificateSerial, keystore.CanonicalKeyID(cert.SerialNumber))
		}
	} else {
		cert = v.store.Get(r.CertificateSerial)
		if cert == nil {
			return nil, fmt.Errorf("%w: serial %q", depverifyerr.ErrNoPublicKeyAvailable, r.CertificateSerial)
		}
	}

	pub, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: certificate public key is not ECDSA", depverifyerr.ErrNoPublicKeyAvailable)
	}
	return pub, nil
}
