// Package depverifyerr defines the closed taxonomy of errors a DEP
// verification run can fail with. Receipt-scoped errors carry the
// offending receipt ID (and, for chaining errors, the prior JWS) for
// diagnostics; DEP-scoped errors describe a defect that is not
// attributable to a single receipt.
package depverifyerr

import (
	"errors"
	"fmt"
)

// DEP-scoped sentinel errors. These describe a defect in the run itself
// rather than in one specific receipt.
var (
	ErrClusterInOpenSystem             = errors.New("GGS cluster is not supported in an open system")
	ErrNoCertificateGiven              = errors.New("no certificate specified and multiple groups used")
	ErrUntrustedCertificate            = errors.New("certificate is not trusted")
	ErrCertificateSerialCollision      = errors.New("two certificates share a serial but differ in fingerprint")
	ErrCertificateChainBroken          = errors.New("certificate was not signed by the next certificate in the chain")
	ErrUnknownAlgorithm                = errors.New("unknown algorithm prefix")
	ErrAlgorithmMismatch               = errors.New("JWS header algorithm does not match the receipt's algorithm prefix")
	ErrMalformedReceipt                = errors.New("malformed receipt")
	ErrInvalidSignature                = errors.New("invalid receipt signature")
	ErrNoPublicKeyAvailable            = errors.New("no public key available to verify receipt")
	ErrCertificateSerialMismatch       = errors.New("receipt's declared certificate serial does not match the verifying certificate")
	ErrInvalidCashRegisterIndex        = errors.New("cash register index out of range")
	ErrNoStartReceiptForLastRegister   = errors.New("last cash register in the cluster has no recorded start receipt")
)

// Receipt-scoped sentinel errors. Wrap these with fmt.Errorf("%w: ...") or
// use the richer *ReceiptError / *ChainingError types below when the
// receipt ID needs to travel with the error.
var (
	ErrChaining                                   = errors.New("receipt is not correctly chained to its predecessor")
	ErrDuplicateReceiptID                         = errors.New("receipt ID already in use")
	ErrInvalidTurnoverCounter                     = errors.New("turnover counter invalid")
	ErrChangingRegisterID                         = errors.New("register ID changed mid-stream")
	ErrChangingSystemType                         = errors.New("system type (open/closed) changed mid-stream")
	ErrChangingTurnoverCounterSize                = errors.New("turnover counter size changed mid-stream")
	ErrNonzeroTurnoverOnInitialReceipt            = errors.New("initial receipt has nonzero turnover")
	ErrNonstandardTypeOnInitialReceipt            = errors.New("initial receipt is a dummy or reversal receipt")
	ErrInvalidChainingOnInitialReceipt            = errors.New("initial receipt is not chained to the register ID")
	ErrInvalidChainingOnClusterInitialReceipt     = errors.New("initial receipt is not chained to the previous register's start receipt")
	ErrSignatureSystemFailedOnInitialReceipt      = errors.New("initial receipt cannot be unsigned")
	ErrNoRestoreReceiptAfterSignatureSystemFailed = errors.New("no zero-turnover restore receipt followed the signature outage")
)

// ReceiptError attaches the offending receipt ID to one of the
// receipt-scoped sentinel errors above.
type ReceiptError struct {
	ReceiptID string
	Err       error
}

func (e *ReceiptError) Error() string {
	return fmt.Sprintf("at receipt %q: %v", e.ReceiptID, e.Err)
}

func (e *ReceiptError) Unwrap() error { return e.Err }

// AtReceipt wraps err as a ReceiptError carrying receiptID.
func AtReceipt(receiptID string, err error) error {
	return &ReceiptError{ReceiptID: receiptID, Err: err}
}

// ChainingError reports a broken hash chain, carrying both the offending
// receipt ID and the prior JWS it failed to chain against.
type ChainingError struct {
	ReceiptID string
	PriorJWS  string
}

func (e *ChainingError) Error() string {
	return fmt.Sprintf("at receipt %q: previous receipt is not %q", e.ReceiptID, e.PriorJWS)
}

func (e *ChainingError) Unwrap() error { return ErrChaining }

// CertificateChainBrokenError names the specific leaf/signer pair where a
// certificate chain walk failed.
type CertificateChainBrokenError struct {
	Leaf   string
	Signer string
}

func (e *CertificateChainBrokenError) Error() string {
	return fmt.Sprintf("certificate %q was not signed by %q", e.Leaf, e.Signer)
}

func (e *CertificateChainBrokenError) Unwrap() error { return ErrCertificateChainBroken }

// CertificateSerialCollisionError reports two certificates sharing a
// serial (key ID) but disagreeing on fingerprint, a possible spoofing
// attempt.
type CertificateSerialCollisionError struct {
	KeyID              string
	Fingerprint1       string
	Fingerprint2       string
}

func (e *CertificateSerialCollisionError) Error() string {
	return fmt.Sprintf(
		"two certificates with serial %q detected (fingerprints %q and %q); this may be an attempted attack",
		e.KeyID, e.Fingerprint1, e.Fingerprint2)
}

func (e *CertificateSerialCollisionError) Unwrap() error { return ErrCertificateSerialCollision }
