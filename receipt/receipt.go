// Package receipt parses a JWS-encoded cash register receipt into its
// typed fields and exposes the classification predicates the
// verification core branches on (null, dummy, reversal, signed-broken).
//
// The wire payload is a JSON object rather than the semicolon-delimited
// "machine readable code" the original reference tool prints to a QR
// code; nothing in the regulation's verification rules depends on that
// specific text encoding, and a JSON payload is the idiomatic choice
// inside a JWS. See DESIGN.md (Open Question OQ-2).
package receipt

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rksv-go/depverify/depverifyerr"
)

// Turnover sentinel values carried in the payload's "turnover" field in
// place of a base64-encoded ciphertext.
const (
	sentinelSignatureSystemFailed = "SIGNATURE-SYSTEM-FAILED"
	sentinelUnsignedNull          = "UNSIGNED-NULL"
)

// Operator-tag suffixes marking non-standard receipt types. A zda value
// of "AT0-TRAINING" is a dummy receipt on a closed-system register, for
// example; the base tag ("AT0") still governs the open/closed-system
// check.
const (
	suffixDummy    = "TRAINING"
	suffixReversal = "STORNO"
)

// Receipt is an immutable, parsed view of one JWS-signed DEP entry.
type Receipt struct {
	AlgorithmPrefix   string
	ZDA               string
	RegisterID        string
	ReceiptID         string
	DateTime          time.Time
	SumACents         int64
	SumBCents         int64
	SumCCents         int64
	SumDCents         int64
	SumECents         int64
	TurnoverSentinel  string // "" for a normally encrypted counter
	EncryptedTurnover []byte // nil when TurnoverSentinel is set
	PreviousChain     []byte
	CertificateSerial string
	Signature         []byte

	Header        []byte
	SigningInput  string // "base64url(header).base64url(payload)", no padding
	Raw           string // the full compact JWS string
}

type payload struct {
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

type header struct {
	Alg string `json:"alg"`
}

// Parse decodes a compact JWS string into a Receipt. It does not verify
// the signature; that is verifyreceipt's job.
func Parse(jws string) (*Receipt, error) {
	parts := strings.Split(jws, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 dot-separated parts, got %d", depverifyerr.ErrMalformedReceipt, len(parts))
	}
	headerB64, payloadB64, sigB64 := parts[0], parts[1], parts[2]

	headerBytes, err := base64.RawURLEncoding.DecodeString(headerB64)
	if err != nil {
		return nil, fmt.Errorf("%w: header is not base64url: %v", depverifyerr.ErrMalformedReceipt, err)
	}
	var h header
	if err := json.Unmarshal(headerBytes, &h); err != nil {
		return nil, fmt.Errorf("%w: header is not JSON: %v", depverifyerr.ErrMalformedReceipt, err)
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not base64url: %v", depverifyerr.ErrMalformedReceipt, err)
	}
	var p payload
	if err := json.Unmarshal(payloadBytes, &p); err != nil {
		return nil, fmt.Errorf("%w: payload is not JSON: %v", depverifyerr.ErrMalformedReceipt, err)
	}

	sig, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return nil, fmt.Errorf("%w: signature is not base64url: %v", depverifyerr.ErrMalformedReceipt, err)
	}

	if p.AlgorithmPrefix == "" || p.RegisterID == "" || p.ReceiptID == "" {
		return nil, fmt.Errorf("%w: missing required field", depverifyerr.ErrMalformedReceipt)
	}

	r := &Receipt{
		AlgorithmPrefix:   p.AlgorithmPrefix,
		ZDA:               p.ZDA,
		RegisterID:        p.RegisterID,
		ReceiptID:         p.ReceiptID,
		CertificateSerial: p.CertificateSerial,
		Signature:         sig,
		Header:            headerBytes,
		SigningInput:      headerB64 + "." + payloadB64,
		Raw:               jws,
	}
	r.SumACents, err = parseCents(p.SumA)
	if err != nil {
		return nil, fmt.Errorf("%w: sumA: %v", depverifyerr.ErrMalformedReceipt, err)
	}
	r.SumBCents, err = parseCents(p.SumB)
	if err != nil {
		return nil, fmt.Errorf("%w: sumB: %v", depverifyerr.ErrMalformedReceipt, err)
	}
	r.SumCCents, err = parseCents(p.SumC)
	if err != nil {
		return nil, fmt.Errorf("%w: sumC: %v", depverifyerr.ErrMalformedReceipt, err)
	}
	r.SumDCents, err = parseCents(p.SumD)
	if err != nil {
		return nil, fmt.Errorf("%w: sumD: %v", depverifyerr.ErrMalformedReceipt, err)
	}
	r.SumECents, err = parseCents(p.SumE)
	if err != nil {
		return nil, fmt.Errorf("%w: sumE: %v", depverifyerr.ErrMalformedReceipt, err)
	}

	if p.DateTime != "" {
		r.DateTime, err = time.Parse(time.RFC3339, p.DateTime)
		if err != nil {
			return nil, fmt.Errorf("%w: dateTime: %v", depverifyerr.ErrMalformedReceipt, err)
		}
	}

	if p.PreviousChain != "" {
		r.PreviousChain, err = base64.StdEncoding.DecodeString(p.PreviousChain)
		if err != nil {
			return nil, fmt.Errorf("%w: previousChain: %v", depverifyerr.ErrMalformedReceipt, err)
		}
	}

	switch p.Turnover {
	case sentinelSignatureSystemFailed, sentinelUnsignedNull:
		r.TurnoverSentinel = p.Turnover
	default:
		if p.Turnover != "" {
			r.EncryptedTurnover, err = base64.StdEncoding.DecodeString(p.Turnover)
			if err != nil {
				return nil, fmt.Errorf("%w: turnover: %v", depverifyerr.ErrMalformedReceipt, err)
			}
		}
	}

	return r, nil
}

// parseCents parses a fixed-point decimal with up to two fractional
// digits (e.g. "100.00", "-25.5", "0") into integer cents.
func parseCents(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if !hasFrac {
		frac = "00"
	}
	switch len(frac) {
	case 0:
		frac = "00"
	case 1:
		frac += "0"
	case 2:
		// exact
	default:
		return 0, fmt.Errorf("too many fractional digits in %q", s)
	}
	wholeVal, err := strconv.ParseInt(whole, 10, 63)
	if err != nil {
		return 0, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	fracVal, err := strconv.ParseInt(frac, 10, 63)
	if err != nil {
		return 0, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	cents := wholeVal*100 + fracVal
	if neg {
		cents = -cents
	}
	return cents, nil
}

// baseZDA strips a dummy/reversal suffix from a zda value, e.g.
// "AT0-TRAINING" -> "AT0".
func (r *Receipt) baseZDA() string {
	base, _, _ := strings.Cut(r.ZDA, "-")
	return base
}

// IsClosedSystem reports whether this receipt's operator tag marks a
// closed (AT0) GGS system.
func (r *Receipt) IsClosedSystem() bool {
	return r.baseZDA() == "AT0"
}

// IsNull reports whether all five partitioned sums are zero.
func (r *Receipt) IsNull() bool {
	return r.SumACents == 0 && r.SumBCents == 0 && r.SumCCents == 0 && r.SumDCents == 0 && r.SumECents == 0
}

// IsDummy reports whether this is a training receipt.
func (r *Receipt) IsDummy() bool {
	_, suffix, ok := strings.Cut(r.ZDA, "-")
	return ok && suffix == suffixDummy
}

// IsReversal reports whether this is a cancellation (storno) receipt.
func (r *Receipt) IsReversal() bool {
	_, suffix, ok := strings.Cut(r.ZDA, "-")
	return ok && suffix == suffixReversal
}

// IsSignedBroken reports whether the encrypted-turnover field carries the
// "signature system failed" sentinel.
func (r *Receipt) IsSignedBroken() bool {
	return r.TurnoverSentinel == sentinelSignatureSystemFailed
}

// IsUnsignedNull reports whether the encrypted-turnover field carries the
// "unsigned null" sentinel, the other permitted unsigned variant.
func (r *Receipt) IsUnsignedNull() bool {
	return r.TurnoverSentinel == sentinelUnsignedNull
}

// SumCents returns the sum of all five partitioned sums, in cents.
func (r *Receipt) SumCents() int64 {
	return r.SumACents + r.SumBCents + r.SumCCents + r.SumDCents + r.SumECents
}
