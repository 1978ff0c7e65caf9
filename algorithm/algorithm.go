// Package algorithm models the RKSV algorithm capability set as a small
// registry keyed by algorithm prefix ("R1", ...), the way
// massifs/cose.PublicKeyProvider models COSE signing capability behind
// a small set of provider interfaces.
package algorithm

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/rksv-go/depverify/depverifyerr"
)

// Algorithm is the capability set a receipt's algorithm_prefix must
// resolve to: hashing, chain construction, signing, turnover counter
// encryption and key validation.
type Algorithm interface {
	// Prefix is the algorithm code as it appears in a receipt, e.g. "R1".
	Prefix() string

	// JWSHeader is the literal JWS protected header used when signing a
	// receipt with this algorithm.
	JWSHeader() string

	// SignatureAlgorithmID is the JWS "alg" value this algorithm expects,
	// e.g. "ES256".
	SignatureAlgorithmID() string

	// ChainByteCount is the number of leading hash bytes carried in a
	// receipt's previous_chain field.
	ChainByteCount() int

	// Hash hashes data with this algorithm's hash function.
	Hash(data []byte) []byte

	// Chain computes the chaining value for a receipt whose predecessor's
	// full JWS is previousJWS (or none, for the first receipt of a
	// register identified by registerID).
	Chain(previousJWS, registerID string) []byte

	// Sign produces a raw JWS signature over signingInput.
	Sign(priv *ecdsa.PrivateKey, signingInput string) ([]byte, error)

	// VerifySignature checks a raw JWS signature over signingInput.
	VerifySignature(pub *ecdsa.PublicKey, signingInput string, sig []byte) error

	// ValidateKey reports whether key is a valid turnover-counter
	// symmetric key for this algorithm.
	ValidateKey(key []byte) bool

	// EncryptTurnoverCounter encrypts a running turnover counter (in
	// cents) into a size-byte ciphertext bound to registerID/receiptID.
	EncryptTurnoverCounter(registerID, receiptID string, counter int64, key []byte, size int) ([]byte, error)

	// DecryptTurnoverCounter reverses EncryptTurnoverCounter. The
	// plaintext size is taken from len(enc).
	DecryptTurnoverCounter(registerID, receiptID string, enc []byte, key []byte) (int64, error)
}

// Registry resolves an algorithm prefix to its Algorithm implementation.
type Registry struct {
	algorithms map[string]Algorithm
}

// NewRegistry builds a registry from the given algorithms, keyed by their
// own Prefix().
func NewRegistry(algorithms ...Algorithm) *Registry {
	r := &Registry{algorithms: make(map[string]Algorithm, len(algorithms))}
	for _, a := range algorithms {
		r.algorithms[a.Prefix()] = a
	}
	return r
}

// DefaultRegistry returns a registry containing the algorithms this
// module ships: currently just "R1".
func DefaultRegistry() *Registry {
	return NewRegistry(R1{})
}

// Get resolves prefix to its Algorithm, or ErrUnknownAlgorithm.
func (r *Registry) Get(prefix string) (Algorithm, error) {
	a, ok := r.algorithms[prefix]
	if !ok {
		return nil, fmt.Errorf("%w: %q", depverifyerr.ErrUnknownAlgorithm, prefix)
	}
	return a, nil
}

// Register adds or replaces an algorithm in the registry, keyed by its
// own Prefix(). This is how a deployment plugs in a new algorithm code
// without touching the verification core.
func (r *Registry) Register(a Algorithm) {
	r.algorithms[a.Prefix()] = a
}
