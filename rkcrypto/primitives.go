// Package rkcrypto binds the low level cryptographic primitives the
// verification core depends on: SHA-256, AES-256-CTR, ECDSA-P256 and the
// X.509 checks needed to walk a certificate chain to a trusted anchor.
package rkcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"math/big"

	"github.com/golang-jwt/jwt/v5"
)

// SHA256 hashes data and returns the 32 byte digest.
func SHA256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// AESCTR runs AES-256-CTR over input with the given key and IV. CTR mode is
// its own inverse, so this function is used for both encryption and
// decryption of the turnover counter.
func AESCTR(iv, key, input []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes256ctr: %w", err)
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("aes256ctr: iv must be %d bytes, got %d", block.BlockSize(), len(iv))
	}
	out := make([]byte, len(input))
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(out, input)
	return out, nil
}

// SignES256 signs signingInput (the JWS "header.payload" string) with an
// ECDSA P-256 private key, producing a raw (r||s) JWS signature.
func SignES256(priv *ecdsa.PrivateKey, signingInput string) ([]byte, error) {
	return jwt.SigningMethodES256.Sign(signingInput, priv)
}

// VerifyES256 checks a raw (r||s) JWS signature against signingInput.
func VerifyES256(pub *ecdsa.PublicKey, signingInput string, sig []byte) error {
	return jwt.SigningMethodES256.Verify(signingInput, sig, pub)
}

// X509Verify reports whether child was signed by parent. parent must be a
// CA certificate (basic constraints present with IsCA set); otherwise an
// error is returned even when parent's key produced the signature.
func X509Verify(child, parent *x509.Certificate) error {
	return child.CheckSignatureFrom(parent)
}

// X509Fingerprint returns the SHA-256 fingerprint of a certificate's raw DER
// encoding, used to detect serial collisions between an untrusted chain and
// the key store.
func X509Fingerprint(cert *x509.Certificate) [32]byte {
	return sha256.Sum256(cert.Raw)
}

// EncodeSignedBigEndian renders v as a two's-complement big-endian integer
// occupying exactly size bytes. It returns an error if v does not fit.
func EncodeSignedBigEndian(v *big.Int, size int) ([]byte, error) {
	if size < 1 {
		return nil, fmt.Errorf("rkcrypto: size must be positive, got %d", size)
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(size*8-1))
	negLimit := new(big.Int).Neg(limit)
	if v.Cmp(limit) >= 0 || v.Cmp(negLimit) < 0 {
		return nil, fmt.Errorf("rkcrypto: value %s does not fit in %d signed bytes", v, size)
	}

	uv := new(big.Int)
	if v.Sign() < 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(size*8))
		uv.Add(mod, v)
	} else {
		uv.Set(v)
	}

	out := make([]byte, size)
	b := uv.Bytes()
	copy(out[size-len(b):], b)
	return out, nil
}

// DecodeSignedBigEndian interprets b as a two's-complement big-endian
// integer.
func DecodeSignedBigEndian(b []byte) *big.Int {
	size := len(b)
	uv := new(big.Int).SetBytes(b)
	if size == 0 {
		return uv
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(size*8-1))
	if uv.Cmp(limit) >= 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(size*8))
		uv.Sub(uv, mod)
	}
	return uv
}
