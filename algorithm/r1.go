package algorithm

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/rksv-go/depverify/rkcrypto"
)

// R1 is the "R1" algorithm: SHA-256 chaining, ECDSA-P256 (JWS ES256)
// signatures, AES-256-CTR turnover counter encryption.
type R1 struct{}

func (R1) Prefix() string               { return "R1" }
func (R1) JWSHeader() string            { return `{"alg":"ES256"}` }
func (R1) SignatureAlgorithmID() string { return "ES256" }
func (R1) ChainByteCount() int          { return 8 }

func (R1) Hash(data []byte) []byte {
	return rkcrypto.SHA256(data)
}

// Chain hashes the previous receipt's full JWS, or the register ID for
// the register's first receipt, and truncates to ChainByteCount bytes.
func (a R1) Chain(previousJWS, registerID string) []byte {
	var digest []byte
	if previousJWS != "" {
		digest = a.Hash([]byte(previousJWS))
	} else {
		digest = a.Hash([]byte(registerID))
	}
	return digest[:a.ChainByteCount()]
}

func (R1) Sign(priv *ecdsa.PrivateKey, signingInput string) ([]byte, error) {
	return rkcrypto.SignES256(priv, signingInput)
}

func (R1) VerifySignature(pub *ecdsa.PublicKey, signingInput string, sig []byte) error {
	return rkcrypto.VerifyES256(pub, signingInput, sig)
}

func (R1) ValidateKey(key []byte) bool {
	return len(key) == 32
}

// turnoverIV derives the AES-CTR initialization vector bound to a
// specific receipt: the first 16 bytes of SHA-256(registerID || receiptID).
func (a R1) turnoverIV(registerID, receiptID string) []byte {
	digest := a.Hash([]byte(registerID + receiptID))
	return digest[:16]
}

func (a R1) EncryptTurnoverCounter(registerID, receiptID string, counter int64, key []byte, size int) ([]byte, error) {
	plaintext, err := rkcrypto.EncodeSignedBigEndian(big.NewInt(counter), size)
	if err != nil {
		return nil, err
	}
	return rkcrypto.AESCTR(a.turnoverIV(registerID, receiptID), key, plaintext)
}

func (a R1) DecryptTurnoverCounter(registerID, receiptID string, enc []byte, key []byte) (int64, error) {
	plaintext, err := rkcrypto.AESCTR(a.turnoverIV(registerID, receiptID), key, enc)
	if err != nil {
		return 0, err
	}
	return rkcrypto.DecodeSignedBigEndian(plaintext).Int64(), nil
}
