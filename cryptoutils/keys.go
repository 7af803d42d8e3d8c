package cryptoutils

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/hkdf"
)

// signerKeyInfo binds derived keys to their purpose.
const signerKeyInfo = "tee-integrity-signer-v1"

// maxDerivationAttempts bounds the search for a valid secp256k1 scalar. The
// probability of needing more than one attempt is about 2^-128.
const maxDerivationAttempts = 16

// DeriveSignerKey deterministically derives a secp256k1 signing key from seed
// using HKDF-SHA256. The seed must be at least 32 bytes.
func DeriveSignerKey(seed []byte) (*ecdsa.PrivateKey, error) {
	if len(seed) < 32 {
		return nil, errors.New("signer seed must be at least 32 bytes")
	}

	kdf := hkdf.New(sha256.New, seed, nil, []byte(signerKeyInfo))
	candidate := make([]byte, 32)
	for i := 0; i < maxDerivationAttempts; i++ {
		if _, err := io.ReadFull(kdf, candidate); err != nil {
			return nil, fmt.Errorf("could not read derived key material: %w", err)
		}
		key, err := crypto.ToECDSA(candidate)
		if err == nil {
			return key, nil
		}
	}
	return nil, errors.New("could not derive a valid signer key")
}
