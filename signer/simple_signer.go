package signer

import (
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/tee-integrity-proofs/cryptoutils"
	"github.com/ruteri/tee-integrity-proofs/interfaces"
)

// SimpleSigner signs execution results with a secp256k1 key held in memory.
// Keys are derived deterministically from a seed, so restarting with the same
// seed keeps the same signer address. Suitable for development and tests.
type SimpleSigner struct {
	mu  sync.RWMutex
	key *ecdsa.PrivateKey
}

// NewSimpleSigner derives the signer key from seed, which must be at least
// 32 bytes.
func NewSimpleSigner(seed []byte) (*SimpleSigner, error) {
	key, err := cryptoutils.DeriveSignerKey(seed)
	if err != nil {
		return nil, err
	}
	return &SimpleSigner{key: key}, nil
}

// NewSimpleSignerFromKey wraps an existing private key.
func NewSimpleSignerFromKey(key *ecdsa.PrivateKey) *SimpleSigner {
	return &SimpleSigner{key: key}
}

// NewRandomSimpleSigner generates a fresh key.
func NewRandomSimpleSigner() (*SimpleSigner, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("could not generate signer key: %w", err)
	}
	return &SimpleSigner{key: key}, nil
}

// Address returns the address of the current signer key.
func (s *SimpleSigner) Address() common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// Sign signs keccak256(vkey || publicValues).
func (s *SimpleSigner) Sign(vkey interfaces.VKey, publicValues []byte) (*interfaces.TEEResponse, error) {
	s.mu.RLock()
	key := s.key
	s.mu.RUnlock()

	sig, err := cryptoutils.SignDigest(cryptoutils.Digest(vkey, publicValues), key)
	if err != nil {
		return nil, err
	}

	return &interfaces.TEEResponse{
		VKey:         vkey,
		PublicValues: append([]byte{}, publicValues...),
		Signature:    sig.Signature,
		RecoveryID:   sig.RecoveryID,
	}, nil
}

// Rotate replaces the signer key with one derived from seed and returns the
// new address. Signatures already produced keep verifying only against the
// old address.
func (s *SimpleSigner) Rotate(seed []byte) (common.Address, error) {
	key, err := cryptoutils.DeriveSignerKey(seed)
	if err != nil {
		return common.Address{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
	return crypto.PubkeyToAddress(key.PublicKey), nil
}
