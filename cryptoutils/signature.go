package cryptoutils

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrSignatureRecovery is returned when no public key can be recovered from
	// a signature, either because (r, s) is malformed or the recovery id is
	// outside {0, 1}.
	ErrSignatureRecovery = errors.New("signature recovery failed")

	// ErrAddressMismatch is returned when recovery succeeds but yields an
	// address other than the trusted signer.
	ErrAddressMismatch = errors.New("recovered signer does not match trusted signer")
)

// AddressMismatchError carries both addresses involved in a failed comparison.
// It matches ErrAddressMismatch with errors.Is.
type AddressMismatchError struct {
	Expected  common.Address
	Recovered common.Address
}

func (e *AddressMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, recovered %s", ErrAddressMismatch, e.Expected.Hex(), e.Recovered.Hex())
}

func (e *AddressMismatchError) Is(target error) bool {
	return target == ErrAddressMismatch
}

// SignatureLength is the size of the raw (r, s) pair.
const SignatureLength = 64

// Signature is a secp256k1 ECDSA signature without its recovery id.
type Signature struct {
	R [32]byte
	S [32]byte
}

// SignatureFromBytes parses a raw 64-byte r || s signature.
func SignatureFromBytes(raw []byte) (Signature, error) {
	if len(raw) != SignatureLength {
		return Signature{}, fmt.Errorf("invalid signature length %d, expected %d", len(raw), SignatureLength)
	}

	var sig Signature
	copy(sig.R[:], raw[:32])
	copy(sig.S[:], raw[32:])
	return sig, nil
}

// Bytes returns r || s.
func (sig Signature) Bytes() []byte {
	raw := make([]byte, 0, SignatureLength)
	raw = append(raw, sig.R[:]...)
	return append(raw, sig.S[:]...)
}

type signatureJSON struct {
	R hexutil.Bytes `json:"r"`
	S hexutil.Bytes `json:"s"`
}

func (sig Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(signatureJSON{R: sig.R[:], S: sig.S[:]})
}

func (sig *Signature) UnmarshalJSON(data []byte) error {
	var raw signatureJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.R) != 32 || len(raw.S) != 32 {
		return fmt.Errorf("invalid signature component lengths r=%d s=%d", len(raw.R), len(raw.S))
	}
	copy(sig.R[:], raw.R)
	copy(sig.S[:], raw.S)
	return nil
}

// RecoverableSignature is a signature together with the recovery id selecting
// which of the two candidate public keys it recovers to. Only the pair has
// cryptographic meaning, so recovery and serialization live on this type.
type RecoverableSignature struct {
	Signature
	RecoveryID uint8
}

// Bytes returns r || s || v, the 65-byte layout used by go-ethereum.
func (sig RecoverableSignature) Bytes() []byte {
	return append(sig.Signature.Bytes(), sig.RecoveryID)
}

// RecoverPublicKey recovers the signer public key from digest.
func (sig RecoverableSignature) RecoverPublicKey(digest common.Hash) (*ecdsa.PublicKey, error) {
	if sig.RecoveryID > 1 {
		return nil, fmt.Errorf("%w: recovery id %d out of range", ErrSignatureRecovery, sig.RecoveryID)
	}

	r := new(big.Int).SetBytes(sig.R[:])
	s := new(big.Int).SetBytes(sig.S[:])
	if !crypto.ValidateSignatureValues(sig.RecoveryID, r, s, false) {
		return nil, fmt.Errorf("%w: signature values out of range", ErrSignatureRecovery)
	}

	pubkey, err := crypto.SigToPub(digest[:], sig.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSignatureRecovery, err)
	}
	return pubkey, nil
}

// RecoverAddress recovers the address of the key that produced the signature
// over digest.
func (sig RecoverableSignature) RecoverAddress(digest common.Hash) (common.Address, error) {
	pubkey, err := sig.RecoverPublicKey(digest)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pubkey), nil
}

// VerifySigner checks that the signature over digest was produced by trusted.
func (sig RecoverableSignature) VerifySigner(digest common.Hash, trusted common.Address) error {
	recovered, err := sig.RecoverAddress(digest)
	if err != nil {
		return err
	}
	if recovered != trusted {
		return &AddressMismatchError{Expected: trusted, Recovered: recovered}
	}
	return nil
}

// SignDigest produces a recoverable signature over digest with key.
func SignDigest(digest common.Hash, key *ecdsa.PrivateKey) (RecoverableSignature, error) {
	raw, err := crypto.Sign(digest[:], key)
	if err != nil {
		return RecoverableSignature{}, fmt.Errorf("could not sign digest: %w", err)
	}

	sig, err := SignatureFromBytes(raw[:SignatureLength])
	if err != nil {
		return RecoverableSignature{}, err
	}
	return RecoverableSignature{Signature: sig, RecoveryID: raw[SignatureLength]}, nil
}
