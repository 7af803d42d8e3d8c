package cryptoutils

import (
	"bytes"
	"errors"
	"fmt"
)

// PrefixLength is selector(4) || v(1) || r(32) || s(32).
const PrefixLength = SelectorLength + 1 + SignatureLength

// ErrNoPrefix is returned when a proof blob does not start with the TEE
// verifier selector.
var ErrNoPrefix = errors.New("proof does not carry a tee prefix")

// EncodePrefix serializes sig into the 69-byte prefix understood by the
// on-chain TEE verifier. It does not validate the signature; callers verify
// before encoding.
func EncodePrefix(sig RecoverableSignature) []byte {
	prefix := make([]byte, 0, PrefixLength)
	prefix = append(prefix, teeVerifierSelector[:]...)
	prefix = append(prefix, sig.RecoveryID)
	prefix = append(prefix, sig.R[:]...)
	return append(prefix, sig.S[:]...)
}

// DecodePrefix parses a 69-byte prefix. The recovery id is returned as found.
func DecodePrefix(prefix []byte) (RecoverableSignature, error) {
	if len(prefix) != PrefixLength {
		return RecoverableSignature{}, fmt.Errorf("invalid prefix length %d, expected %d", len(prefix), PrefixLength)
	}
	if !bytes.Equal(prefix[:SelectorLength], teeVerifierSelector[:]) {
		return RecoverableSignature{}, fmt.Errorf("%w: selector %x", ErrNoPrefix, prefix[:SelectorLength])
	}

	var sig RecoverableSignature
	sig.RecoveryID = prefix[SelectorLength]
	copy(sig.R[:], prefix[SelectorLength+1:SelectorLength+33])
	copy(sig.S[:], prefix[SelectorLength+33:])
	return sig, nil
}

// PrependPrefix returns EncodePrefix(sig) || proof in a fresh slice.
func PrependPrefix(sig RecoverableSignature, proof []byte) []byte {
	out := make([]byte, 0, PrefixLength+len(proof))
	out = append(out, EncodePrefix(sig)...)
	return append(out, proof...)
}

// SplitPrefix separates a TEE prefix from the proof that follows it.
func SplitPrefix(blob []byte) (RecoverableSignature, []byte, error) {
	if len(blob) < PrefixLength {
		return RecoverableSignature{}, nil, fmt.Errorf("%w: blob is %d bytes", ErrNoPrefix, len(blob))
	}
	sig, err := DecodePrefix(blob[:PrefixLength])
	if err != nil {
		return RecoverableSignature{}, nil, err
	}
	return sig, blob[PrefixLength:], nil
}
