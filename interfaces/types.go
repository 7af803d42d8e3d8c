// Package interfaces defines the payloads exchanged with a TEE signing service
// and the contracts between the components that produce and consume them.
package interfaces

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ruteri/tee-integrity-proofs/cryptoutils"
)

type Signature = cryptoutils.Signature
type RecoverableSignature = cryptoutils.RecoverableSignature

// RequestID correlates a request with the events streamed back for it.
// Callers must keep it unique across their concurrently outstanding requests;
// nothing here enforces that.
type RequestID [32]byte

// NewRequestID returns a random request identifier.
func NewRequestID() (RequestID, error) {
	var id RequestID
	if _, err := rand.Read(id[:]); err != nil {
		return RequestID{}, fmt.Errorf("could not generate request id: %w", err)
	}
	return id, nil
}

// RequestIDFromHex parses a 64-character hex string, with or without 0x prefix.
func RequestIDFromHex(s string) (RequestID, error) {
	var id RequestID
	if err := decodeFixedHex(s, id[:]); err != nil {
		return RequestID{}, fmt.Errorf("invalid request id: %w", err)
	}
	return id, nil
}

// String returns the hex representation without 0x prefix.
func (id RequestID) String() string {
	return hex.EncodeToString(id[:])
}

func (id RequestID) MarshalText() ([]byte, error) {
	return hexutil.Bytes(id[:]).MarshalText()
}

func (id *RequestID) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("RequestID", input, id[:])
}

// VKey identifies the program whose execution is attested.
type VKey [32]byte

// VKeyFromHex parses a 64-character hex string, with or without 0x prefix.
func VKeyFromHex(s string) (VKey, error) {
	var vkey VKey
	if err := decodeFixedHex(s, vkey[:]); err != nil {
		return VKey{}, fmt.Errorf("invalid vkey: %w", err)
	}
	return vkey, nil
}

// String returns the 0x-prefixed hex representation.
func (vkey VKey) String() string {
	return hexutil.Encode(vkey[:])
}

func (vkey VKey) MarshalText() ([]byte, error) {
	return hexutil.Bytes(vkey[:]).MarshalText()
}

func (vkey *VKey) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("VKey", input, vkey[:])
}

// Stdin is the serialized input stream handed to the program. It is opaque
// to this module.
type Stdin []byte

func decodeFixedHex(s string, out []byte) error {
	clean := strings.TrimPrefix(s, "0x")
	if len(clean) != 2*len(out) {
		return fmt.Errorf("hex string must be %d characters", 2*len(out))
	}
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return fmt.Errorf("invalid hex format: %w", err)
	}
	if len(raw) != len(out) {
		return errors.New("unexpected decoded length")
	}
	copy(out, raw)
	return nil
}
