package interfaces

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ruteri/tee-integrity-proofs/cryptoutils"
)

// TEEResponse is the attestation returned by the TEE service: a signature
// over keccak256(VKey || PublicValues) made by the service's signer key.
type TEEResponse struct {
	VKey         VKey
	PublicValues []byte
	Signature    Signature
	RecoveryID   uint8
}

type teeResponseJSON struct {
	VKey         *VKey          `json:"vkey"`
	PublicValues *hexutil.Bytes `json:"public_values"`
	Signature    *Signature     `json:"signature"`
	RecoveryID   *uint8         `json:"recovery_id"`
}

func (r TEEResponse) MarshalJSON() ([]byte, error) {
	publicValues := nonNil(r.PublicValues)
	return json.Marshal(teeResponseJSON{
		VKey:         &r.VKey,
		PublicValues: &publicValues,
		Signature:    &r.Signature,
		RecoveryID:   &r.RecoveryID,
	})
}

func (r *TEEResponse) UnmarshalJSON(data []byte) error {
	var raw teeResponseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return malformed("response: %v", err)
	}
	if raw.VKey == nil || raw.PublicValues == nil || raw.Signature == nil || raw.RecoveryID == nil {
		return malformed("response: missing field")
	}

	r.VKey = *raw.VKey
	r.PublicValues = []byte(*raw.PublicValues)
	r.Signature = *raw.Signature
	r.RecoveryID = *raw.RecoveryID
	return nil
}

// Digest returns the message the TEE signer signed.
func (r *TEEResponse) Digest() common.Hash {
	return cryptoutils.Digest(r.VKey, r.PublicValues)
}

// RecoverableSignature pairs the signature with its recovery id.
func (r *TEEResponse) RecoverableSignature() RecoverableSignature {
	return RecoverableSignature{Signature: r.Signature, RecoveryID: r.RecoveryID}
}

// RecoverSigner returns the address of the key that signed the response.
func (r *TEEResponse) RecoverSigner() (common.Address, error) {
	return r.RecoverableSignature().RecoverAddress(r.Digest())
}

// Verify checks that the response was signed by trusted. It fails with
// ErrSignatureRecovery or ErrAddressMismatch and never mutates the response.
func (r *TEEResponse) Verify(trusted common.Address) error {
	return r.RecoverableSignature().VerifySigner(r.Digest(), trusted)
}

// PrefixBytes returns the 69-byte prefix to prepend to the encoded proof.
// The response must be verified first.
func (r *TEEResponse) PrefixBytes() []byte {
	return cryptoutils.EncodePrefix(r.RecoverableSignature())
}
