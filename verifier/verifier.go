package verifier

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/tee-integrity-proofs/interfaces"
)

// Verifier checks TEE responses against a trusted signer provider.
type Verifier struct {
	trusted interfaces.TrustedSignerProvider
}

// NewVerifier creates a verifier reading the trusted signer from trusted.
func NewVerifier(trusted interfaces.TrustedSignerProvider) *Verifier {
	return &Verifier{trusted: trusted}
}

// VerifiedResponse is a response whose signer matched the trusted address.
type VerifiedResponse struct {
	*interfaces.TEEResponse
	Signer common.Address
}

// Verify takes one snapshot of the trusted address and checks resp against
// it. It is safe for concurrent use.
func (v *Verifier) Verify(resp *interfaces.TEEResponse) (*VerifiedResponse, error) {
	trusted, err := v.trusted.TrustedSigner()
	if err != nil {
		return nil, err
	}
	if err := resp.Verify(trusted); err != nil {
		return nil, err
	}
	return &VerifiedResponse{TEEResponse: resp, Signer: trusted}, nil
}

// PrefixBytes returns the on-chain prefix of a verified response.
func (r *VerifiedResponse) PrefixBytes() []byte {
	return r.TEEResponse.PrefixBytes()
}

// EncodeProof prepends the integrity proof according to mode.
func (r *VerifiedResponse) EncodeProof(mode interfaces.TEEProofType, proof []byte) ([]byte, error) {
	return interfaces.EncodeProof(mode, r.TEEResponse, proof)
}
