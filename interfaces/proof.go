package interfaces

import (
	"errors"
	"fmt"

	"github.com/ruteri/tee-integrity-proofs/cryptoutils"
)

// TEEProofType selects whether an integrity proof accompanies a proof.
type TEEProofType int

const (
	// TEEProofNone produces no integrity proof.
	TEEProofNone TEEProofType = iota
	// TEEProofNitroIntegrity obtains an integrity proof from a Nitro TEE signer.
	TEEProofNitroIntegrity
)

func (t TEEProofType) String() string {
	switch t {
	case TEEProofNone:
		return "none"
	case TEEProofNitroIntegrity:
		return "nitro-integrity"
	default:
		return fmt.Sprintf("TEEProofType(%d)", int(t))
	}
}

// ParseTEEProofType parses the String form of a TEEProofType.
func ParseTEEProofType(s string) (TEEProofType, error) {
	switch s {
	case "none", "":
		return TEEProofNone, nil
	case "nitro-integrity", "nitro":
		return TEEProofNitroIntegrity, nil
	default:
		return TEEProofNone, fmt.Errorf("unsupported tee proof type %q", s)
	}
}

// EncodeProof produces the bytes submitted to the on-chain verifier. With
// TEEProofNitroIntegrity the verified response's prefix is prepended to
// proof; with TEEProofNone proof is returned unchanged.
func EncodeProof(mode TEEProofType, resp *TEEResponse, proof []byte) ([]byte, error) {
	switch mode {
	case TEEProofNone:
		return proof, nil
	case TEEProofNitroIntegrity:
		if resp == nil {
			return nil, errors.New("nitro integrity proof requested without a tee response")
		}
		return cryptoutils.PrependPrefix(resp.RecoverableSignature(), proof), nil
	default:
		return nil, fmt.Errorf("unsupported tee proof type %s", mode)
	}
}
