package cryptoutils

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// VerifierDomain is the domain-separation string whose keccak256 hash yields
// the TEE verifier selector.
const VerifierDomain = "SP1TeeVerifier"

// SelectorLength is the size of a function-dispatch style selector.
const SelectorLength = 4

var teeVerifierSelector = computeSelector(VerifierDomain)

func computeSelector(domain string) [SelectorLength]byte {
	var selector [SelectorLength]byte
	copy(selector[:], crypto.Keccak256([]byte(domain))[:SelectorLength])
	return selector
}

// Selector returns keccak256("SP1TeeVerifier")[0:4]. The value is computed once
// at package initialization.
func Selector() [SelectorLength]byte {
	return teeVerifierSelector
}

// Digest returns keccak256(vkey || publicValues), the message signed by the
// TEE signer. Both sides must compute it with this exact layout.
func Digest(vkey [32]byte, publicValues []byte) common.Hash {
	return crypto.Keccak256Hash(vkey[:], publicValues)
}
