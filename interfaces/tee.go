package interfaces

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// ExecutionResult is what an executor reports for a program run.
type ExecutionResult struct {
	VKey         VKey
	PublicValues []byte
}

// Executor runs a program on its input inside the TEE. How execution
// happens is outside this module.
type Executor interface {
	Execute(ctx context.Context, program []byte, stdin Stdin) (*ExecutionResult, error)
}

// IntegritySigner signs execution results with the TEE signer key.
type IntegritySigner interface {
	// Address returns the current signer address.
	Address() common.Address

	// Sign produces a response over keccak256(vkey || publicValues).
	Sign(vkey VKey, publicValues []byte) (*TEEResponse, error)
}

// SignerAddressSource returns the TEE service's current signer address, as
// served by its address endpoint.
type SignerAddressSource interface {
	GetAddress(ctx context.Context) (*GetAddressResponse, error)
}

// TrustedSignerProvider returns the signer address verification is checked
// against.
type TrustedSignerProvider interface {
	TrustedSigner() (common.Address, error)
}
