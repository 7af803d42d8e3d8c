package signer

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/tee-integrity-proofs/interfaces"
)

// ErrEmptyProgram is reported by EchoExecutor for an empty program.
var ErrEmptyProgram = errors.New("empty program")

// EchoExecutor stands in for real in-enclave execution during development:
// the vkey is keccak256(program) and the public values are the stdin bytes.
type EchoExecutor struct{}

func (EchoExecutor) Execute(ctx context.Context, program []byte, stdin interfaces.Stdin) (*interfaces.ExecutionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(program) == 0 {
		return nil, ErrEmptyProgram
	}

	return &interfaces.ExecutionResult{
		VKey:         interfaces.VKey(crypto.Keccak256Hash(program)),
		PublicValues: append([]byte{}, stdin...),
	}, nil
}
