// Package onchain dry-runs integrity-prefixed proofs against a deployed
// verifier contract.
package onchain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/tee-integrity-proofs/interfaces"
)

// VerifierABI is the verifier gateway method used for dry runs. The call
// reverts when the proof is rejected and returns nothing otherwise.
const VerifierABI = `[{
	"type": "function",
	"name": "verifyProof",
	"stateMutability": "view",
	"inputs": [
		{"name": "programVKey", "type": "bytes32"},
		{"name": "publicValues", "type": "bytes"},
		{"name": "proofBytes", "type": "bytes"}
	],
	"outputs": []
}]`

const verifyProofMethod = "verifyProof"

// ErrProofRejected is returned when the verifier call reverts.
var ErrProofRejected = errors.New("proof rejected by onchain verifier")

var parsedVerifierABI = mustParseABI(VerifierABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// VerifierClient calls verifyProof on a deployed verifier.
type VerifierClient struct {
	contract *bind.BoundContract
	address  common.Address
}

// NewVerifierClient binds the verifier at address. Only eth_call is used,
// so no transactor or filterer is needed.
func NewVerifierClient(caller bind.ContractCaller, address common.Address) *VerifierClient {
	return &VerifierClient{
		contract: bind.NewBoundContract(address, parsedVerifierABI, caller, nil, nil),
		address:  address,
	}
}

func (c *VerifierClient) Address() common.Address {
	return c.address
}

// VerifyProof performs an eth_call of verifyProof(vkey, publicValues,
// proofBytes) against the latest block. proofBytes is passed as is and is
// expected to carry the integrity prefix when the verifier requires one.
func (c *VerifierClient) VerifyProof(ctx context.Context, vkey interfaces.VKey, publicValues, proofBytes []byte) error {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, verifyProofMethod, [32]byte(vkey), publicValues, proofBytes)
	if errors.Is(err, bind.ErrNoCode) {
		return fmt.Errorf("no verifier contract at %s: %w", c.address.Hex(), err)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProofRejected, err)
	}
	return nil
}

// PackVerifyProof returns the calldata VerifyProof sends.
func PackVerifyProof(vkey interfaces.VKey, publicValues, proofBytes []byte) ([]byte, error) {
	return parsedVerifierABI.Pack(verifyProofMethod, [32]byte(vkey), publicValues, proofBytes)
}
