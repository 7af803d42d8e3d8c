package interfaces

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/tee-integrity-proofs/cryptoutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedResponse(t *testing.T, key *ecdsa.PrivateKey, vkey VKey, publicValues []byte) *TEEResponse {
	t.Helper()
	sig, err := cryptoutils.SignDigest(cryptoutils.Digest(vkey, publicValues), key)
	require.NoError(t, err)
	return &TEEResponse{
		VKey:         vkey,
		PublicValues: publicValues,
		Signature:    sig.Signature,
		RecoveryID:   sig.RecoveryID,
	}
}

func TestTEEResponse_SignedByTestKey(t *testing.T) {
	key, err := crypto.HexToECDSA("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	req := TEERequest{ID: RequestID{}, Program: []byte("p"), Stdin: Stdin("")}
	require.Equal(t, RequestID{}, req.ID)

	vkey := VKey(crypto.Keccak256Hash(req.Program))
	publicValues := []byte("public output")
	resp := signedResponse(t, key, vkey, publicValues)

	recovered, err := resp.RecoverSigner()
	require.NoError(t, err)
	assert.Equal(t, signer, recovered)
	require.NoError(t, resp.Verify(signer))

	prefix := resp.PrefixBytes()
	require.Len(t, prefix, 69)
	assert.Equal(t, crypto.Keccak256([]byte("SP1TeeVerifier"))[:4], prefix[:4])
	assert.Equal(t, resp.RecoveryID, prefix[4])
}

func TestTEEResponse_VerifyFailures(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)
	resp := signedResponse(t, key, VKey{1}, []byte{2})

	err = resp.Verify(common.HexToAddress("0x0000000000000000000000000000000000000001"))
	assert.True(t, errors.Is(err, ErrAddressMismatch))

	bad := *resp
	bad.RecoveryID = 4
	err = bad.Verify(signer)
	assert.True(t, errors.Is(err, ErrSignatureRecovery))

	tampered := *resp
	tampered.PublicValues = []byte{3}
	err = tampered.Verify(signer)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrAddressMismatch) || errors.Is(err, ErrSignatureRecovery))

	require.NoError(t, resp.Verify(signer), "verification must not mutate the response")
}

func TestGetAddressResponse_JSON(t *testing.T) {
	addr := common.HexToAddress("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf")

	encoded, err := json.Marshal(GetAddressResponse{Address: addr})
	require.NoError(t, err)
	assert.JSONEq(t, `{"address":"0x7e5f4552091a69125d5dfcb7b8c2659029395bdf"}`, string(encoded))

	var decoded GetAddressResponse
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, addr, decoded.Address)

	for _, input := range []string{`{}`, `{"address":"0x1234"}`, `{"address":"0x0000000000000000000000000000000000000000"}`} {
		err := json.Unmarshal([]byte(input), &decoded)
		assert.True(t, errors.Is(err, ErrMalformedPayload), input)
	}
}
