package cryptoutils

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePrefix_Layout(t *testing.T) {
	key, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)

	sig, err := SignDigest(Digest(testVKey(), []byte("out")), key)
	require.NoError(t, err)

	prefix := EncodePrefix(sig)
	require.Len(t, prefix, 69)
	require.Equal(t, PrefixLength, len(prefix))

	selector := Selector()
	assert.Equal(t, selector[:], prefix[0:4])
	assert.Equal(t, sig.RecoveryID, prefix[4])
	assert.Equal(t, sig.R[:], prefix[5:37])
	assert.Equal(t, sig.S[:], prefix[37:69])
}

func TestEncodePrefix_NoValidation(t *testing.T) {
	prefix := EncodePrefix(RecoverableSignature{RecoveryID: 7})
	require.Len(t, prefix, 69)
	assert.Equal(t, byte(7), prefix[4])
}

func TestDecodePrefix(t *testing.T) {
	sig := RecoverableSignature{Signature: Signature{R: [32]byte{1, 2, 3}, S: [32]byte{4, 5, 6}}, RecoveryID: 1}

	decoded, err := DecodePrefix(EncodePrefix(sig))
	require.NoError(t, err)
	assert.Equal(t, sig, decoded)

	_, err = DecodePrefix(EncodePrefix(sig)[:68])
	assert.Error(t, err)

	corrupted := EncodePrefix(sig)
	corrupted[0] ^= 0xff
	_, err = DecodePrefix(corrupted)
	assert.True(t, errors.Is(err, ErrNoPrefix))
}

func TestPrependAndSplitPrefix(t *testing.T) {
	sig := RecoverableSignature{Signature: Signature{R: [32]byte{9}, S: [32]byte{8}}, RecoveryID: 0}
	proof := []byte{0xde, 0xad, 0xbe, 0xef}

	blob := PrependPrefix(sig, proof)
	require.Len(t, blob, 69+len(proof))

	gotSig, gotProof, err := SplitPrefix(blob)
	require.NoError(t, err)
	assert.Equal(t, sig, gotSig)
	assert.Equal(t, proof, gotProof)

	_, _, err = SplitPrefix(proof)
	assert.True(t, errors.Is(err, ErrNoPrefix))

	gotSig, gotProof, err = SplitPrefix(PrependPrefix(sig, nil))
	require.NoError(t, err)
	assert.Equal(t, sig, gotSig)
	assert.Empty(t, gotProof)
}
