package cryptoutils

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSignerKey(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, 32)

	k1, err := DeriveSignerKey(seed)
	require.NoError(t, err)
	k2, err := DeriveSignerKey(seed)
	require.NoError(t, err)
	assert.Equal(t, crypto.FromECDSA(k1), crypto.FromECDSA(k2))

	other, err := DeriveSignerKey(bytes.Repeat([]byte{0x43}, 32))
	require.NoError(t, err)
	assert.NotEqual(t, crypto.PubkeyToAddress(k1.PublicKey), crypto.PubkeyToAddress(other.PublicKey))

	_, err = DeriveSignerKey(seed[:31])
	assert.Error(t, err)
}
