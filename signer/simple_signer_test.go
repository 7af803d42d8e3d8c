package signer

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/tee-integrity-proofs/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleSigner_Deterministic(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, 32)

	s1, err := NewSimpleSigner(seed)
	require.NoError(t, err)
	s2, err := NewSimpleSigner(seed)
	require.NoError(t, err)
	assert.Equal(t, s1.Address(), s2.Address())

	_, err = NewSimpleSigner(seed[:16])
	assert.Error(t, err)
}

func TestSimpleSigner_SignVerifies(t *testing.T) {
	s, err := NewRandomSimpleSigner()
	require.NoError(t, err)

	publicValues := []byte("outputs")
	resp, err := s.Sign(interfaces.VKey{1}, publicValues)
	require.NoError(t, err)
	require.NoError(t, resp.Verify(s.Address()))

	publicValues[0] = 'X'
	assert.Equal(t, []byte("outputs"), resp.PublicValues, "response owns its public values")
}

func TestSimpleSigner_FromKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	s := NewSimpleSignerFromKey(key)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), s.Address())
}

func TestSimpleSigner_Rotate(t *testing.T) {
	s, err := NewSimpleSigner(bytes.Repeat([]byte{1}, 32))
	require.NoError(t, err)
	oldAddr := s.Address()

	before, err := s.Sign(interfaces.VKey{2}, []byte("v"))
	require.NoError(t, err)

	newAddr, err := s.Rotate(bytes.Repeat([]byte{2}, 32))
	require.NoError(t, err)
	assert.NotEqual(t, oldAddr, newAddr)
	assert.Equal(t, newAddr, s.Address())

	after, err := s.Sign(interfaces.VKey{2}, []byte("v"))
	require.NoError(t, err)

	require.NoError(t, before.Verify(oldAddr))
	assert.True(t, errors.Is(before.Verify(newAddr), interfaces.ErrAddressMismatch))
	require.NoError(t, after.Verify(newAddr))
}

func TestSimpleSigner_ConcurrentUse(t *testing.T) {
	s, err := NewRandomSimpleSigner()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := s.Sign(interfaces.VKey{byte(i)}, []byte{byte(i)})
			if assert.NoError(t, err) {
				_, err := resp.RecoverSigner()
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.Rotate(bytes.Repeat([]byte{9}, 32))
		assert.NoError(t, err)
	}()
	wg.Wait()
}

func TestEchoExecutor(t *testing.T) {
	result, err := EchoExecutor{}.Execute(context.Background(), []byte("p"), interfaces.Stdin("in"))
	require.NoError(t, err)
	assert.Equal(t, interfaces.VKey(crypto.Keccak256Hash([]byte("p"))), result.VKey)
	assert.Equal(t, []byte("in"), result.PublicValues)

	_, err = EchoExecutor{}.Execute(context.Background(), nil, nil)
	assert.True(t, errors.Is(err, ErrEmptyProgram))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = EchoExecutor{}.Execute(ctx, []byte("p"), nil)
	assert.True(t, errors.Is(err, context.Canceled))
}
