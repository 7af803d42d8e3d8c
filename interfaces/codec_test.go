package interfaces

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResponse(publicValues []byte) TEEResponse {
	return TEEResponse{
		VKey:         VKey{1, 2, 3, 31: 4},
		PublicValues: publicValues,
		Signature:    Signature{R: [32]byte{5, 31: 6}, S: [32]byte{7, 31: 8}},
		RecoveryID:   1,
	}
}

func payloadCases() map[string][]byte {
	return map[string][]byte{
		"empty": {},
		"small": []byte("p"),
		"large": bytes.Repeat([]byte{0xa5, 0x5a, 0x00}, 1<<16),
	}
}

func TestTEERequest_RoundTrip(t *testing.T) {
	for name, payload := range payloadCases() {
		t.Run(name, func(t *testing.T) {
			req := TEERequest{
				ID:      RequestID{9, 31: 9},
				Program: payload,
				Stdin:   Stdin(append([]byte("in:"), payload...)),
			}

			encoded, err := json.Marshal(req)
			require.NoError(t, err)
			var fromJSON TEERequest
			require.NoError(t, json.Unmarshal(encoded, &fromJSON))
			assert.Equal(t, req.ID, fromJSON.ID)
			assert.True(t, bytes.Equal(req.Program, fromJSON.Program))
			assert.True(t, bytes.Equal(req.Stdin, fromJSON.Stdin))

			raw, err := req.MarshalBinary()
			require.NoError(t, err)
			var fromBinary TEERequest
			require.NoError(t, fromBinary.UnmarshalBinary(raw))
			assert.Equal(t, req.ID, fromBinary.ID)
			assert.True(t, bytes.Equal(req.Program, fromBinary.Program))
			assert.True(t, bytes.Equal(req.Stdin, fromBinary.Stdin))
		})
	}
}

func TestTEERequest_JSONShape(t *testing.T) {
	req := TEERequest{Program: []byte("p")}

	encoded, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "0x0000000000000000000000000000000000000000000000000000000000000000",
		"program": "0x70",
		"stdin": "0x"
	}`, string(encoded))
}

func TestTEEResponse_RoundTrip(t *testing.T) {
	for name, payload := range payloadCases() {
		t.Run(name, func(t *testing.T) {
			resp := sampleResponse(payload)

			encoded, err := json.Marshal(resp)
			require.NoError(t, err)
			var fromJSON TEEResponse
			require.NoError(t, json.Unmarshal(encoded, &fromJSON))
			assert.Equal(t, resp.VKey, fromJSON.VKey)
			assert.True(t, bytes.Equal(resp.PublicValues, fromJSON.PublicValues))
			assert.Equal(t, resp.Signature, fromJSON.Signature)
			assert.Equal(t, resp.RecoveryID, fromJSON.RecoveryID)

			raw, err := resp.MarshalBinary()
			require.NoError(t, err)
			assert.Len(t, raw, 32+8+len(payload)+64+1)
			var fromBinary TEEResponse
			require.NoError(t, fromBinary.UnmarshalBinary(raw))
			assert.Equal(t, resp.VKey, fromBinary.VKey)
			assert.True(t, bytes.Equal(resp.PublicValues, fromBinary.PublicValues))
			assert.Equal(t, resp.Signature, fromBinary.Signature)
			assert.Equal(t, resp.RecoveryID, fromBinary.RecoveryID)
		})
	}
}

func TestTEEResponse_MalformedJSON(t *testing.T) {
	testCases := map[string]string{
		"not json":          `{`,
		"missing signature": `{"vkey":"0x0000000000000000000000000000000000000000000000000000000000000000","public_values":"0x","recovery_id":0}`,
		"short vkey":        `{"vkey":"0x00","public_values":"0x","signature":{"r":"0x00","s":"0x00"},"recovery_id":0}`,
		"recovery id overflow": `{"vkey":"0x0000000000000000000000000000000000000000000000000000000000000000","public_values":"0x",` +
			`"signature":{"r":"0x0000000000000000000000000000000000000000000000000000000000000000","s":"0x0000000000000000000000000000000000000000000000000000000000000000"},"recovery_id":256}`,
		"null": `null`,
	}

	for name, input := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeTEEResponse([]byte(input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedPayload), err.Error())
		})
	}
}

func TestBinary_Malformed(t *testing.T) {
	resp := sampleResponse([]byte("values"))
	raw, err := resp.MarshalBinary()
	require.NoError(t, err)

	var decoded TEEResponse
	err = decoded.UnmarshalBinary(raw[:len(raw)-1])
	assert.True(t, errors.Is(err, ErrMalformedPayload))

	err = decoded.UnmarshalBinary(append(raw, 0))
	assert.True(t, errors.Is(err, ErrMalformedPayload))

	var req TEERequest
	hugeLength := append(make([]byte, 32), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
	err = req.UnmarshalBinary(hugeLength)
	assert.True(t, errors.Is(err, ErrMalformedPayload))
}

func TestDecodeTEERequest(t *testing.T) {
	req := TEERequest{ID: RequestID{9}, Program: []byte("p"), Stdin: Stdin("in")}
	encoded, err := json.Marshal(req)
	require.NoError(t, err)

	decoded, err := DecodeTEERequest(encoded)
	require.NoError(t, err)
	assert.Equal(t, req.ID, decoded.ID)
	assert.Equal(t, req.Stdin, decoded.Stdin)

	for _, input := range []string{`{`, `[]`, `null`, `{"id":"0x09","program":"0x","stdin":"0x"}`} {
		_, err := DecodeTEERequest([]byte(input))
		assert.ErrorIs(t, err, ErrMalformedPayload, input)
	}
}

func TestDecodeGetAddressResponse(t *testing.T) {
	decoded, err := DecodeGetAddressResponse([]byte(`{"address":"0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"}`))
	require.NoError(t, err)
	assert.Equal(t, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", decoded.Address.Hex())

	for _, input := range []string{`{`, `"0x7E5F"`, `{}`, `{"address":"0x0000000000000000000000000000000000000000"}`} {
		_, err := DecodeGetAddressResponse([]byte(input))
		assert.ErrorIs(t, err, ErrMalformedPayload, input)
	}
}
