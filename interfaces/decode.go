package interfaces

import (
	"encoding/json"
	"errors"
)

// decodeJSON reports every decoding failure, including syntax errors caught
// by encoding/json before UnmarshalJSON runs, as ErrMalformedPayload.
func decodeJSON(what string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		if errors.Is(err, ErrMalformedPayload) {
			return err
		}
		return malformed("%s: %v", what, err)
	}
	return nil
}

// DecodeTEERequest decodes a request body sent to the execute endpoint.
func DecodeTEERequest(data []byte) (*TEERequest, error) {
	var req TEERequest
	if err := decodeJSON("request", data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// DecodeTEEResponse decodes a JSON encoded signed response.
func DecodeTEEResponse(data []byte) (*TEEResponse, error) {
	var resp TEEResponse
	if err := decodeJSON("response", data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DecodeGetAddressResponse decodes the address endpoint body.
func DecodeGetAddressResponse(data []byte) (*GetAddressResponse, error) {
	var resp GetAddressResponse
	if err := decodeJSON("address response", data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
