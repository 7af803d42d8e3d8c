package interfaces

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

// GetAddressResponse is returned by the TEE service's address endpoint.
//
// The address is untrusted transport input. Using it as the trusted signer
// without establishing trust out of band defeats verification entirely.
type GetAddressResponse struct {
	Address common.Address `json:"address"`
}

func (r *GetAddressResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Address *common.Address `json:"address"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return malformed("address response: %v", err)
	}
	if raw.Address == nil {
		return malformed("address response: missing address")
	}
	if *raw.Address == (common.Address{}) {
		return malformed("address response: zero address")
	}
	r.Address = *raw.Address
	return nil
}
