package interfaces

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TEERequest is the payload sent to the TEE service to have a program
// executed and its outputs signed. Program and Stdin are not validated here;
// whether they execute is the executor's concern.
type TEERequest struct {
	ID      RequestID
	Program []byte
	Stdin   Stdin
}

type teeRequestJSON struct {
	ID      RequestID     `json:"id"`
	Program hexutil.Bytes `json:"program"`
	Stdin   hexutil.Bytes `json:"stdin"`
}

func (r TEERequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(teeRequestJSON{
		ID:      r.ID,
		Program: nonNil(r.Program),
		Stdin:   nonNil(r.Stdin),
	})
}

func (r *TEERequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID      *RequestID     `json:"id"`
		Program *hexutil.Bytes `json:"program"`
		Stdin   *hexutil.Bytes `json:"stdin"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return malformed("request: %v", err)
	}
	if raw.ID == nil || raw.Program == nil || raw.Stdin == nil {
		return malformed("request: missing field")
	}

	r.ID = *raw.ID
	r.Program = []byte(*raw.Program)
	r.Stdin = Stdin(*raw.Stdin)
	return nil
}

func nonNil(b []byte) hexutil.Bytes {
	if b == nil {
		return hexutil.Bytes{}
	}
	return b
}
