package interfaces

import (
	"encoding/json"
	"fmt"
)

const (
	eventTagSuccess = "Success"
	eventTagError   = "Error"
)

// EventPayload is the terminal outcome of a streamed exchange. It is either
// a *SuccessEvent or an *ErrorEvent; consumers must handle both and treat any
// other value as a programming error.
//
// Transport-level signals such as "stream opened" or keep-alives are not
// event payloads.
type EventPayload interface {
	eventPayload()
}

// SuccessEvent carries the attestation for a completed execution.
type SuccessEvent struct {
	Response TEEResponse
}

// ErrorEvent carries an opaque failure message from the TEE service.
type ErrorEvent struct {
	Message string
}

func (*SuccessEvent) eventPayload() {}
func (*ErrorEvent) eventPayload()   {}

// MarshalEventPayload encodes an event in its externally tagged JSON form:
// {"Success": {...}} or {"Error": "message"}.
func MarshalEventPayload(event EventPayload) ([]byte, error) {
	switch ev := event.(type) {
	case *SuccessEvent:
		return json.Marshal(map[string]TEEResponse{eventTagSuccess: ev.Response})
	case *ErrorEvent:
		return json.Marshal(map[string]string{eventTagError: ev.Message})
	default:
		return nil, fmt.Errorf("unsupported event payload %T", event)
	}
}

// UnmarshalEventPayload decodes an externally tagged JSON event. Exactly one
// known tag must be present.
func UnmarshalEventPayload(data []byte) (EventPayload, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, malformed("event: %v", err)
	}
	if len(tagged) != 1 {
		return nil, malformed("event: expected exactly one variant, got %d", len(tagged))
	}

	if raw, ok := tagged[eventTagSuccess]; ok {
		resp, err := DecodeTEEResponse(raw)
		if err != nil {
			return nil, err
		}
		return &SuccessEvent{Response: *resp}, nil
	}

	if raw, ok := tagged[eventTagError]; ok {
		var message *string
		if err := json.Unmarshal(raw, &message); err != nil {
			return nil, malformed("event: error message: %v", err)
		}
		if message == nil {
			return nil, malformed("event: null error message")
		}
		return &ErrorEvent{Message: *message}, nil
	}

	for tag := range tagged {
		return nil, malformed("event: unknown variant %q", tag)
	}
	return nil, malformed("event: empty")
}

// Outcome turns a terminal event into the caller-facing result: the response
// on success, a *RemoteError otherwise.
func Outcome(event EventPayload) (*TEEResponse, error) {
	switch ev := event.(type) {
	case *SuccessEvent:
		return &ev.Response, nil
	case *ErrorEvent:
		return nil, &RemoteError{Message: ev.Message}
	default:
		return nil, fmt.Errorf("unsupported event payload %T", event)
	}
}
