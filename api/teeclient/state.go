package teeclient

import "fmt"

// State is the client-side lifecycle of one execute exchange:
//
//	Created -> Sent -> Streaming -> {Success | Error | Disconnected}
//
// Keep-alives received while Streaming do not change the state.
type State int32

const (
	StateCreated State = iota
	StateSent
	StateStreaming
	StateSuccess
	StateError
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSent:
		return "sent"
	case StateStreaming:
		return "streaming"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	case StateDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Terminal reports whether no further transitions can follow s.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateError || s == StateDisconnected
}
