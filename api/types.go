package api

import (
	"fmt"

	"github.com/donovanhide/eventsource"
	"github.com/ruteri/tee-integrity-proofs/interfaces"
)

const (
	// AddressPath serves the signer's current address as GetAddressResponse.
	AddressPath = "/address"

	// ExecutePath accepts a TEERequest and answers with an event stream.
	ExecutePath = "/execute"

	// ContentTypeEventStream is the content type of ExecutePath responses.
	ContentTypeEventStream = "text/event-stream"
)

// SSE event types written on an execute stream. Only EventTypeResult is
// terminal; everything else is a transport signal and is skipped by clients.
const (
	EventTypeResult = "result"
	EventTypePing   = "ping"
)

// StreamEvent is a single server-sent event. It implements eventsource.Event.
type StreamEvent struct {
	ID   string
	Type string
	Body string
}

var _ eventsource.Event = (*StreamEvent)(nil)

func (e *StreamEvent) Id() string    { return e.ID }
func (e *StreamEvent) Event() string { return e.Type }
func (e *StreamEvent) Data() string  { return e.Body }

// PingEvent is the keep-alive sent while an execution is in progress.
func PingEvent() *StreamEvent {
	return &StreamEvent{Type: EventTypePing}
}

// ResultEvent frames the terminal outcome of request id.
func ResultEvent(id interfaces.RequestID, payload interfaces.EventPayload) (*StreamEvent, error) {
	data, err := interfaces.MarshalEventPayload(payload)
	if err != nil {
		return nil, fmt.Errorf("could not encode event payload: %w", err)
	}
	return &StreamEvent{ID: id.String(), Type: EventTypeResult, Body: string(data)}, nil
}

// ParseResultEvent checks that ev is the result for id and decodes its
// payload.
func ParseResultEvent(id interfaces.RequestID, ev eventsource.Event) (interfaces.EventPayload, error) {
	if ev.Event() != EventTypeResult {
		return nil, fmt.Errorf("%w: event type %q is not a result", interfaces.ErrMalformedPayload, ev.Event())
	}
	if ev.Id() != id.String() {
		return nil, fmt.Errorf("%w: result for request %q, expected %s", interfaces.ErrMalformedPayload, ev.Id(), id)
	}
	return interfaces.UnmarshalEventPayload([]byte(ev.Data()))
}
