package teeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/donovanhide/eventsource"
	"github.com/ruteri/tee-integrity-proofs/api"
	"github.com/ruteri/tee-integrity-proofs/interfaces"
	"github.com/ruteri/tee-integrity-proofs/verifier"
	"go.uber.org/atomic"
)

// maxErrorBody bounds how much of a non-200 body is quoted in errors.
const maxErrorBody = 4096

// Observer is notified of every lifecycle transition of an exchange.
// It is called synchronously from the goroutine running the exchange.
type Observer func(id interfaces.RequestID, from, to State)

// Client talks to a TEE signing service.
type Client struct {
	// URL is the service base URL, without a trailing slash.
	URL string

	Client *http.Client
	Log    *slog.Logger

	// Observer, if set, receives lifecycle transitions.
	Observer Observer
}

var _ interfaces.SignerAddressSource = (*Client)(nil)

// NewClient creates a client for the service at url.
func NewClient(url string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		URL:    strings.TrimSuffix(url, "/"),
		Client: http.DefaultClient,
		Log:    log,
	}
}

func (c *Client) httpClient() *http.Client {
	if c.Client == nil {
		return http.DefaultClient
	}
	return c.Client
}

// GetAddress fetches the signer's current address. The result is untrusted
// transport input.
func (c *Client) GetAddress(ctx context.Context) (*interfaces.GetAddressResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL+api.AddressPath, nil)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: could not request signer address: %w", interfaces.ErrTransportFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read signer address: %w", interfaces.ErrTransportFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: tee service returned %d: %s", interfaces.ErrTransportFailure, resp.StatusCode, truncate(body))
	}

	return interfaces.DecodeGetAddressResponse(body)
}

// NewRequest builds a request with a fresh random id.
func NewRequest(program []byte, stdin interfaces.Stdin) (*interfaces.TEERequest, error) {
	id, err := interfaces.NewRequestID()
	if err != nil {
		return nil, err
	}
	return &interfaces.TEERequest{ID: id, Program: program, Stdin: stdin}, nil
}

// Execute sends req and waits for its terminal event.
//
// On a Success event the unverified response is returned. An Error event is
// returned as *interfaces.RemoteError. A stream that ends, or is cut by ctx,
// before a result arrives yields interfaces.ErrDisconnected; other transport
// problems yield interfaces.ErrTransportFailure. Nothing is retried.
func (c *Client) Execute(ctx context.Context, req *interfaces.TEERequest) (*interfaces.TEEResponse, error) {
	ex := &exchange{id: req.ID, observer: c.Observer}

	resp, err := c.execute(ctx, ex, req)
	if err != nil && !ex.State().Terminal() {
		ex.transition(StateDisconnected)
	}
	return resp, err
}

func (c *Client) execute(ctx context.Context, ex *exchange, req *interfaces.TEERequest) (*interfaces.TEEResponse, error) {
	log := c.Log.With("requestID", req.ID.String())

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("could not encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL+api.ExecutePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", api.ContentTypeEventStream)

	ex.transition(StateSent)
	httpResp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: could not send request: %w", interfaces.ErrTransportFailure, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: tee service returned %d: %s", interfaces.ErrTransportFailure, httpResp.StatusCode, truncate(errBody))
	}

	mediaType, _, err := mime.ParseMediaType(httpResp.Header.Get("Content-Type"))
	if err != nil || mediaType != api.ContentTypeEventStream {
		return nil, fmt.Errorf("%w: unexpected content type %q", interfaces.ErrTransportFailure, httpResp.Header.Get("Content-Type"))
	}

	ex.transition(StateStreaming)
	dec := eventsource.NewDecoder(httpResp.Body)
	for {
		ev, err := dec.Decode()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, interfaces.ErrDisconnected
			}
			return nil, fmt.Errorf("%w: %w", interfaces.ErrDisconnected, err)
		}

		switch ev.Event() {
		case api.EventTypeResult:
		case api.EventTypePing:
			log.Debug("keep-alive")
			continue
		default:
			log.Debug("skipping unknown event", "event", ev.Event())
			continue
		}

		payload, err := api.ParseResultEvent(req.ID, ev)
		if err != nil {
			ex.transition(StateError)
			return nil, err
		}

		teeResp, err := interfaces.Outcome(payload)
		if err != nil {
			ex.transition(StateError)
			return nil, err
		}

		ex.transition(StateSuccess)
		return teeResp, nil
	}
}

// Prove executes req and verifies the response against v.
func (c *Client) Prove(ctx context.Context, req *interfaces.TEERequest, v *verifier.Verifier) (*verifier.VerifiedResponse, error) {
	resp, err := c.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return v.Verify(resp)
}

type exchange struct {
	id       interfaces.RequestID
	state    atomic.Int32
	observer Observer
}

func (e *exchange) State() State {
	return State(e.state.Load())
}

func (e *exchange) transition(to State) {
	from := State(e.state.Swap(int32(to)))
	if e.observer != nil {
		e.observer(e.id, from, to)
	}
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return strings.TrimSpace(string(body))
}
