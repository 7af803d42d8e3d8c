package teehandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/donovanhide/eventsource"
	"github.com/go-chi/chi/v5"
	"github.com/ruteri/tee-integrity-proofs/api"
	"github.com/ruteri/tee-integrity-proofs/interfaces"
	"github.com/ruteri/tee-integrity-proofs/metrics"
)

const (
	// DefaultPingInterval is how often keep-alives are written while a
	// program is executing.
	DefaultPingInterval = 15 * time.Second

	// MaxRequestBytes bounds the JSON body of an execute request.
	MaxRequestBytes = 64 << 20
)

// Handler serves the signer address and execute endpoints of a TEE signing
// service. Execution is delegated to an interfaces.Executor and the result
// is signed by an interfaces.IntegritySigner.
type Handler struct {
	executor     interfaces.Executor
	signer       interfaces.IntegritySigner
	metrics      *metrics.TEEMetrics
	pingInterval time.Duration
	log          *slog.Logger
}

// NewHandler creates a handler. A nil m records into unregistered metrics.
func NewHandler(executor interfaces.Executor, signer interfaces.IntegritySigner, m *metrics.TEEMetrics, log *slog.Logger) *Handler {
	if m == nil {
		m = metrics.NewTEEMetrics(nil, "")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		executor:     executor,
		signer:       signer,
		metrics:      m,
		pingInterval: DefaultPingInterval,
		log:          log,
	}
}

// WithPingInterval overrides DefaultPingInterval.
func (h *Handler) WithPingInterval(d time.Duration) *Handler {
	h.pingInterval = d
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get(api.AddressPath, h.HandleAddress)
	r.Post(api.ExecutePath, h.HandleExecute)
}

// HandleAddress returns the signer's current address.
//
// Response: {"address": "0x..."}
func (h *Handler) HandleAddress(w http.ResponseWriter, r *http.Request) {
	h.metrics.AddressRequests.Inc()

	body, err := json.Marshal(interfaces.GetAddressResponse{Address: h.signer.Address()})
	if err != nil {
		http.Error(w, fmt.Errorf("could not encode address: %w", err).Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// HandleExecute runs the requested program and streams its signed outcome.
//
// Request body: JSON TEERequest.
// Response: text/event-stream with "ping" keep-alives followed by a single
// "result" event carrying the tagged EventPayload. Execution and signing
// failures are reported in-band as Error events, never as HTTP errors, since
// the status line has already been sent by then.
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	h.metrics.Requests.Inc()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRequestBytes))
	if err != nil {
		h.metrics.Outcomes.WithLabelValues(metrics.OutcomeMalformed).Inc()
		http.Error(w, fmt.Errorf("could not read request: %w", err).Error(), http.StatusBadRequest)
		return
	}

	req, err := interfaces.DecodeTEERequest(body)
	if err != nil {
		h.metrics.Outcomes.WithLabelValues(metrics.OutcomeMalformed).Inc()
		http.Error(w, fmt.Errorf("invalid request: %w", err).Error(), http.StatusBadRequest)
		return
	}

	log := h.log.With("requestID", req.ID.String())

	h.metrics.InFlight.Inc()
	defer h.metrics.InFlight.Dec()

	w.Header().Set("Content-Type", api.ContentTypeEventStream)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	flush := func() {
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			log.Debug("could not flush event stream", "err", err)
		}
	}
	flush()

	ctx := r.Context()
	results := make(chan interfaces.EventPayload, 1)
	go func() {
		results <- h.run(ctx, log, req)
	}()

	enc := eventsource.NewEncoder(w, false)
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.metrics.Outcomes.WithLabelValues(metrics.OutcomeCanceled).Inc()
			log.Info("client went away before execution finished", "err", ctx.Err())
			return
		case <-ticker.C:
			if err := enc.Encode(api.PingEvent()); err != nil {
				log.Info("could not write keep-alive", "err", err)
				return
			}
			flush()
		case payload := <-results:
			ev, err := api.ResultEvent(req.ID, payload)
			if err != nil {
				log.Error("could not frame result", "err", err)
				return
			}
			if err := enc.Encode(ev); err != nil {
				log.Info("could not write result", "err", err)
				return
			}
			flush()
			return
		}
	}
}

func (h *Handler) run(ctx context.Context, log *slog.Logger, req *interfaces.TEERequest) interfaces.EventPayload {
	start := time.Now()
	defer func() {
		h.metrics.ExecutionDuration.Observe(time.Since(start).Seconds())
	}()

	result, err := h.executor.Execute(ctx, req.Program, req.Stdin)
	if err != nil {
		h.metrics.Outcomes.WithLabelValues(metrics.OutcomeExecutionFail).Inc()
		log.Info("execution failed", "err", err)
		return &interfaces.ErrorEvent{Message: err.Error()}
	}

	resp, err := h.signer.Sign(result.VKey, result.PublicValues)
	if err != nil {
		h.metrics.Outcomes.WithLabelValues(metrics.OutcomeSigningFail).Inc()
		log.Error("could not sign execution result", "err", err)
		return &interfaces.ErrorEvent{Message: fmt.Sprintf("could not sign result: %v", err)}
	}

	h.metrics.Outcomes.WithLabelValues(metrics.OutcomeSuccess).Inc()
	log.Debug("signed execution result", "vkey", result.VKey.String(), "signer", h.signer.Address().Hex())
	return &interfaces.SuccessEvent{Response: *resp}
}
