package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/tee-integrity-proofs/interfaces"
)

// MultiStorageBackend fans writes out to several backends and reads from the
// first one holding the attestation.
type MultiStorageBackend struct {
	backends []interfaces.AttestationBackend
	log      *slog.Logger
}

func NewMultiStorageBackend(backends []interfaces.AttestationBackend, logger *slog.Logger) *MultiStorageBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiStorageBackend{
		backends: backends,
		log:      logger,
	}
}

// Fetch returns the first copy found. It reports ErrAttestationNotFound when
// at least one reachable backend answered that it has no such attestation,
// even if others failed.
func (m *MultiStorageBackend) Fetch(ctx context.Context, digest common.Hash) ([]byte, error) {
	var (
		errs     []error
		notFound bool
	)

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), interfaces.ErrBackendUnavailable))
			continue
		}

		data, err := backend.Fetch(ctx, digest)
		switch {
		case err == nil:
			m.log.Debug("Fetched attestation", "backend", backend.Name(), "digest", digest.Hex())
			return data, nil
		case errors.Is(err, interfaces.ErrAttestationNotFound):
			notFound = true
		default:
			m.log.Debug("Backend fetch failed", "backend", backend.Name(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		}
	}

	if notFound || len(errs) == 0 {
		if len(errs) > 0 {
			m.log.Warn("Attestation missing from reachable backends, others failed",
				"digest", digest.Hex(), "err", errors.Join(errs...))
		}
		return nil, interfaces.ErrAttestationNotFound
	}
	return nil, fmt.Errorf("fetch %s: %w", digest.Hex(), errors.Join(errs...))
}

// Store succeeds if at least one backend accepted the attestation.
func (m *MultiStorageBackend) Store(ctx context.Context, digest common.Hash, data []byte) error {
	if len(m.backends) == 0 {
		return interfaces.ErrBackendUnavailable
	}

	var errs []error
	for _, backend := range m.backends {
		err := interfaces.ErrBackendUnavailable
		if backend.Available(ctx) {
			err = backend.Store(ctx, digest, data)
		}
		if err != nil {
			m.log.Warn("Backend store failed", "backend", backend.Name(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		}
	}

	if len(errs) == len(m.backends) {
		return fmt.Errorf("store %s: %w", digest.Hex(), errors.Join(errs...))
	}
	return nil
}

func (m *MultiStorageBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

func (m *MultiStorageBackend) Name() string {
	return "multi-storage"
}

func (m *MultiStorageBackend) LocationURI() string {
	var locations []string
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}
	return "multi:[" + strings.Join(locations, ",") + "]"
}
