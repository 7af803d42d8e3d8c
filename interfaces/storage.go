package interfaces

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrAttestationNotFound is returned when no attestation is stored under
	// a digest.
	ErrAttestationNotFound = errors.New("attestation not found")

	// ErrBackendUnavailable is returned when a storage backend cannot be
	// reached.
	ErrBackendUnavailable = errors.New("storage backend unavailable")
)

// AttestationBackend stores encoded attestations keyed by the digest they
// sign. Backends do not interpret the stored bytes.
type AttestationBackend interface {
	// Fetch returns the bytes stored under digest or ErrAttestationNotFound.
	Fetch(ctx context.Context, digest common.Hash) ([]byte, error)

	// Store saves data under digest, replacing any previous value.
	Store(ctx context.Context, digest common.Hash, data []byte) error

	// Available reports whether the backend can currently be reached.
	Available(ctx context.Context) bool

	// Name identifies the backend in logs.
	Name() string

	// LocationURI is the URI the backend was created from, without secrets.
	LocationURI() string
}
