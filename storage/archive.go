package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/tee-integrity-proofs/interfaces"
)

// Archive keeps signed TEE responses keyed by the digest they sign, encoded
// as binary Success events.
type Archive struct {
	backend interfaces.AttestationBackend
	log     *slog.Logger
}

func NewArchive(backend interfaces.AttestationBackend, log *slog.Logger) *Archive {
	return &Archive{backend: backend, log: log}
}

// Put stores resp and returns the digest it is filed under.
func (a *Archive) Put(ctx context.Context, resp *interfaces.TEEResponse) (common.Hash, error) {
	data, err := interfaces.MarshalEventPayloadBinary(&interfaces.SuccessEvent{Response: *resp})
	if err != nil {
		return common.Hash{}, err
	}

	digest := resp.Digest()
	if err := a.backend.Store(ctx, digest, data); err != nil {
		return common.Hash{}, fmt.Errorf("could not archive attestation %s: %w", digest.Hex(), err)
	}

	a.log.Info("Archived attestation", "digest", digest.Hex(), "backend", a.backend.Name())
	return digest, nil
}

// Get loads the response filed under digest. Stored data that does not
// decode to a response over that digest is reported as malformed.
// The signer is not checked; callers verify the result like any response.
func (a *Archive) Get(ctx context.Context, digest common.Hash) (*interfaces.TEEResponse, error) {
	data, err := a.backend.Fetch(ctx, digest)
	if err != nil {
		return nil, err
	}

	event, err := interfaces.UnmarshalEventPayloadBinary(data)
	if err != nil {
		return nil, err
	}

	success, ok := event.(*interfaces.SuccessEvent)
	if !ok {
		return nil, fmt.Errorf("%w: archived event for %s is not a success", interfaces.ErrMalformedPayload, digest.Hex())
	}
	if got := success.Response.Digest(); got != digest {
		return nil, fmt.Errorf("%w: archived response signs %s, filed under %s", interfaces.ErrMalformedPayload, got.Hex(), digest.Hex())
	}
	return &success.Response, nil
}
