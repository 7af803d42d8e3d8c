package verifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/tee-integrity-proofs/interfaces"
	"go.uber.org/atomic"
)

// TrustedAddress holds the process-wide trusted signer address.
//
// Reads are lock-free and always observe a complete address. Updates, whether
// through Pin or Refresh, are serialized.
type TrustedAddress struct {
	current     atomic.Pointer[common.Address]
	refreshedAt atomic.Time

	// updateMu serializes writers. Readers never take it.
	updateMu sync.Mutex
	source   interfaces.SignerAddressSource
	log      *slog.Logger
}

// NewPinnedAddress returns a trusted address fixed to addr. Refresh fails
// unless a source is attached with WithSource.
func NewPinnedAddress(addr common.Address) *TrustedAddress {
	t := &TrustedAddress{log: slog.Default()}
	t.current.Store(&addr)
	t.refreshedAt.Store(time.Now())
	return t
}

// NewFetchedAddress returns a trusted address populated from source. It holds
// no address until the first successful Refresh. Trusting the address
// endpoint this way is only sound when the transport to it is itself
// authenticated.
func NewFetchedAddress(source interfaces.SignerAddressSource, log *slog.Logger) *TrustedAddress {
	if log == nil {
		log = slog.Default()
	}
	return &TrustedAddress{source: source, log: log}
}

// WithSource attaches a source used by Refresh.
func (t *TrustedAddress) WithSource(source interfaces.SignerAddressSource) *TrustedAddress {
	t.updateMu.Lock()
	defer t.updateMu.Unlock()
	t.source = source
	return t
}

// WithLogger replaces the logger.
func (t *TrustedAddress) WithLogger(log *slog.Logger) *TrustedAddress {
	t.updateMu.Lock()
	defer t.updateMu.Unlock()
	t.log = log
	return t
}

// TrustedSigner returns the current trusted address.
func (t *TrustedAddress) TrustedSigner() (common.Address, error) {
	addr := t.current.Load()
	if addr == nil {
		return common.Address{}, interfaces.ErrNoTrustedSigner
	}
	return *addr, nil
}

// RefreshedAt returns when the address was last set, zero if never.
func (t *TrustedAddress) RefreshedAt() time.Time {
	return t.refreshedAt.Load()
}

// Pin replaces the trusted address.
func (t *TrustedAddress) Pin(addr common.Address) {
	t.updateMu.Lock()
	defer t.updateMu.Unlock()
	t.store(addr)
}

func (t *TrustedAddress) store(addr common.Address) {
	previous := t.current.Swap(&addr)
	t.refreshedAt.Store(time.Now())
	if previous != nil && *previous != addr {
		t.log.Info("Trusted signer rotated", "previous", previous.Hex(), "current", addr.Hex())
	}
}

// Refresh fetches the signer address from the source and installs it.
// Verifications running concurrently keep the snapshot they started with.
func (t *TrustedAddress) Refresh(ctx context.Context) (common.Address, error) {
	t.updateMu.Lock()
	defer t.updateMu.Unlock()

	if t.source == nil {
		return common.Address{}, errors.New("trusted address has no refresh source")
	}

	resp, err := t.source.GetAddress(ctx)
	if err != nil {
		return common.Address{}, fmt.Errorf("could not fetch signer address: %w", err)
	}
	if resp.Address == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: zero signer address", interfaces.ErrMalformedPayload)
	}

	t.store(resp.Address)
	return resp.Address, nil
}

// RunRefresher refreshes the address every interval until ctx is done.
// Failed refreshes keep the previous address and are logged.
func (t *TrustedAddress) RunRefresher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := t.Refresh(ctx); err != nil && ctx.Err() == nil {
				t.log.Warn("Could not refresh trusted signer", "err", err)
			}
		}
	}
}
