package interfaces

import (
	"errors"
	"fmt"

	"github.com/ruteri/tee-integrity-proofs/cryptoutils"
)

var (
	// ErrMalformedPayload marks structural or deserialization failures of any
	// wire payload.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrSignatureRecovery marks a cryptographically invalid signature or an
	// out-of-range recovery id.
	ErrSignatureRecovery = cryptoutils.ErrSignatureRecovery

	// ErrAddressMismatch marks a valid signature from an untrusted signer.
	ErrAddressMismatch = cryptoutils.ErrAddressMismatch

	// ErrTransportFailure marks failures of the transport carrying the exchange.
	ErrTransportFailure = errors.New("transport failure")

	// ErrDisconnected is the transport failure reported when a stream ends
	// before a terminal event arrived. It is never reported as a RemoteError.
	ErrDisconnected = fmt.Errorf("%w: stream ended before a terminal event", ErrTransportFailure)

	// ErrNoTrustedSigner is returned when verification is attempted before any
	// trusted signer address has been established.
	ErrNoTrustedSigner = errors.New("no trusted signer address established")
)

type AddressMismatchError = cryptoutils.AddressMismatchError

// RemoteError is a failure reported by the TEE service through an Error
// event. Message is passed through verbatim and must not be parsed.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "tee service reported an error: " + e.Message
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedPayload, fmt.Sprintf(format, args...))
}
