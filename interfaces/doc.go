// Package interfaces defines the data model of TEE integrity proofs and the
// contracts between the components that produce, transport and verify them.
//
// # Payloads
//
//   - TEERequest: {id, program, stdin} sent to the TEE service. The id is
//     chosen by the caller and must be unique among its in-flight requests.
//   - TEEResponse: {vkey, public_values, signature, recovery_id}, a signature
//     over keccak256(vkey || public_values) made by the TEE signer.
//   - EventPayload: the terminal event of a streamed exchange, either
//     *SuccessEvent or *ErrorEvent.
//   - GetAddressResponse: {address}, the TEE signer address. This value is
//     untrusted transport input.
//
// Every payload has a JSON form (byte arrays as 0x-prefixed hex, events
// externally tagged as {"Success": …} or {"Error": "…"}) and a compact
// binary form with fixed-width little-endian length prefixes.
//
// # Errors
//
// Failures are reported as distinct, typed outcomes usable with errors.Is
// and errors.As: ErrMalformedPayload, ErrSignatureRecovery,
// ErrAddressMismatch (*AddressMismatchError), *RemoteError and
// ErrTransportFailure, of which ErrDisconnected is a distinct sub-kind.
// Nothing in this module retries.
//
// # Service contracts
//
// Executor, IntegritySigner, SignerAddressSource and TrustedSignerProvider
// decouple the HTTP handler, the client and the verifier from concrete
// implementations so tests can inject fixed signers and addresses.
package interfaces
