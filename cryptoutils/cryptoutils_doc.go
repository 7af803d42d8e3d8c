// Package cryptoutils implements the cryptographic core of TEE integrity
// proofs.
//
// An integrity proof is a secp256k1 ECDSA signature produced inside a trusted
// execution environment over
//
//	digest = keccak256(vkey || public_values)
//
// where vkey identifies the program and public_values are the outputs it
// produced. Verifiers recover the signer address from the signature and the
// recovery id and compare it with a trusted signer address.
//
// # Prefix encoding
//
// A verified signature is serialized into a 69-byte prefix that is prepended to
// the zero-knowledge proof bytes before they are submitted on chain:
//
//	selector (4) || v (1) || r (32) || s (32)
//
// selector is keccak256("SP1TeeVerifier")[0:4], so the verifier gateway can
// dispatch on the first four bytes the same way it dispatches between proof
// systems.
//
// # Key Functions
//
//   - Digest: computes the signed message
//   - RecoverableSignature.RecoverAddress: recovers the signer address
//   - RecoverableSignature.VerifySigner: recovers and compares in one step
//   - EncodePrefix / DecodePrefix / SplitPrefix: prefix serialization
//   - DeriveSignerKey: deterministic signer keys for development signers
//
// All functions are pure and safe for concurrent use.
package cryptoutils
