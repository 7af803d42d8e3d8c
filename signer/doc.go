// Package signer provides in-process implementations of the TEE signing
// side: SimpleSigner holds a seed-derived secp256k1 key and signs execution
// results exactly the way the enclave signer does, and EchoExecutor stands
// in for program execution.
//
// Neither is a TEE. They exist so the client, verifier and HTTP handler can
// be exercised end to end, and to back the development signer binary.
//
// # Key derivation
//
// Keys are derived with HKDF-SHA256 from a seed of at least 32 bytes (see
// cryptoutils.DeriveSignerKey). The same seed always yields the same signer
// address. Rotate swaps the key in place to simulate signer rotation.
package signer
