// Package teehandler serves the TEE signing service endpoints: the signer
// address and program execution with a streamed, signed result.
//
// The handler does not execute programs itself. Production deployments plug
// in an in-enclave executor; signer.EchoExecutor is available for local
// development.
package teehandler
