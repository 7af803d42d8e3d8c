// Package teeclient implements the client side of the TEE signing service
// protocol: fetching the signer address and running an execute exchange to
// its terminal event.
//
// Execute returns the response as received. Binding it to a trusted signer
// is the verifier package's job; Prove combines the two:
//
//	trusted := verifier.NewPinnedAddress(expectedSigner)
//	req, _ := teeclient.NewRequest(program, stdin)
//	verified, err := client.Prove(ctx, req, verifier.NewVerifier(trusted))
//	if err != nil {
//		return err
//	}
//	proof = append(verified.PrefixBytes(), zkProof...)
package teeclient
