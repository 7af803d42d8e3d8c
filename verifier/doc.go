// Package verifier establishes which TEE signer is trusted and checks
// integrity proofs against it.
//
// The trusted signer address is the only state shared between concurrent
// verifications. TrustedAddress keeps it behind an atomic pointer: readers
// always see either the old or the new address, and writers (Pin, Refresh)
// are serialized.
//
// How the address is first established is a trust decision left to the
// caller:
//
//	// pinned, distributed out of band
//	trusted := verifier.NewPinnedAddress(common.HexToAddress("0x..."))
//
//	// fetched from the service's address endpoint
//	trusted := verifier.NewFetchedAddress(client, logger)
//	if _, err := trusted.Refresh(ctx); err != nil {
//	    return err
//	}
//	go trusted.RunRefresher(ctx, time.Hour)
//
//	v := verifier.NewVerifier(trusted)
//	verified, err := v.Verify(resp)
package verifier
