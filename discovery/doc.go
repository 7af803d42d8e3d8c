// Package discovery locates TEE signing service instances through DNS SRV
// records.
//
// Operators publish one SRV record per signer instance. Priority and weight
// follow the usual SRV semantics, so clients try lower priorities first and
// prefer heavier instances within a priority:
//
//	_tee-signer._tcp.example.org. 60 IN SRV 10 50 8080 signer-a.example.org.
//	_tee-signer._tcp.example.org. 60 IN SRV 20 10 8080 signer-b.example.org.
//
// Discovery says nothing about which signer key to trust. Resolved URLs are
// transport hints; the trusted signer address is still pinned or fetched
// explicitly by the caller.
package discovery
