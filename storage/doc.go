// Package storage archives signed TEE responses so integrity proofs can be
// rebuilt or audited after the exchange that produced them.
//
// Responses are filed under keccak256(vkey || public_values), the digest
// their signature covers, and stored as binary encoded Success events.
// Backends are selected by location URI:
//
//   - file:///var/lib/tee-attestations
//   - s3://[ACCESS_KEY:SECRET_KEY@]bucket/prefix?region=us-east-1&endpoint=http://minio:9000
//   - vault://vault.example.com:8200/secret/tee-integrity
//
// Several locations can be combined with StorageBackendFactory.CreateMultiBackend;
// writes then go to every reachable backend and reads fall back in order.
package storage
