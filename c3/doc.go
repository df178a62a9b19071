// Package c3 implements an in-process simulation of a k-anonymity style
// compromised-credential-checking (C3) protocol, of the kind used by
// breach-password lookup APIs.
//
// # Protocol Model
//
// A breach corpus is partitioned into anonymity buckets keyed by a truncated
// credential hash (BucketIndex). A password-manager client queries the server
// with a hash prefix; the server discloses the full bucket sharing that
// prefix, and the client filters it locally for an exact match. The server
// never learns which bucket member was queried, but it does observe the
// prefix, the bucket, and the timing of every query. That observation is
// recorded as a QueryEvent in an append-only QueryLog.
//
// The server in this model is honest but curious: it follows the protocol
// exactly and the attack packages downstream only ever consume what a
// conforming server legitimately sees.
//
// # Components
//
//   - Credential, Record, Corpus: canonical credential data and loaders for
//     the tab-separated breach corpus format.
//   - Scheme: the hash-and-truncate scheme (algorithm, hashed field, prefix
//     bit length) shared by index and clients.
//   - BucketIndex: the prefix-to-bucket partition of the corpus. Built once,
//     read-only afterwards; rebuilding with a different prefix length is a
//     functional operation on the original.
//   - Server, Client: one simulated query round-trip.
//   - TraceGenerator: drives clients from a query-source corpus under a
//     configurable scenario, producing a deterministic QueryLog plus the
//     ground truth needed for evaluation.
//   - Linker implementations: the shared linked-query-group view consumed by
//     the cross-query attacks.
//
// All simulation randomness comes from a single seeded source, so a fixed
// (corpus, scheme, source, seed) tuple always reproduces a byte-identical
// serialized QueryLog.
package c3
