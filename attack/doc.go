// Package attack implements the inference strategies available to an
// honest-but-curious C3 server operator. Every strategy consumes only the
// query log and bucket index produced by the protocol simulation, never the
// ground truth, and never mutates its inputs.
//
// Four strategies are provided:
//
//   - LIdentify exploits anomalously small anonymity sets: a bucket of at
//     most Threshold members is itself a short candidate list for the
//     queried credential, unique when the bucket is a singleton.
//   - RangeCombine intersects the buckets disclosed across several queries
//     linked to the same identity. The intersection only ever shrinks as
//     queries are added; collapsing to one record identifies the credential,
//     collapsing to none is reported as a contradiction.
//   - Connect cross-references the buckets in a linked group against each
//     other, keeping only (username, password) pairings consistent with
//     every observation and ranking survivors by corroboration.
//   - Guess ranks a candidate set by an external password-likelihood scorer.
//     It is the only strategy with an external dependency and refuses to run
//     without one.
//
// All strategies are deterministic: identical inputs produce identical
// ranked output, with ties broken by corpus order or lexical credential
// order, never randomly.
package attack
