// Package store persists simulation artifacts between runs.
//
// Cache keeps serialized query logs and bucket indexes in a local Badger
// database, keyed by the (corpus, scheme, query source) combination that
// produced them; a cache hit lets the attack phase run without
// re-simulating. PostgresStore is an optional sink for evaluation reports
// when runs are collected centrally.
package store
