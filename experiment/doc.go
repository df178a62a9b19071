// Package experiment orchestrates full simulation runs: load the corpora,
// build the bucket index, replay the query trace, run every configured
// attack and evaluate the results. Intermediate artifacts are cached so a
// repeated (corpus, scheme, source, seed) combination goes straight to the
// attack phase.
//
// A Server can expose finished runs over HTTP for inspection; that API is
// operator-facing tooling, not part of the simulated C3 channel.
package experiment
