/*
Package testutil provides fixtures for testing the C3 leakage simulator.

Tests across the repository need corpora with known bucket structure, which
is awkward to hand-craft because bucket membership depends on digest bits.
The PasswordsWithPrefix helper searches a deterministic candidate sequence
for passwords landing in a wanted bucket, so tests can construct scenarios
like "three credentials, two sharing a 1-bit prefix" without hardcoding
digest values.

	scheme := testutil.Scheme(c3.BasisPassword, 1)
	pws := testutil.PasswordsWithPrefix(scheme, "0", 2, "t1")

Also provided: corpus constructors and corpus file writers matching the
tab-separated loader format.

This package is intended for testing purposes only and should not be used in
production code.
*/
package testutil
