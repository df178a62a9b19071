package c3

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Hash algorithms supported by a Scheme.
const (
	AlgorithmSHA256 = "sha256"
	AlgorithmSHA3   = "sha3-256"
)

// Basis selects which credential field the scheme hashes.
const (
	BasisPassword   = "password"
	BasisUsername   = "username"
	BasisCredential = "credential"
)

// Scheme describes how a credential is hashed and truncated into a bucket
// prefix. Index and clients must share the same scheme; the prefix is a pure
// function of the credential, so recomputation is always deterministic.
type Scheme struct {
	// Algorithm is the digest function, "sha256" or "sha3-256".
	Algorithm string `json:"algorithm"`

	// Basis is the hashed field: "password", "username" or "credential"
	// (username and password together).
	Basis string `json:"basis"`

	// PrefixBits is the number of leading digest bits disclosed per query.
	PrefixBits int `json:"prefix_bits"`
}

// DefaultScheme matches the common deployed C3 configuration: SHA-256 over
// the password, 20-bit prefix.
func DefaultScheme() Scheme {
	return Scheme{Algorithm: AlgorithmSHA256, Basis: BasisPassword, PrefixBits: 20}
}

// Validate checks the scheme parameters.
func (s Scheme) Validate() error {
	switch s.Algorithm {
	case AlgorithmSHA256, AlgorithmSHA3:
	default:
		return fmt.Errorf("c3: unknown algorithm %q", s.Algorithm)
	}
	switch s.Basis {
	case BasisPassword, BasisUsername, BasisCredential:
	default:
		return fmt.Errorf("c3: unknown basis %q", s.Basis)
	}
	if s.PrefixBits < 1 || s.PrefixBits > 256 {
		return fmt.Errorf("c3: prefix bits %d out of range [1,256]", s.PrefixBits)
	}
	return nil
}

// WithPrefixBits returns a copy of the scheme with a different prefix length.
func (s Scheme) WithPrefixBits(bits int) Scheme {
	s.PrefixBits = bits
	return s
}

func (s Scheme) material(c Credential) []byte {
	switch s.Basis {
	case BasisUsername:
		return []byte(c.Username)
	case BasisCredential:
		return []byte(c.Username + "\t" + c.Password)
	default:
		return []byte(c.Password)
	}
}

// Hash returns the hex-encoded full digest of the credential field selected
// by the scheme's basis.
func (s Scheme) Hash(c Credential) string {
	var sum [32]byte
	if s.Algorithm == AlgorithmSHA3 {
		sum = sha3.Sum256(s.material(c))
	} else {
		sum = sha256.Sum256(s.material(c))
	}
	return hex.EncodeToString(sum[:])
}

// Prefix returns the disclosed bucket prefix for the credential: the first
// PrefixBits bits of its digest, MSB-first, as a "0"/"1" string. The binary
// form keeps sub-nibble prefix lengths and bit-string overlap between
// different lengths directly comparable.
func (s Scheme) Prefix(c Credential) string {
	return PrefixOfHash(s.Hash(c), s.PrefixBits)
}

// PrefixOfHash truncates a hex digest to its first bits bits, MSB-first,
// rendered as a binary string. It panics if the digest is too short, which
// only happens on corrupted input.
func PrefixOfHash(hexDigest string, bits int) string {
	raw, err := hex.DecodeString(hexDigest)
	if err != nil || len(raw)*8 < bits {
		panic(fmt.Sprintf("c3: invalid digest %q for %d-bit prefix", hexDigest, bits))
	}
	var b strings.Builder
	b.Grow(bits)
	for i := 0; i < bits; i++ {
		if raw[i/8]&(1<<(7-uint(i%8))) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
