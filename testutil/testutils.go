package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/c3"
)

// Scheme builds a SHA-256 test scheme over the given basis and prefix length.
func Scheme(basis string, prefixBits int) c3.Scheme {
	return c3.Scheme{Algorithm: c3.AlgorithmSHA256, Basis: basis, PrefixBits: prefixBits}
}

// PasswordsWithPrefix returns n distinct passwords whose digests under the
// scheme start with the wanted prefix. Candidates are probed in a fixed
// sequence salted by salt, so fixtures are deterministic per call site. The
// scheme basis must be password-based.
func PasswordsWithPrefix(scheme c3.Scheme, prefix string, n int, salt string) []string {
	if scheme.Basis != c3.BasisPassword {
		panic("testutil: PasswordsWithPrefix requires a password-basis scheme")
	}
	var out []string
	for i := 0; len(out) < n; i++ {
		candidate := fmt.Sprintf("pw-%s-%d", salt, i)
		if strings.HasPrefix(scheme.Prefix(c3.Credential{Password: candidate}), prefix) {
			out = append(out, candidate)
		}
		if i > 1<<20 {
			panic(fmt.Sprintf("testutil: no %d passwords with prefix %q found", n, prefix))
		}
	}
	return out
}

// UsernamesWithPrefix is PasswordsWithPrefix for username-basis schemes.
func UsernamesWithPrefix(scheme c3.Scheme, prefix string, n int, salt string) []string {
	if scheme.Basis != c3.BasisUsername {
		panic("testutil: UsernamesWithPrefix requires a username-basis scheme")
	}
	var out []string
	for i := 0; len(out) < n; i++ {
		candidate := fmt.Sprintf("user-%s-%d", salt, i)
		if strings.HasPrefix(scheme.Prefix(c3.Credential{Username: candidate}), prefix) {
			out = append(out, candidate)
		}
		if i > 1<<20 {
			panic(fmt.Sprintf("testutil: no %d usernames with prefix %q found", n, prefix))
		}
	}
	return out
}

// Corpus builds a corpus from user credential groups.
func Corpus(users ...[]c3.Credential) *c3.Corpus {
	return &c3.Corpus{Users: users}
}

// Cred is shorthand for a credential literal.
func Cred(username, password string) c3.Credential {
	return c3.Credential{Username: username, Password: password}
}

// WriteCorpusFile writes a corpus in the loader's tab-separated format into
// dir and returns the file path.
func WriteCorpusFile(dir, name string, corpus *c3.Corpus) (string, error) {
	var b strings.Builder
	for _, user := range corpus.Users {
		for _, cred := range user {
			b.WriteString(cred.Username)
			b.WriteString(":")
			b.WriteString(cred.Password)
			b.WriteString("\t")
		}
		b.WriteString("\n")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
