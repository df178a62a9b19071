package c3

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

// Credential is a single (username, password) pair. Immutable once loaded.
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Less orders credentials lexically by username, then password. Used for
// deterministic tie-breaking throughout the attack strategies.
func (c Credential) Less(other Credential) bool {
	if c.Username != other.Username {
		return c.Username < other.Username
	}
	return c.Password < other.Password
}

// Record is a credential together with its digest and bucket prefix under a
// fixed scheme, computed once at index-build time.
type Record struct {
	Credential
	Hash   string `json:"hash"`
	Prefix string `json:"prefix"`
}

// NewRecord derives the record for a credential under the given scheme.
func NewRecord(c Credential, s Scheme) Record {
	h := s.Hash(c)
	return Record{Credential: c, Hash: h, Prefix: PrefixOfHash(h, s.PrefixBits)}
}

// Corpus holds credential data grouped by real-world user: one Users entry
// per physical input line, each holding all accounts believed to belong to
// that user.
type Corpus struct {
	Users [][]Credential `json:"users"`
}

// Credentials flattens the corpus into a single slice, preserving file order.
func (c *Corpus) Credentials() []Credential {
	var out []Credential
	for _, user := range c.Users {
		out = append(out, user...)
	}
	return out
}

// Len returns the total number of credentials.
func (c *Corpus) Len() int {
	n := 0
	for _, user := range c.Users {
		n += len(user)
	}
	return n
}

// Digest returns a stable identifier for the corpus contents, used as a
// cache key component for persisted simulation artifacts.
func (c *Corpus) Digest() string {
	h := sha256.New()
	for _, user := range c.Users {
		for _, cred := range user {
			h.Write([]byte(cred.Username))
			h.Write([]byte{0})
			h.Write([]byte(cred.Password))
			h.Write([]byte{1})
		}
		h.Write([]byte{2})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LoadCorpus reads the line-oriented breach corpus format: one line per real
// user, tab-separated "username:password" fields with a trailing tab. Empty
// fields are skipped; fields without a separator are rejected.
func LoadCorpus(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()

	corpus := &Corpus{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		var user []Credential
		for _, field := range strings.Split(line, "\t") {
			if field == "" {
				continue
			}
			sep := strings.Index(field, ":")
			if sep < 0 {
				return nil, fmt.Errorf("corpus line %d: field %q has no username:password separator", lineNo, field)
			}
			user = append(user, Credential{Username: field[:sep], Password: field[sep+1:]})
		}
		if len(user) > 0 {
			corpus.Users = append(corpus.Users, user)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	return corpus, nil
}

// SplitCredentials divides a corpus into a leaked part and a query-source
// part, deciding per credential with probability ratio of landing in the
// leaked part. User grouping is preserved on both sides; users left with no
// credentials on one side are dropped from that side.
func SplitCredentials(corpus *Corpus, ratio float64, rng *rand.Rand) (leaked, source *Corpus) {
	leaked, source = &Corpus{}, &Corpus{}
	for _, user := range corpus.Users {
		var leakPart, sourcePart []Credential
		for _, cred := range user {
			if rng.Float64() < ratio {
				leakPart = append(leakPart, cred)
			} else {
				sourcePart = append(sourcePart, cred)
			}
		}
		if len(leakPart) > 0 {
			leaked.Users = append(leaked.Users, leakPart)
		}
		if len(sourcePart) > 0 {
			source.Users = append(source.Users, sourcePart)
		}
	}
	return leaked, source
}

// SplitUsers divides a corpus by whole users: after a seeded shuffle, the
// first ratio share of users becomes the leaked part and the rest the
// query-source part.
func SplitUsers(corpus *Corpus, ratio float64, rng *rand.Rand) (leaked, source *Corpus) {
	users := make([][]Credential, len(corpus.Users))
	copy(users, corpus.Users)
	rng.Shuffle(len(users), func(i, j int) { users[i], users[j] = users[j], users[i] })
	cutoff := int(float64(len(users)) * ratio)
	return &Corpus{Users: users[:cutoff]}, &Corpus{Users: users[cutoff:]}
}

// LeakedSet collects the basis-selected field of every corpus credential,
// for membership checks during trace generation.
func LeakedSet(corpus *Corpus, scheme Scheme) map[string]bool {
	set := make(map[string]bool)
	for _, user := range corpus.Users {
		for _, cred := range user {
			set[string(scheme.material(cred))] = true
		}
	}
	return set
}
