package c3

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCorpus(t *testing.T) {
	path := writeCorpus(t, "alice:pw1\talice:pw2\t\nbob:secret\t\n\n")

	corpus, err := LoadCorpus(path)
	require.NoError(t, err)
	require.Len(t, corpus.Users, 2)
	require.Equal(t, []Credential{
		{Username: "alice", Password: "pw1"},
		{Username: "alice", Password: "pw2"},
	}, corpus.Users[0])
	require.Equal(t, []Credential{{Username: "bob", Password: "secret"}}, corpus.Users[1])
	require.Equal(t, 3, corpus.Len())
}

func TestLoadCorpusPasswordWithSeparator(t *testing.T) {
	// Only the first colon separates; passwords may contain colons.
	path := writeCorpus(t, "alice:pa:ss\t\n")

	corpus, err := LoadCorpus(path)
	require.NoError(t, err)
	require.Equal(t, "pa:ss", corpus.Users[0][0].Password)
}

func TestLoadCorpusRejectsMalformedField(t *testing.T) {
	path := writeCorpus(t, "nocolonhere\t\n")

	_, err := LoadCorpus(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "separator")
}

func TestCorpusDigestStable(t *testing.T) {
	a := &Corpus{Users: [][]Credential{{{Username: "alice", Password: "pw"}}}}
	b := &Corpus{Users: [][]Credential{{{Username: "alice", Password: "pw"}}}}
	c := &Corpus{Users: [][]Credential{{{Username: "alice", Password: "other"}}}}

	require.Equal(t, a.Digest(), b.Digest())
	require.NotEqual(t, a.Digest(), c.Digest())
}

func TestSplitCredentialsPartitions(t *testing.T) {
	corpus := &Corpus{}
	for i := 0; i < 50; i++ {
		corpus.Users = append(corpus.Users, []Credential{
			{Username: "u", Password: "a"},
			{Username: "u", Password: "b"},
			{Username: "u", Password: "c"},
		})
	}

	leaked, source := SplitCredentials(corpus, 0.7, rand.New(rand.NewSource(1)))
	require.Equal(t, corpus.Len(), leaked.Len()+source.Len())
	require.NotZero(t, leaked.Len())
	require.NotZero(t, source.Len())
}

func TestSplitCredentialsDeterministic(t *testing.T) {
	corpus := &Corpus{}
	for i := 0; i < 20; i++ {
		corpus.Users = append(corpus.Users, []Credential{{Username: "u", Password: "p"}, {Username: "u", Password: "q"}})
	}

	l1, s1 := SplitCredentials(corpus, 0.5, rand.New(rand.NewSource(7)))
	l2, s2 := SplitCredentials(corpus, 0.5, rand.New(rand.NewSource(7)))
	require.Equal(t, l1, l2)
	require.Equal(t, s1, s2)
}

func TestSplitUsersKeepsUsersWhole(t *testing.T) {
	corpus := &Corpus{}
	for i := 0; i < 10; i++ {
		corpus.Users = append(corpus.Users, []Credential{{Username: "u", Password: "p"}, {Username: "u", Password: "q"}})
	}

	leaked, source := SplitUsers(corpus, 0.5, rand.New(rand.NewSource(3)))
	require.Len(t, leaked.Users, 5)
	require.Len(t, source.Users, 5)
	for _, user := range append(leaked.Users, source.Users...) {
		require.Len(t, user, 2)
	}
}

func TestLeakedSet(t *testing.T) {
	corpus := &Corpus{Users: [][]Credential{{{Username: "alice", Password: "pw1"}}}}

	passSet := LeakedSet(corpus, Scheme{Algorithm: AlgorithmSHA256, Basis: BasisPassword, PrefixBits: 8})
	require.True(t, passSet["pw1"])
	require.False(t, passSet["alice"])

	userSet := LeakedSet(corpus, Scheme{Algorithm: AlgorithmSHA256, Basis: BasisUsername, PrefixBits: 8})
	require.True(t, userSet["alice"])
}
