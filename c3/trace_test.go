package c3

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func traceFixture(t *testing.T) (*BucketIndex, *Corpus, *Corpus, Scheme) {
	t.Helper()
	scheme := Scheme{Algorithm: AlgorithmSHA256, Basis: BasisPassword, PrefixBits: 4}

	leaked := testCorpus(40)
	source := &Corpus{}
	for i := 0; i < 10; i++ {
		// Ordinary single-credential users.
		source.Users = append(source.Users, []Credential{
			{Username: fmt.Sprintf("solo-%d", i), Password: fmt.Sprintf("pass-%d", i)},
		})
	}
	for i := 0; i < 5; i++ {
		// Password-manager users with multi-entry vaults.
		var vault []Credential
		for j := 0; j < 4; j++ {
			vault = append(vault, Credential{
				Username: fmt.Sprintf("pm-user-%d", i),
				Password: fmt.Sprintf("vault-%d-%d", i, j),
			})
		}
		source.Users = append(source.Users, vault)
	}

	ix, err := BuildIndex(leaked, scheme)
	require.NoError(t, err)
	return ix, leaked, source, scheme
}

func TestGenerateProducesRequestedQueries(t *testing.T) {
	ix, leaked, source, scheme := traceFixture(t)
	gen := &TraceGenerator{Scheme: scheme, NumQueries: 200, Seed: 1}

	log, truth, err := gen.Generate(ix, leaked, source)
	require.NoError(t, err)
	require.GreaterOrEqual(t, log.Len(), 200, "vault sessions finish even past the budget")
	require.Len(t, truth.ByQuery, log.Len())

	for _, ev := range log.Events {
		cred, ok := truth.ByQuery[ev.ID]
		require.True(t, ok)
		assert.Equal(t, scheme.Hash(cred), ev.QueryHash)
	}
}

func TestGenerateSessionTagging(t *testing.T) {
	ix, leaked, source, scheme := traceFixture(t)
	gen := &TraceGenerator{Scheme: scheme, NumQueries: 300, Seed: 2}

	log, truth, err := gen.Generate(ix, leaked, source)
	require.NoError(t, err)

	sessions := log.Sessions()
	require.NotEmpty(t, sessions, "password-manager vaults should produce sessions")
	for _, session := range sessions {
		require.True(t, strings.HasPrefix(session, "pm-"))
		events := log.BySession(session)
		require.Len(t, truth.BySession[session], len(events))
		// All queries in a pm session come from one vault owner.
		owner := truth.BySession[session][0].Username
		for _, cred := range truth.BySession[session] {
			assert.Equal(t, owner, cred.Username)
		}
	}
}

func TestGenerateDeterministicAcrossRuns(t *testing.T) {
	run := func() []byte {
		ix, leaked, source, scheme := traceFixture(t)
		gen := &TraceGenerator{
			Scheme:     scheme,
			Scenario:   ScenarioConfig{Asyn: 0.3, Clean: 0.2, Intercept: 0.1, Active: 0.1},
			NumQueries: 150,
			Seed:       42,
		}
		log, _, err := gen.Generate(ix, leaked, source)
		require.NoError(t, err)
		data, err := log.Serialize()
		require.NoError(t, err)
		return data
	}
	require.Equal(t, run(), run())
}

func TestGenerateSeedChangesTrace(t *testing.T) {
	ix, leaked, source, scheme := traceFixture(t)
	gen1 := &TraceGenerator{Scheme: scheme, NumQueries: 100, Seed: 1}
	gen2 := &TraceGenerator{Scheme: scheme, NumQueries: 100, Seed: 2}

	log1, _, err := gen1.Generate(ix, leaked, source)
	require.NoError(t, err)
	log2, _, err := gen2.Generate(ix, leaked, source)
	require.NoError(t, err)

	data1, err := log1.Serialize()
	require.NoError(t, err)
	data2, err := log2.Serialize()
	require.NoError(t, err)
	require.NotEqual(t, data1, data2)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	ix, leaked, source, scheme := traceFixture(t)

	_, _, err := (&TraceGenerator{Scheme: scheme, Seed: 1}).Generate(ix, leaked, source)
	require.Error(t, err)

	_, _, err = (&TraceGenerator{Scheme: scheme, NumQueries: 10, Seed: 1}).Generate(ix, leaked, &Corpus{})
	require.Error(t, err)

	mismatched := &TraceGenerator{Scheme: scheme.WithPrefixBits(8), NumQueries: 10, Seed: 1}
	_, _, err = mismatched.Generate(ix, leaked, source)
	require.ErrorIs(t, err, ErrSchemeMismatch)
}
