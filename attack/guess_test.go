package attack

import (
	"testing"

	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/c3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordlistScorer(ranked ...string) Scorer {
	scores := make(map[string]float64, len(ranked))
	for i, pw := range ranked {
		scores[pw] = 1.0 / float64(i+1)
	}
	return ScorerFunc(func(password string) float64 { return scores[password] })
}

func TestGuessRanksByScore(t *testing.T) {
	scheme := c3.DefaultScheme()
	log := c3.NewQueryLog(scheme, 1)
	ev := appendObservation(log, "", scheme.Basis,
		bucketOf(scheme, "0", cred("a", "dragon"), cred("b", "123456"), cred("c", "zzz-rare")))

	strat := &Guess{
		Scorer: wordlistScorer("123456", "password", "dragon"),
		Truth:  staticTruth{ev.ID: {cred("b", "123456")}},
	}
	res, err := strat.Run(log, emptyIndex(t, scheme), ev.ID)
	require.NoError(t, err)

	require.Len(t, res.Candidates, 3)
	assert.Equal(t, "123456", res.Candidates[0].Password)
	assert.Equal(t, "dragon", res.Candidates[1].Password)
	assert.Equal(t, "zzz-rare", res.Candidates[2].Password)
	assert.Equal(t, 1, res.Rank)
}

func TestGuessLexicalTieBreak(t *testing.T) {
	scheme := c3.DefaultScheme()
	log := c3.NewQueryLog(scheme, 1)
	ev := appendObservation(log, "", scheme.Basis,
		bucketOf(scheme, "0", cred("zoe", "unknown-b"), cred("amy", "unknown-a")))

	// Both passwords score zero, so order falls back to lexical.
	res, err := (&Guess{Scorer: wordlistScorer()}).Run(log, emptyIndex(t, scheme), ev.ID)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "amy", res.Candidates[0].Username)
	assert.Equal(t, "zoe", res.Candidates[1].Username)
}

func TestGuessNilScorerFails(t *testing.T) {
	scheme := c3.DefaultScheme()
	log := c3.NewQueryLog(scheme, 1)
	ev := appendObservation(log, "", scheme.Basis, bucketOf(scheme, "0", cred("a", "1")))

	_, err := (&Guess{}).Run(log, emptyIndex(t, scheme), ev.ID)
	require.ErrorIs(t, err, ErrScorerUnavailable)
}

func TestGuessComposesNarrowingStrategy(t *testing.T) {
	scheme := c3.DefaultScheme()
	a, b, c := cred("a", "alpha"), cred("b", "beta"), cred("c", "gamma")

	log := c3.NewQueryLog(scheme, 1)
	appendObservation(log, "s1", scheme.Basis, bucketOf(scheme, "0", a, b, c))
	appendObservation(log, "s1", scheme.Basis, bucketOf(scheme, "01", a, b))

	strat := &Guess{
		Scorer: wordlistScorer("beta", "alpha"),
		Narrow: &RangeCombine{},
		Truth:  staticTruth{"s1": {b}},
	}
	res, err := strat.Run(log, emptyIndex(t, scheme), "s1")
	require.NoError(t, err)

	// The narrowed set excludes c entirely; scoring ranks beta first.
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "beta", res.Candidates[0].Password)
	assert.Equal(t, 1, res.Rank)
	assert.Equal(t, "range-combining", res.Metadata["narrowed_by"])
}

func TestGuessFallsBackWhenNarrowDeclines(t *testing.T) {
	scheme := c3.DefaultScheme()
	log := c3.NewQueryLog(scheme, 1)
	ev := appendObservation(log, "", scheme.Basis,
		bucketOf(scheme, "0", cred("a", "alpha"), cred("b", "beta")))

	strat := &Guess{
		Scorer: wordlistScorer("alpha"),
		Narrow: &LIdentify{Threshold: 1},
	}
	res, err := strat.Run(log, emptyIndex(t, scheme), ev.ID)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 2, "a declined narrowing falls back to the raw bucket")
	assert.Equal(t, "alpha", res.Candidates[0].Password)
}
