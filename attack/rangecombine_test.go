package attack

import (
	"testing"

	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/c3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntersectBucketsNonIncreasing(t *testing.T) {
	scheme := c3.DefaultScheme()
	a, b, c := cred("a", "1"), cred("b", "2"), cred("c", "3")

	events := []c3.QueryEvent{
		{Bucket: bucketOf(scheme, "0", a, b, c)},
		{Bucket: bucketOf(scheme, "00", a, b)},
		{Bucket: bucketOf(scheme, "000", b)},
	}
	candidates, sizes := IntersectBuckets(events)

	require.Equal(t, []int{3, 2, 1}, sizes)
	for i := 1; i < len(sizes); i++ {
		assert.LessOrEqual(t, sizes[i], sizes[i-1])
	}
	require.Len(t, candidates, 1)
	assert.Equal(t, b, candidates[0])
}

func TestRangeCombineIdentifies(t *testing.T) {
	scheme := c3.DefaultScheme()
	a, b := cred("a", "1"), cred("b", "2")

	log := c3.NewQueryLog(scheme, 1)
	appendObservation(log, "s1", scheme.Basis, bucketOf(scheme, "0", a, b))
	appendObservation(log, "s1", scheme.Basis, bucketOf(scheme, "01", a))

	res, err := (&RangeCombine{}).Run(log, emptyIndex(t, scheme), "s1")
	require.NoError(t, err)
	assert.True(t, res.Identified)
	assert.False(t, res.Contradiction)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "a", res.Candidates[0].Username)
	assert.Equal(t, 2, res.SetSize, "set size is the first observed anonymity set")
	assert.Equal(t, "2,1", res.Metadata["intersection_sizes"])
}

func TestRangeCombineContradiction(t *testing.T) {
	scheme := c3.DefaultScheme()
	log := c3.NewQueryLog(scheme, 1)
	appendObservation(log, "s1", scheme.Basis, bucketOf(scheme, "0", cred("a", "1")))
	appendObservation(log, "s1", scheme.Basis, bucketOf(scheme, "1", cred("b", "2")))

	res, err := (&RangeCombine{}).Run(log, emptyIndex(t, scheme), "s1")
	require.NoError(t, err)
	assert.True(t, res.Contradiction)
	assert.False(t, res.Identified)
	assert.Empty(t, res.Candidates)
	assert.Equal(t, RankUnknown, res.Rank, "contradictions are never ranked")
}

func TestRangeCombineSingleObservation(t *testing.T) {
	scheme := c3.DefaultScheme()
	log := c3.NewQueryLog(scheme, 1)
	appendObservation(log, "s1", scheme.Basis,
		bucketOf(scheme, "0", cred("a", "1"), cred("b", "2"), cred("c", "3")))

	res, err := (&RangeCombine{}).Run(log, emptyIndex(t, scheme), "s1")
	require.NoError(t, err)
	assert.False(t, res.Identified)
	assert.False(t, res.Contradiction)
	require.Len(t, res.Candidates, 3)
}

func TestRangeCombineCustomLinker(t *testing.T) {
	scheme := c3.DefaultScheme()
	a, b := cred("a", "1"), cred("b", "2")

	// No session tags; the overlap linker joins the two observations through
	// their compatible prefixes.
	log := c3.NewQueryLog(scheme, 1)
	appendObservation(log, "", scheme.Basis, bucketOf(scheme, "0", a, b))
	appendObservation(log, "", scheme.Basis, bucketOf(scheme, "01", b))

	strat := &RangeCombine{Linker: c3.OverlapLinker{}}
	res, err := strat.Run(log, emptyIndex(t, scheme), "overlap-0")
	require.NoError(t, err)
	assert.True(t, res.Identified)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "b", res.Candidates[0].Username)
}

func TestRangeCombineUnknownGroup(t *testing.T) {
	scheme := c3.DefaultScheme()
	log := c3.NewQueryLog(scheme, 1)
	_, err := (&RangeCombine{}).Run(log, emptyIndex(t, scheme), "missing")
	require.Error(t, err)
}
