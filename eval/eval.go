// Package eval scores attack results against ground truth. Its central
// output is the correlation between anonymity-set size and attack success,
// the empirical quantity the whole simulation exists to measure.
package eval

import (
	"sort"

	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/attack"
	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/c3"
)

// DefaultRanks are the top-r cutoffs success rates are reported at.
var DefaultRanks = []int{1, 10, 100, 1000}

// SizeStats counts attempts and successes for one anonymity-set size.
type SizeStats struct {
	Attempts  int `json:"attempts"`
	Successes int `json:"successes"`
}

// AttackReport aggregates outcomes for one strategy. Declined and
// contradiction outcomes are informative, not attacker failures, and are
// counted apart from misses in every statistic.
type AttackReport struct {
	Attack string `json:"attack"`

	// Targets is the number of results scored.
	Targets int `json:"targets"`

	// Identified counts targets narrowed to exactly one candidate.
	Identified int `json:"identified"`

	// Declined and Contradictions count the informative non-guess outcomes.
	Declined       int `json:"declined"`
	Contradictions int `json:"contradictions"`

	// Misses counts targets whose ground truth is absent from a non-empty
	// candidate list.
	Misses int `json:"misses"`

	// Unscored counts targets with no ground truth available.
	Unscored int `json:"unscored"`

	// SuccessAtRank maps each top-r cutoff to the fraction of scoreable
	// targets whose ground truth ranked within r.
	SuccessAtRank map[int]float64 `json:"success_at_rank"`

	// MeanRank and MedianRank cover targets whose ground truth was ranked.
	MeanRank   float64 `json:"mean_rank"`
	MedianRank float64 `json:"median_rank"`

	// BySetSize correlates the observed anonymity-set size with rank-1
	// success, per size.
	BySetSize map[int]*SizeStats `json:"by_set_size"`
}

// Options configures an evaluation pass.
type Options struct {
	// Ranks overrides the top-r cutoffs. Nil means DefaultRanks.
	Ranks []int
}

// Report is the full evaluation output, keyed by attack name.
type Report struct {
	Attacks map[string]*AttackReport `json:"attacks"`
}

// Evaluate scores a batch of attack results. Truth resolves ground truth
// per target; results that already carry a rank keep it, everything else is
// ranked here. Results are read, never mutated.
func Evaluate(results []*attack.Result, truth attack.Truth, opts Options) *Report {
	ranks := opts.Ranks
	if ranks == nil {
		ranks = DefaultRanks
	}

	report := &Report{Attacks: make(map[string]*AttackReport)}
	rankedBy := make(map[string][]int)

	for _, res := range results {
		ar, ok := report.Attacks[res.Attack]
		if !ok {
			ar = &AttackReport{
				Attack:        res.Attack,
				SuccessAtRank: make(map[int]float64),
				BySetSize:     make(map[int]*SizeStats),
			}
			report.Attacks[res.Attack] = ar
		}
		ar.Targets++

		switch {
		case res.Declined:
			ar.Declined++
			continue
		case res.Contradiction:
			ar.Contradictions++
			continue
		}
		if res.Identified {
			ar.Identified++
		}

		rank := res.Rank
		if rank == attack.RankUnknown && truth != nil {
			rank = rankAgainst(res, truth)
		}

		stats, ok := ar.BySetSize[res.SetSize]
		if !ok {
			stats = &SizeStats{}
			ar.BySetSize[res.SetSize] = stats
		}

		switch rank {
		case attack.RankUnknown:
			ar.Unscored++
		case attack.RankMiss:
			ar.Misses++
			stats.Attempts++
		default:
			stats.Attempts++
			if rank == 1 {
				stats.Successes++
			}
			rankedBy[res.Attack] = append(rankedBy[res.Attack], rank)
		}
	}

	for name, ar := range report.Attacks {
		ranked := rankedBy[name]
		scoreable := len(ranked) + ar.Misses
		if scoreable > 0 {
			for _, r := range ranks {
				hits := 0
				for _, got := range ranked {
					if got <= r {
						hits++
					}
				}
				ar.SuccessAtRank[r] = float64(hits) / float64(scoreable)
			}
		}
		if len(ranked) > 0 {
			ar.MeanRank = mean(ranked)
			ar.MedianRank = median(ranked)
		}
	}
	return report
}

func rankAgainst(res *attack.Result, truth attack.Truth) int {
	creds := truth.CredentialsFor(res.Target)
	if len(creds) == 0 {
		return attack.RankUnknown
	}
	for i, cand := range res.Candidates {
		for _, t := range creds {
			if cand.Username == t.Username && cand.Password == t.Password {
				return i + 1
			}
		}
	}
	return attack.RankMiss
}

func mean(values []int) float64 {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func median(values []int) float64 {
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return float64(sorted[mid-1]+sorted[mid]) / 2
	}
	return float64(sorted[mid])
}

// IdealConnections counts the query-source users a connecting attack could
// link under perfect linkage: those whose true credentials overlap the
// leaked corpus at least minOverlap times. It is the normalizer for reported
// connection success.
func IdealConnections(leaked, source *c3.Corpus, minOverlap int) int {
	index := make(map[c3.Credential]bool)
	for _, user := range leaked.Users {
		for _, cred := range user {
			index[cred] = true
		}
	}
	ideal := 0
	for _, user := range source.Users {
		overlap := 0
		for _, cred := range user {
			if index[cred] {
				overlap++
			}
		}
		if overlap >= minOverlap {
			ideal++
		}
	}
	return ideal
}
