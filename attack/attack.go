package attack

import (
	"errors"
	"sort"

	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/c3"
)

// ErrScorerUnavailable indicates the guessing strategy was invoked without a
// password scorer. Guessing uniformly instead would be silent noise, so the
// invocation fails instead. Fatal to that invocation only.
var ErrScorerUnavailable = errors.New("attack: credential guessing requires a scorer")

// Rank values with special meaning in a Result.
const (
	// RankUnknown means no ground truth was supplied, so no rank was computed.
	RankUnknown = 0

	// RankMiss means ground truth was supplied but does not appear among the
	// candidates.
	RankMiss = -1
)

// Candidate is one inferred credential in a ranked list.
type Candidate struct {
	Username string `json:"username"`
	Password string `json:"password"`

	// Score is the external scorer value, set by the guessing strategy.
	Score float64 `json:"score,omitempty"`

	// Support is the number of corroborating queries, set by the connecting
	// strategy.
	Support int `json:"support,omitempty"`
}

// Result is the outcome of one strategy invocation against one target. It is
// never mutated after creation.
type Result struct {
	Attack string `json:"attack"`
	Target string `json:"target"`

	// Candidates is the ranked inference output, best first.
	Candidates []Candidate `json:"candidates"`

	// SetSize is the observed anonymity-set size the inference started from,
	// for correlating attack success with bucket density.
	SetSize int `json:"set_size"`

	// Rank is the 1-based position of the ground-truth credential among the
	// candidates, RankUnknown when no truth was supplied and RankMiss when
	// the truth is absent from the list.
	Rank int `json:"rank"`

	// Identified is set when the strategy narrowed the target to exactly one
	// candidate on evidence alone.
	Identified bool `json:"identified,omitempty"`

	// Declined is set when the strategy had no usable evidence and refused
	// to guess blindly. Distinct from a miss.
	Declined bool `json:"declined,omitempty"`

	// Contradiction is set when linked observations are mutually
	// inconsistent. Reported as data, never resolved silently.
	Contradiction bool `json:"contradiction,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// Strategy is the shared contract: transform a query log and bucket index
// into an inference about one target. Implementations are read-only with
// respect to both inputs and must be deterministic.
type Strategy interface {
	Name() string
	Run(log *c3.QueryLog, index *c3.BucketIndex, target string) (*Result, error)
}

// Truth supplies ground-truth credentials per target for strategies asked to
// self-score their output. A nil Truth leaves ranks at RankUnknown.
type Truth interface {
	// CredentialsFor returns the true credentials behind a target, or nil
	// when the target is unknown.
	CredentialsFor(target string) []c3.Credential
}

// LogTruth adapts a c3.GroundTruth to the Truth interface: event-ID targets
// resolve through ByQuery and session targets through BySession.
type LogTruth struct {
	T *c3.GroundTruth
}

// CredentialsFor implements Truth.
func (lt LogTruth) CredentialsFor(target string) []c3.Credential {
	if lt.T == nil {
		return nil
	}
	if cred, ok := lt.T.ByQuery[target]; ok {
		return []c3.Credential{cred}
	}
	return lt.T.BySession[target]
}

// rankOf returns the 1-based rank of the first ground-truth credential found
// in the candidate list.
func rankOf(candidates []Candidate, truth []c3.Credential) int {
	if len(truth) == 0 {
		return RankUnknown
	}
	for i, cand := range candidates {
		for _, t := range truth {
			if cand.Username == t.Username && cand.Password == t.Password {
				return i + 1
			}
		}
	}
	return RankMiss
}

// sortLexical orders candidates by username then password, the deterministic
// tie-break shared by the strategies.
func sortLexical(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Username != b.Username {
			return a.Username < b.Username
		}
		return a.Password < b.Password
	})
}
