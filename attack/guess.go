package attack

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/c3"
)

// Scorer is the external password-probability model the guessing strategy
// ranks candidates with. Higher score means higher assumed likelihood; the
// scale is otherwise opaque and the model is never trained or embedded here.
type Scorer interface {
	Score(password string) float64
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(password string) float64

// Score implements Scorer.
func (f ScorerFunc) Score(password string) float64 { return f(password) }

// Guess combines anonymity-set leakage with an external password model: the
// disclosed bucket (or an already-narrowed candidate set from another
// strategy) is re-ranked by descending likelihood. Guessing succeeds at rank
// r when the true password appears within the top r.
type Guess struct {
	// Scorer is required. A nil scorer fails with ErrScorerUnavailable
	// rather than falling back to a uniform guess.
	Scorer Scorer

	// Narrow optionally composes another strategy whose surviving
	// candidates replace the raw bucket when it produced any.
	Narrow Strategy

	// Truth optionally supplies ground truth for self-scoring ranks.
	Truth Truth
}

// Name implements Strategy.
func (a *Guess) Name() string { return "credential-guessing" }

// Run targets a query event by ID, or whatever target the composed Narrow
// strategy understands. Candidates are ranked by descending score with
// lexical tie-break.
func (a *Guess) Run(log *c3.QueryLog, index *c3.BucketIndex, target string) (*Result, error) {
	if a.Scorer == nil {
		return nil, fmt.Errorf("guessing target %q: %w", target, ErrScorerUnavailable)
	}

	candidates, setSize, err := a.candidateSet(log, index, target)
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		candidates[i].Score = a.Scorer.Score(candidates[i].Password)
	}
	sortLexical(candidates)
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })

	res := &Result{
		Attack:     a.Name(),
		Target:     target,
		Candidates: candidates,
		SetSize:    setSize,
		Metadata:   map[string]string{"candidates": strconv.Itoa(len(candidates))},
	}
	if a.Narrow != nil {
		res.Metadata["narrowed_by"] = a.Narrow.Name()
	}
	if a.Truth != nil {
		res.Rank = rankOf(res.Candidates, a.Truth.CredentialsFor(target))
	}
	return res, nil
}

// candidateSet resolves the set to rank: the composed strategy's survivors
// when available, otherwise the target event's disclosed bucket.
func (a *Guess) candidateSet(log *c3.QueryLog, index *c3.BucketIndex, target string) ([]Candidate, int, error) {
	if a.Narrow != nil {
		narrowed, err := a.Narrow.Run(log, index, target)
		if err != nil {
			return nil, 0, fmt.Errorf("narrowing with %s: %w", a.Narrow.Name(), err)
		}
		if len(narrowed.Candidates) > 0 && !narrowed.Declined {
			cands := make([]Candidate, len(narrowed.Candidates))
			copy(cands, narrowed.Candidates)
			return cands, narrowed.SetSize, nil
		}
	}

	ev, ok := log.Event(target)
	if !ok {
		return nil, 0, fmt.Errorf("credential-guessing: no query event %q in log", target)
	}
	var cands []Candidate
	for _, rec := range ev.Bucket.Records {
		cands = append(cands, Candidate{Username: rec.Username, Password: rec.Password})
	}
	return cands, ev.Bucket.Size(), nil
}
