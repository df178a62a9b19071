package attack

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/c3"
)

// Connect exploits correlation across separate queries to link observed
// anonymity sets to one real-world user, even though the protocol intends
// each query to be unlinkable. Within a linked group every query's bucket
// constrains the others: a (username, password) pairing survives only if it
// is consistent with every bucket in the group, regardless of whether the
// buckets cover username hashes, password hashes or full credentials.
type Connect struct {
	// Linker selects the linkage signal. Defaults to session linkage; a
	// WindowLinker approximates linkage from timing alone.
	Linker c3.Linker

	// MinSupport is the minimum number of corroborating queries a surviving
	// pairing needs. Zero or negative means every bucket in the group must
	// corroborate.
	MinSupport int

	// Truth optionally supplies ground truth for self-scoring ranks.
	Truth Truth
}

// Name implements Strategy.
func (a *Connect) Name() string { return "credential-connecting" }

// Run targets one linked-query group by its group key. Surviving pairings
// are ranked by corroborating-query count, descending, with ties broken by
// lexical credential order.
func (a *Connect) Run(log *c3.QueryLog, index *c3.BucketIndex, target string) (*Result, error) {
	linker := a.Linker
	if linker == nil {
		linker = c3.SessionLinker{}
	}

	var group *c3.Group
	for _, g := range linker.Groups(log) {
		if g.Key == target {
			g := g
			group = &g
			break
		}
	}
	if group == nil {
		return nil, fmt.Errorf("credential-connecting: no linked group %q in log", target)
	}

	minSupport := a.MinSupport
	if minSupport <= 0 {
		minSupport = len(group.Events)
	}

	// Candidate pairings come from the union of the group's buckets; the
	// attacker has nothing else to draw from.
	type tally struct {
		cred    c3.Credential
		support int
	}
	seen := make(map[c3.Credential]*tally)
	var order []c3.Credential
	union := 0
	for _, ev := range group.Events {
		union += ev.Bucket.Size()
		for _, rec := range ev.Bucket.Records {
			if _, ok := seen[rec.Credential]; !ok {
				seen[rec.Credential] = &tally{cred: rec.Credential}
				order = append(order, rec.Credential)
			}
		}
	}

	for _, cred := range order {
		t := seen[cred]
		for _, ev := range group.Events {
			if corroborates(ev, cred) {
				t.support++
			}
		}
	}

	var survivors []Candidate
	for _, cred := range order {
		if t := seen[cred]; t.support >= minSupport {
			survivors = append(survivors, Candidate{
				Username: cred.Username,
				Password: cred.Password,
				Support:  t.support,
			})
		}
	}
	sortLexical(survivors)
	sort.SliceStable(survivors, func(i, j int) bool { return survivors[i].Support > survivors[j].Support })

	res := &Result{
		Attack:     a.Name(),
		Target:     target,
		Candidates: survivors,
		SetSize:    union,
		Metadata: map[string]string{
			"queries":     strconv.Itoa(len(group.Events)),
			"min_support": strconv.Itoa(minSupport),
		},
	}
	switch {
	case len(survivors) == 0 && len(group.Events) > 1:
		res.Contradiction = true
	case len(survivors) == 0:
		res.Declined = true
	case len(survivors) == 1:
		res.Identified = true
	}
	if a.Truth != nil && len(survivors) > 0 {
		res.Rank = rankOf(res.Candidates, a.Truth.CredentialsFor(target))
	}
	return res, nil
}

// corroborates reports whether an observed bucket is consistent with a
// credential pairing, on the field the query actually disclosed: a
// username-basis bucket constrains the username, a password-basis bucket the
// password, and a credential-basis bucket the full pairing.
func corroborates(ev c3.QueryEvent, cred c3.Credential) bool {
	for _, rec := range ev.Bucket.Records {
		switch ev.Basis {
		case c3.BasisUsername:
			if rec.Username == cred.Username {
				return true
			}
		case c3.BasisPassword:
			if rec.Password == cred.Password {
				return true
			}
		default:
			if rec.Credential == cred {
				return true
			}
		}
	}
	return false
}
