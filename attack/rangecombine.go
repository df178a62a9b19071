package attack

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/c3"
)

// RangeCombine exploits repeated queries attributable to the same underlying
// credential: each disclosed bucket is a candidate set, and combining n
// observations means intersecting n sets. The intersection never grows, so
// every additional linked query can only sharpen the inference.
type RangeCombine struct {
	// Linker selects how queries are attributed to one identity. Defaults
	// to session linkage.
	Linker c3.Linker

	// Truth optionally supplies ground truth for self-scoring ranks.
	Truth Truth
}

// Name implements Strategy.
func (a *RangeCombine) Name() string { return "range-combining" }

// Run targets one linked-query group by its group key. A singleton
// intersection is an identification; an empty one means the linked
// observations conflict and is reported as a contradiction, never resolved
// silently.
func (a *RangeCombine) Run(log *c3.QueryLog, index *c3.BucketIndex, target string) (*Result, error) {
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
		return nil, fmt.Errorf("range-combining: no linked group %q in log", target)
	}

	candidates, sizes := IntersectBuckets(group.Events)

	res := &Result{
		Attack:  a.Name(),
		Target:  target,
		SetSize: sizes[0],
		Metadata: map[string]string{
			"queries":            strconv.Itoa(len(group.Events)),
			"intersection_sizes": joinInts(sizes),
		},
	}
	for _, cred := range candidates {
		res.Candidates = append(res.Candidates, Candidate{Username: cred.Username, Password: cred.Password})
	}

	switch len(candidates) {
	case 0:
		res.Contradiction = true
	case 1:
		res.Identified = true
	}
	if a.Truth != nil && !res.Contradiction {
		res.Rank = rankOf(res.Candidates, a.Truth.CredentialsFor(target))
	}
	return res, nil
}

// IntersectBuckets folds the events' bucket snapshots into one candidate
// set, intersecting on credential identity. It returns the surviving
// credentials in first-bucket order plus the intersection size after each
// step; the size sequence is non-increasing by construction.
func IntersectBuckets(events []c3.QueryEvent) ([]c3.Credential, []int) {
	if len(events) == 0 {
		return nil, []int{0}
	}

	var candidates []c3.Credential
	for _, rec := range events[0].Bucket.Records {
		candidates = append(candidates, rec.Credential)
	}
	sizes := []int{len(candidates)}

	for _, ev := range events[1:] {
		present := make(map[c3.Credential]bool, ev.Bucket.Size())
		for _, rec := range ev.Bucket.Records {
			present[rec.Credential] = true
		}
		var kept []c3.Credential
		for _, cred := range candidates {
			if present[cred] {
				kept = append(kept, cred)
			}
		}
		candidates = kept
		sizes = append(sizes, len(candidates))
	}
	return candidates, sizes
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
