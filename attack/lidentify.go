package attack

import (
	"fmt"
	"strconv"

	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/c3"
)

// LIdentify exploits anomalously small anonymity sets. When the bucket
// disclosed for a query holds at most Threshold records, its members form
// the candidate list for that query outright; a singleton bucket identifies
// the credential uniquely. Larger buckets produce a declined result rather
// than a blind guess.
type LIdentify struct {
	// Threshold is the largest bucket size still considered identifying.
	Threshold int

	// Truth optionally supplies ground truth for self-scoring ranks.
	Truth Truth
}

// Name implements Strategy.
func (a *LIdentify) Name() string { return "l-identifying" }

// Run targets a single query event by ID. Candidates keep the bucket's
// corpus order: absent further evidence every member is equally likely, so
// the tie rank is uniform and the order is just the deterministic one.
func (a *LIdentify) Run(log *c3.QueryLog, index *c3.BucketIndex, target string) (*Result, error) {
	ev, ok := log.Event(target)
	if !ok {
		return nil, fmt.Errorf("l-identifying: no query event %q in log", target)
	}

	res := &Result{
		Attack:  a.Name(),
		Target:  target,
		SetSize: ev.Bucket.Size(),
		Metadata: map[string]string{
			"threshold": strconv.Itoa(a.Threshold),
			"prefix":    ev.Prefix,
		},
	}

	if ev.Bucket.Size() > a.Threshold {
		res.Declined = true
		res.Metadata["declined"] = "true"
		return res, nil
	}

	for _, rec := range ev.Bucket.Records {
		res.Candidates = append(res.Candidates, Candidate{Username: rec.Username, Password: rec.Password})
	}
	res.Identified = len(res.Candidates) == 1
	if a.Truth != nil {
		res.Rank = rankOf(res.Candidates, a.Truth.CredentialsFor(target))
	}
	return res, nil
}
