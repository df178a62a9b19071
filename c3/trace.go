package c3

import (
	"errors"
	"fmt"
	"math/rand"
)

// ScenarioConfig sets the behavioral probabilities of the simulated client
// population, per queried credential or per visit.
type ScenarioConfig struct {
	// Asyn is the probability a password-manager vault is queried in
	// shuffled order rather than stored order.
	Asyn float64 `json:"asyn" yaml:"asyn"`

	// Clean is the probability a credential found in the leaked set is
	// rotated to a fresh random password after being queried.
	Clean float64 `json:"clean" yaml:"clean"`

	// Intercept is the probability an unrelated user's query is interleaved
	// into a vault session, as seen by a server that cannot separate
	// interleaved traffic.
	Intercept float64 `json:"intercept" yaml:"intercept"`

	// Active is the probability of each vault mutation (add, delete,
	// update) after a visit.
	Active float64 `json:"active" yaml:"active"`
}

// GroundTruth maps observed query events back to the plaintext credentials
// that produced them. It exists only for evaluation; no attack reads it.
type GroundTruth struct {
	// ByQuery maps event ID to the queried credential.
	ByQuery map[string]Credential `json:"by_query"`

	// BySession maps session tag to the credentials queried under it.
	BySession map[string][]Credential `json:"by_session"`
}

func newGroundTruth() *GroundTruth {
	return &GroundTruth{
		ByQuery:   make(map[string]Credential),
		BySession: make(map[string][]Credential),
	}
}

func (t *GroundTruth) record(ev QueryEvent, cred Credential) {
	t.ByQuery[ev.ID] = cred
	if ev.Session != "" {
		t.BySession[ev.Session] = append(t.BySession[ev.Session], cred)
	}
}

// TraceGenerator drives simulated clients from a query-source corpus against
// a C3 server and produces the resulting query log. Users with a single
// credential issue anonymous one-off queries; users with several act as
// password-manager vaults whose entries are queried together under one
// session. All randomness comes from the configured seed.
type TraceGenerator struct {
	Scheme     Scheme
	Scenario   ScenarioConfig
	NumQueries int
	Seed       int64
}

const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randPassword(rng *rand.Rand, length int) string {
	out := make([]byte, length)
	for i := range out {
		out[i] = passwordCharset[rng.Intn(len(passwordCharset))]
	}
	return string(out)
}

// Generate simulates queries until NumQueries have been issued. The leaked
// corpus only feeds the clean-up behavior (rotating known-breached
// passwords); the index is the server's breach snapshot.
func (g *TraceGenerator) Generate(index *BucketIndex, leaked, source *Corpus) (*QueryLog, *GroundTruth, error) {
	if g.NumQueries <= 0 {
		return nil, nil, errors.New("c3: trace generator needs a positive query budget")
	}
	if len(source.Users) == 0 {
		return nil, nil, errors.New("c3: empty query-source corpus")
	}
	if g.Scheme != index.Scheme() {
		return nil, nil, fmt.Errorf("generator scheme %+v vs index scheme %+v: %w",
			g.Scheme, index.Scheme(), ErrSchemeMismatch)
	}

	rng := rand.New(rand.NewSource(g.Seed))
	leakedSet := LeakedSet(leaked, g.Scheme)

	vaults := make([][]Credential, len(source.Users))
	for i, user := range source.Users {
		vaults[i] = append([]Credential(nil), user...)
	}

	log := NewQueryLog(g.Scheme, g.Seed)
	client := NewClient(g.Scheme, NewServer(index), log)
	truth := newGroundTruth()

	produced := 0
	for produced < g.NumQueries {
		userIdx := rng.Intn(len(vaults))
		vault := vaults[userIdx]
		if len(vault) == 0 {
			if allEmpty(vaults) {
				break
			}
			continue
		}

		if len(vault) == 1 {
			// Ordinary user: a single anonymous query.
			cred := vault[0]
			ev, err := client.Query(cred, "")
			if err != nil {
				return nil, nil, err
			}
			truth.record(ev, cred)
			produced++
			g.maybeClean(rng, leakedSet, vaults, userIdx, 0)
			continue
		}

		// Password-manager user: the whole vault is checked in one session.
		session := fmt.Sprintf("pm-%04d", userIdx)
		if rng.Float64() < g.Scenario.Asyn {
			rng.Shuffle(len(vault), func(i, j int) { vault[i], vault[j] = vault[j], vault[i] })
		}
		entries := append([]Credential(nil), vault...)
		for pos, cred := range entries {
			if rng.Float64() < g.Scenario.Intercept {
				if foreign, ok := g.pickForeign(rng, vaults, userIdx); ok {
					ev, err := client.Query(foreign, "")
					if err != nil {
						return nil, nil, err
					}
					truth.record(ev, foreign)
					produced++
				}
			}
			ev, err := client.Query(cred, session)
			if err != nil {
				return nil, nil, err
			}
			truth.record(ev, cred)
			produced++
			g.maybeClean(rng, leakedSet, vaults, userIdx, pos)
		}
		g.mutateVault(rng, vaults, userIdx)
	}

	return log, truth, nil
}

// maybeClean rotates a queried credential to a fresh password when it is
// known leaked and the user acts on it.
func (g *TraceGenerator) maybeClean(rng *rand.Rand, leakedSet map[string]bool, vaults [][]Credential, userIdx, pos int) {
	vault := vaults[userIdx]
	if pos >= len(vault) {
		return
	}
	cred := vault[pos]
	if leakedSet[string(g.Scheme.material(cred))] && rng.Float64() < g.Scenario.Clean {
		vault[pos] = Credential{Username: cred.Username, Password: randPassword(rng, 12)}
	}
}

func (g *TraceGenerator) pickForeign(rng *rand.Rand, vaults [][]Credential, exclude int) (Credential, bool) {
	other := rng.Intn(len(vaults))
	if other == exclude || len(vaults[other]) == 0 {
		return Credential{}, false
	}
	return vaults[other][rng.Intn(len(vaults[other]))], true
}

// mutateVault applies the active-user behaviors: add, delete and update of
// random vault entries, each with the configured probability.
func (g *TraceGenerator) mutateVault(rng *rand.Rand, vaults [][]Credential, userIdx int) {
	vault := vaults[userIdx]
	if rng.Float64() < g.Scenario.Active && len(vault) > 0 {
		username := vault[rng.Intn(len(vault))].Username
		vault = append(vault, Credential{Username: username, Password: randPassword(rng, 12)})
	}
	if rng.Float64() < g.Scenario.Active && len(vault) > 0 {
		drop := rng.Intn(len(vault))
		vault = append(vault[:drop], vault[drop+1:]...)
	}
	if rng.Float64() < g.Scenario.Active && len(vault) > 0 {
		pos := rng.Intn(len(vault))
		vault[pos] = Credential{Username: vault[pos].Username, Password: randPassword(rng, 12)}
	}
	vaults[userIdx] = vault
}

func allEmpty(vaults [][]Credential) bool {
	for _, v := range vaults {
		if len(v) > 0 {
			return false
		}
	}
	return true
}
