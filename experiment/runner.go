package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/attack"
	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/c3"
	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/eval"
	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/store"
)

// RunResult bundles everything one experiment run produced.
type RunResult struct {
	RunID  string       `json:"run_id"`
	Config *Config      `json:"config"`
	Report *eval.Report `json:"report"`
	Errors []string     `json:"errors,omitempty"`

	// Results holds every individual attack result, in attack order.
	Results []*attack.Result `json:"results"`

	log   *c3.QueryLog
	index *c3.BucketIndex
}

// QueryLog returns the simulated query log of the run.
func (r *RunResult) QueryLog() *c3.QueryLog { return r.log }

// Index returns the bucket index of the run.
func (r *RunResult) Index() *c3.BucketIndex { return r.index }

// Runner executes experiment runs. Corpus-loading and index-build failures
// abort the run; per-target attack failures are recorded in the result and
// never abort the batch.
type Runner struct {
	Config *Config
	Log    *slog.Logger

	// Scorer backs the credential-guessing strategy. When nil the guessing
	// strategy is skipped and the skip recorded, since it cannot run without
	// an external model.
	Scorer attack.Scorer
}

func (r *Runner) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

// Run executes one full simulate-attack-evaluate cycle.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	cfg := r.Config
	log := r.logger()
	scheme := cfg.Scheme.Scheme()

	leaked, source, err := r.loadCorpora()
	if err != nil {
		return nil, err
	}
	log.Info("corpora loaded",
		"leaked_users", len(leaked.Users), "leaked_credentials", leaked.Len(),
		"source_users", len(source.Users), "source_credentials", source.Len())

	var cache *store.Cache
	if cfg.CacheDir != "" {
		cache, err = store.OpenCache(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		defer cache.Close()
	}

	index, err := r.buildIndex(cache, leaked, scheme)
	if err != nil {
		return nil, err
	}
	log.Info("bucket index ready", "buckets", index.NumBuckets(), "records", index.TotalRecords())

	queryLog, truth, err := r.simulate(cache, index, leaked, source, scheme)
	if err != nil {
		return nil, err
	}
	log.Info("query trace ready", "events", queryLog.Len(), "sessions", len(queryLog.Sessions()))

	result := &RunResult{
		RunID:  uuid.NewString(),
		Config: cfg,
		log:    queryLog,
		index:  index,
	}
	r.runAttacks(ctx, result, queryLog, index, truth)

	result.Report = eval.Evaluate(result.Results, attack.LogTruth{T: truth}, eval.Options{})
	log.Info("evaluation complete", "attacks", len(result.Report.Attacks), "results", len(result.Results))

	if cfg.Postgres != nil {
		reports, err := store.NewPostgresStore(cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connecting report sink: %w", err)
		}
		defer reports.Close()
		if err := reports.SaveReport(result.RunID, result.Report); err != nil {
			return nil, fmt.Errorf("persisting report: %w", err)
		}
	}

	return result, nil
}

func (r *Runner) loadCorpora() (leaked, source *c3.Corpus, err error) {
	cfg := r.Config
	if cfg.LeakedPath != "" && cfg.SourcePath != "" {
		if leaked, err = c3.LoadCorpus(cfg.LeakedPath); err != nil {
			return nil, nil, err
		}
		if source, err = c3.LoadCorpus(cfg.SourcePath); err != nil {
			return nil, nil, err
		}
		return leaked, source, nil
	}
	corpus, err := c3.LoadCorpus(cfg.CorpusPath)
	if err != nil {
		return nil, nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	leaked, source = c3.SplitCredentials(corpus, cfg.SplitRatio, rng)
	return leaked, source, nil
}

func (r *Runner) buildIndex(cache *store.Cache, leaked *c3.Corpus, scheme c3.Scheme) (*c3.BucketIndex, error) {
	if cache != nil {
		key := store.IndexKey(leaked.Digest(), scheme)
		if index, err := cache.GetIndex(key); err == nil {
			r.logger().Info("bucket index loaded from cache", "key", key)
			return index, nil
		} else if !errors.Is(err, store.ErrCacheMiss) {
			return nil, err
		}
		index, err := c3.BuildIndex(leaked, scheme)
		if err != nil {
			return nil, err
		}
		if err := cache.PutIndex(key, index); err != nil {
			return nil, err
		}
		return index, nil
	}
	return c3.BuildIndex(leaked, scheme)
}

func (r *Runner) simulate(cache *store.Cache, index *c3.BucketIndex, leaked, source *c3.Corpus, scheme c3.Scheme) (*c3.QueryLog, *c3.GroundTruth, error) {
	cfg := r.Config
	logKey := store.QueryLogKey(leaked.Digest(), scheme, source.Digest(), cfg.Seed)
	truthKey := "truth/" + logKey

	if cache != nil {
		queryLog, err := cache.GetQueryLog(logKey)
		if err == nil {
			data, terr := cache.Get(truthKey)
			if terr == nil {
				truth, derr := c3.DecodeBytes[c3.GroundTruth](data)
				if derr == nil {
					r.logger().Info("query trace loaded from cache", "key", logKey)
					return queryLog, truth, nil
				}
			}
		} else if !errors.Is(err, store.ErrCacheMiss) {
			return nil, nil, err
		}
	}

	gen := &c3.TraceGenerator{
		Scheme:     scheme,
		Scenario:   cfg.Scenario,
		NumQueries: cfg.NumQueries,
		Seed:       cfg.Seed,
	}
	queryLog, truth, err := gen.Generate(index, leaked, source)
	if err != nil {
		return nil, nil, fmt.Errorf("simulating trace: %w", err)
	}

	if cache != nil {
		if err := cache.PutQueryLog(logKey, queryLog); err != nil {
			return nil, nil, err
		}
		data, err := c3.Serialize(truth)
		if err != nil {
			return nil, nil, fmt.Errorf("serializing ground truth: %w", err)
		}
		if err := cache.Put(truthKey, data); err != nil {
			return nil, nil, err
		}
	}
	return queryLog, truth, nil
}

// runAttacks executes every configured strategy against its natural targets:
// per-query strategies against each event, cross-query strategies against
// each linked session group. Failures are isolated per target.
func (r *Runner) runAttacks(ctx context.Context, result *RunResult, queryLog *c3.QueryLog, index *c3.BucketIndex, truth *c3.GroundTruth) {
	cfg := r.Config
	lt := attack.LogTruth{T: truth}

	lid := &attack.LIdentify{Threshold: cfg.LThreshold, Truth: lt}
	guess := &attack.Guess{Scorer: r.Scorer, Truth: lt}
	for _, ev := range queryLog.Events {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, ctx.Err().Error())
			return
		}
		r.collect(result, lid, queryLog, index, ev.ID)
		if r.Scorer != nil {
			r.collect(result, guess, queryLog, index, ev.ID)
		}
	}
	if r.Scorer == nil {
		result.Errors = append(result.Errors, attack.ErrScorerUnavailable.Error())
	}

	combine := &attack.RangeCombine{Truth: lt}
	connect := &attack.Connect{MinSupport: cfg.MinSupport, Truth: lt}
	for _, session := range queryLog.Sessions() {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, ctx.Err().Error())
			return
		}
		r.collect(result, combine, queryLog, index, session)
		r.collect(result, connect, queryLog, index, session)
	}
}

func (r *Runner) collect(result *RunResult, strategy attack.Strategy, queryLog *c3.QueryLog, index *c3.BucketIndex, target string) {
	res, err := strategy.Run(queryLog, index, target)
	if err != nil {
		r.logger().Warn("attack failed", "attack", strategy.Name(), "target", target, "err", err)
		result.Errors = append(result.Errors, fmt.Sprintf("%s/%s: %v", strategy.Name(), target, err))
		return
	}
	result.Results = append(result.Results, res)
}
