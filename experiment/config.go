package experiment

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/c3"
	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/store"
)

// SchemeConfig mirrors c3.Scheme for file configuration.
type SchemeConfig struct {
	Algorithm  string `yaml:"algorithm"`
	Basis      string `yaml:"basis"`
	PrefixBits int    `yaml:"prefix_bits"`
}

// Scheme converts to the protocol scheme, filling defaults.
func (s SchemeConfig) Scheme() c3.Scheme {
	scheme := c3.DefaultScheme()
	if s.Algorithm != "" {
		scheme.Algorithm = s.Algorithm
	}
	if s.Basis != "" {
		scheme.Basis = s.Basis
	}
	if s.PrefixBits != 0 {
		scheme.PrefixBits = s.PrefixBits
	}
	return scheme
}

// Config describes one experiment run.
type Config struct {
	// CorpusPath is the breach corpus the server indexes. When LeakedPath
	// and SourcePath are empty the corpus is split with SplitRatio instead.
	CorpusPath string `yaml:"corpus_path"`

	// LeakedPath and SourcePath optionally supply pre-split datasets.
	LeakedPath string `yaml:"leaked_path"`
	SourcePath string `yaml:"source_path"`

	// SplitRatio is the per-credential probability of landing in the leaked
	// part when splitting CorpusPath. Defaults to 0.9.
	SplitRatio float64 `yaml:"split_ratio"`

	Scheme   SchemeConfig      `yaml:"scheme"`
	Scenario c3.ScenarioConfig `yaml:"scenario"`

	// NumQueries is the simulated query budget.
	NumQueries int `yaml:"num_queries"`

	// Seed drives all simulation randomness.
	Seed int64 `yaml:"seed"`

	// LThreshold is the l-identifying decline threshold. Defaults to 2.
	LThreshold int `yaml:"l_threshold"`

	// MinSupport is the connecting attack's corroboration floor. Zero means
	// full corroboration.
	MinSupport int `yaml:"min_support"`

	// CacheDir enables the badger artifact cache when non-empty.
	CacheDir string `yaml:"cache_dir"`

	// Postgres enables the report sink when non-nil.
	Postgres *store.PostgresConfig `yaml:"postgres"`
}

// LoadConfig reads a YAML config file and applies defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SplitRatio == 0 {
		c.SplitRatio = 0.9
	}
	if c.LThreshold == 0 {
		c.LThreshold = 2
	}
	if c.NumQueries == 0 {
		c.NumQueries = 1000
	}
}

func (c *Config) validate() error {
	if c.CorpusPath == "" && (c.LeakedPath == "" || c.SourcePath == "") {
		return fmt.Errorf("config: either corpus_path or both leaked_path and source_path are required")
	}
	return c.Scheme.Scheme().Validate()
}
