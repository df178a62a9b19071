package experiment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielNKU/Credential-extraction-attack-with-query-pattern-leakage/c3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
corpus_path: /data/breach.txt
split_ratio: 0.8
scheme:
  basis: credential
  prefix_bits: 16
scenario:
  asyn: 0.3
  clean: 0.2
num_queries: 500
seed: 7
l_threshold: 3
min_support: 2
cache_dir: /tmp/c3-cache
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/breach.txt", cfg.CorpusPath)
	assert.Equal(t, 0.8, cfg.SplitRatio)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 3, cfg.LThreshold)
	assert.Equal(t, 2, cfg.MinSupport)
	assert.Equal(t, 500, cfg.NumQueries)
	assert.Equal(t, 0.3, cfg.Scenario.Asyn)

	scheme := cfg.Scheme.Scheme()
	assert.Equal(t, c3.AlgorithmSHA256, scheme.Algorithm)
	assert.Equal(t, c3.BasisCredential, scheme.Basis)
	assert.Equal(t, 16, scheme.PrefixBits)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "corpus_path: /data/breach.txt\n"))
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.SplitRatio)
	assert.Equal(t, 2, cfg.LThreshold)
	assert.Equal(t, 1000, cfg.NumQueries)
	assert.Equal(t, c3.DefaultScheme(), cfg.Scheme.Scheme())
	assert.Nil(t, cfg.Postgres)
}

func TestLoadConfigRequiresCorpus(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "seed: 1\n"))
	require.Error(t, err)

	// Pre-split paths are an acceptable substitute.
	cfg, err := LoadConfig(writeConfig(t, "leaked_path: /data/leaked.txt\nsource_path: /data/source.txt\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.CorpusPath)
}

func TestLoadConfigRejectsBadScheme(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
corpus_path: /data/breach.txt
scheme:
  algorithm: md5
`))
	require.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
