package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresCorpusDir(t *testing.T) {
	t.Setenv("CORPUS_DIR", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CORPUS_DIR", "/data/corpus")
	t.Setenv("SERVER_ADDR", "")
	t.Setenv("PIPELINE_WORKERS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/data/corpus", cfg.CorpusDir)
	assert.Equal(t, ":5000", cfg.ServerAddr)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoadWorkersOverride(t *testing.T) {
	t.Setenv("CORPUS_DIR", "/data/corpus")
	t.Setenv("PIPELINE_WORKERS", "12")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Workers)
}

func TestLoadRejectsBadWorkerCount(t *testing.T) {
	t.Setenv("CORPUS_DIR", "/data/corpus")
	for _, bad := range []string{"0", "-2", "many"} {
		t.Setenv("PIPELINE_WORKERS", bad)
		_, err := Load()
		assert.Error(t, err, bad)
	}
}
