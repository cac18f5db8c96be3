package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 1000, cfg.RAG.ChunkSize)
	assert.Equal(t, 0.30, cfg.RAG.SimilarityThreshold)
	assert.Equal(t, 0.15, cfg.RAG.Boosts.Wiring)
}

func TestLoadConfig_PartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rag:\n  chunk_size: 400\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.RAG.ChunkSize)
	assert.Equal(t, 5, cfg.RAG.TopK, "unset fields fall back to defaults")
	assert.NotEmpty(t, cfg.Embed.BaseURL)
}

func TestLoadConfig_EnvOverridesKey(t *testing.T) {
	t.Setenv("EMBEDDING_API_KEY", "sk-test")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Embed.Key)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\t not yaml"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
