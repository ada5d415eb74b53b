package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	conf, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, conf.MainConfig.Port)
	assert.Equal(t, "text-embedding-3-small", conf.AIConfig.Embedding.Model)
	assert.Equal(t, "gpt-4o-mini", conf.AIConfig.ChatModel.Model)
	assert.Equal(t, 1536, conf.MilvusConfig.VectorDim)
	assert.Equal(t, 1000, conf.RAGConfig.ChunkSize)
	assert.Equal(t, 200, conf.RAGConfig.ChunkOverlap)
	assert.Equal(t, 5, conf.RAGConfig.TopK)
	assert.InDelta(t, 0.7, conf.RAGConfig.MinScore, 1e-6)
	assert.NotEmpty(t, conf.RAGConfig.SystemPrompt)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
[mainConfig]
port = 9000

[vectorStoreConfig]
backend = "memory"

[aiConfig.embedding]
provider = "mock"
dimensions = 64

[ragConfig]
chunkSize = 500
chunkOverlap = 50
`)
	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, conf.MainConfig.Port)
	assert.Equal(t, "memory", conf.VectorStoreConfig.Backend)
	assert.Equal(t, "mock", conf.AIConfig.Embedding.Provider)
	assert.Equal(t, 64, conf.MilvusConfig.VectorDim)
	assert.Equal(t, 500, conf.RAGConfig.ChunkSize)
	assert.Equal(t, 50, conf.RAGConfig.ChunkOverlap)
	// 未出现在文件中的字段保留默认值
	assert.Equal(t, 100, conf.VectorStoreConfig.UpsertBatchSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[ragConfig]
topK = 3
`)
	t.Setenv("TOP_K", "8")
	t.Setenv("MIN_SCORE", "0.5")
	t.Setenv("CHAT_MODEL", "gpt-4o")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, conf.RAGConfig.TopK)
	assert.InDelta(t, 0.5, conf.RAGConfig.MinScore, 1e-6)
	assert.Equal(t, "gpt-4o", conf.AIConfig.ChatModel.Model)
	assert.Equal(t, "sk-test", conf.AIConfig.Embedding.APIKey)
	assert.Equal(t, "sk-test", conf.AIConfig.ChatModel.APIKey)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "large")
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "[mainConfig\nport = "))
	require.Error(t, err)
}
