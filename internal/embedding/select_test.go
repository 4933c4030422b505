package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/config"
)

func openAISection() *config.OpenAIEmbedderConfig {
	return &config.OpenAIEmbedderConfig{
		BaseURL:   "https://api.openai.com/v1",
		APIKeyEnv: "TEST_EMBED_KEY",
		Model:     "text-embedding-3-small",
	}
}

func TestSelectLocal(t *testing.T) {
	e, err := Select(config.EmbedderConfig{Type: "local", Dimension: 64})
	require.NoError(t, err)
	assert.Equal(t, "hashing:64", e.Name())
	assert.Equal(t, 64, e.Dimension())
}

func TestSelectOpenAI(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "secret")
	e, err := Select(config.EmbedderConfig{Type: "openai", OpenAI: openAISection()})
	require.NoError(t, err)
	assert.Equal(t, "openai:text-embedding-3-small", e.Name())
	assert.Equal(t, 1536, e.Dimension())
}

func TestSelectOpenAIWithoutCredential(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "")
	_, err := Select(config.EmbedderConfig{Type: "openai", OpenAI: openAISection()})
	require.Error(t, err)
}

func TestSelectAutoPrefersHostedWhenCredentialSet(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "secret")
	e, err := Select(config.EmbedderConfig{Type: "auto", Dimension: 128, OpenAI: openAISection()})
	require.NoError(t, err)
	assert.Equal(t, "openai:text-embedding-3-small", e.Name())
}

func TestSelectAutoFallsBackToLocal(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "")
	e, err := Select(config.EmbedderConfig{Type: "auto", Dimension: 128, OpenAI: openAISection()})
	require.NoError(t, err)
	assert.Equal(t, "hashing:128", e.Name())
}

func TestSelectUnknownType(t *testing.T) {
	_, err := Select(config.EmbedderConfig{Type: "quantum"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown embedder")
}
