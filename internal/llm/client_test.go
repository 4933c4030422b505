package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresCredential(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "TEST_LLM_KEY"})
	require.Error(t, err)
}

func TestNewClientDefaults(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "secret")
	c, err := NewClient(Config{APIKeyEnv: "TEST_LLM_KEY"})
	require.NoError(t, err)
	assert.Equal(t, "mixtral-8x7b-32768", c.Model())
	assert.Equal(t, "https://api.groq.com/openai/v1", c.baseURL)
}

func TestCompleteSendsPromptAndReturnsReply(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "Paris."}},
			},
		})
	}))
	defer srv.Close()

	t.Setenv("TEST_LLM_KEY", "secret")
	c, err := NewClient(Config{APIKeyEnv: "TEST_LLM_KEY", BaseURL: srv.URL, Model: "test-model"})
	require.NoError(t, err)

	reply, err := c.Complete(context.Background(), "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris.", reply)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, "What is the capital of France?", gotReq.Messages[0].Content)
	assert.Zero(t, gotReq.Temperature)
}

func TestCompleteHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	t.Setenv("TEST_LLM_KEY", "secret")
	c, err := NewClient(Config{APIKeyEnv: "TEST_LLM_KEY", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion failed")
}

func TestCompleteAPIErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "model decommissioned"},
		})
	}))
	defer srv.Close()

	t.Setenv("TEST_LLM_KEY", "secret")
	c, err := NewClient(Config{APIKeyEnv: "TEST_LLM_KEY", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model decommissioned")
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	t.Setenv("TEST_LLM_KEY", "secret")
	c, err := NewClient(Config{APIKeyEnv: "TEST_LLM_KEY", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "q")
	require.Error(t, err)
}
