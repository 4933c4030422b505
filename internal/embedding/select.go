package embedding

import (
	"fmt"
	"os"
	"time"

	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding/hashing"
	"docqa/internal/embedding/openai"
)

// Select resolves the configured embedding backend. The choice is made once
// per vector-store lifetime and then held fixed: the store refuses entries
// from a different backend, so callers must not re-select mid-lifetime.
//
// Type "auto" uses the hosted backend when its credential env var is set
// and the local hashing vectorizer otherwise.
func Select(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "local":
		return hashing.NewEmbedder(cfg.Dimension), nil
	case "openai":
		return hostedClient(cfg)
	case "auto", "":
		if cfg.OpenAI != nil && os.Getenv(cfg.OpenAI.APIKeyEnv) != "" {
			return hostedClient(cfg)
		}
		return hashing.NewEmbedder(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

func hostedClient(cfg config.EmbedderConfig) (domain.Embedder, error) {
	if cfg.OpenAI == nil {
		return nil, fmt.Errorf("openai embedder config missing")
	}
	return openai.NewClient(openai.Config{
		BaseURL:   cfg.OpenAI.BaseURL,
		APIKeyEnv: cfg.OpenAI.APIKeyEnv,
		Model:     cfg.OpenAI.Model,
		Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
	})
}
