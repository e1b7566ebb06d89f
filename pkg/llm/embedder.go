package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
)

// EmbedderConfig represents the configuration for a fragment embedder.
type EmbedderConfig struct {
	Model   string
	BaseURL string // Ollama server URL
}

// NewEmbedder returns an Ollama model used to embed abstracts for the postgres store.
func NewEmbedder(config EmbedderConfig) (*ollama.LLM, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest" // Default Ollama model
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}

	emb, err := ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	return emb, nil
}
