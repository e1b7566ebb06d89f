package llm

import (
	"context"
	"testing"

	"cloud.google.com/go/vertexai/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackendOllama(t *testing.T) {
	backend, err := NewBackend(context.Background(), GeneratorConfig{
		Provider:    "ollama",
		Model:       "mistral",
		BaseURL:     "http://localhost:11434",
		Temperature: 0.2,
	})
	require.NoError(t, err)
	assert.NotNil(t, backend)
	assert.NoError(t, backend.Close())
}

func TestNewBackendRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		config GeneratorConfig
	}{
		{"unknown provider", GeneratorConfig{Provider: "openai"}},
		{"temperature", GeneratorConfig{Provider: "ollama", Temperature: 1.5}},
		{"max tokens", GeneratorConfig{Provider: "ollama", MaxTokens: -1}},
		{"vertex without project", GeneratorConfig{Provider: "vertex", Region: "us-central1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBackend(context.Background(), tt.config)
			assert.Error(t, err)
		})
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Natural Language "), genai.Text("Processing")}},
		}},
	}
	assert.Equal(t, "Natural Language Processing", responseText(resp))
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))
}

func TestNewEmbedder(t *testing.T) {
	emb, err := NewEmbedder(EmbedderConfig{})
	require.NoError(t, err)
	assert.NotNil(t, emb)
}
