package llm

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
)

// GeneratorConfig selects and configures a generation backend.
type GeneratorConfig struct {
	Provider    string // googleai, vertex or ollama
	Model       string
	APIKey      string
	BaseURL     string // Ollama server URL
	Project     string
	Region      string
	Temperature float64
	MaxTokens   int
}

// Backend is a Generator holding a client connection.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

// NewBackend creates the generation backend named by config.Provider.
func NewBackend(ctx context.Context, config GeneratorConfig) (Backend, error) {
	if config.Temperature < 0 || config.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	}

	switch config.Provider {
	case "googleai", "":
		model, err := googleai.New(ctx,
			googleai.WithAPIKey(config.APIKey),
			googleai.WithDefaultModel(config.Model))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize googleai: %w", err)
		}
		return &langchainBackend{config: config, llm: model}, nil
	case "ollama":
		model, err := ollama.New(ollama.WithModel(config.Model),
			ollama.WithServerURL(config.BaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama: %w", err)
		}
		return &langchainBackend{config: config, llm: model}, nil
	case "vertex":
		return newVertexBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unknown provider %q", config.Provider)
	}
}

type langchainBackend struct {
	config GeneratorConfig
	llm    llms.Model
}

func (b *langchainBackend) Generate(ctx context.Context, prompt string) (string, error) {
	var opts []llms.CallOption
	if b.config.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(b.config.Temperature))
	}
	if b.config.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(b.config.MaxTokens))
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, b.llm, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("generate error: %w", err)
	}
	return text, nil
}

func (b *langchainBackend) Close() error {
	return nil
}

type vertexBackend struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func newVertexBackend(ctx context.Context, config GeneratorConfig) (*vertexBackend, error) {
	if config.Project == "" || config.Region == "" {
		return nil, fmt.Errorf("vertex: project and region cannot be empty")
	}

	client, err := genai.NewClient(ctx, config.Project, config.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))
	if config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(config.MaxTokens))
	}

	return &vertexBackend{client: client, model: model}, nil
}

func (b *vertexBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := b.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content from gemini: %w", err)
	}
	return responseText(resp), nil
}

func (b *vertexBackend) Close() error {
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
