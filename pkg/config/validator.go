package config

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/xhad/papertag/internal/errors"
	"github.com/xhad/papertag/internal/models"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	switch c.LLM.Provider {
	case ProviderGoogleAI, ProviderVertex, ProviderOllama:
	default:
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unknown provider %q", c.LLM.Provider),
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 1",
		})
	}

	if c.LLM.Timeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.timeout",
			Message: "timeout must not be negative",
		})
	}

	if c.LLM.BaseURL != "" {
		if u, err := url.Parse(c.LLM.BaseURL); err != nil || u.Scheme == "" {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "invalid base URL",
			})
		}
	}

	// Validate Pipeline config
	if c.Pipeline.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "pipeline.batch_size",
			Message: "batch_size must be positive",
		})
	}

	if c.Pipeline.DailyLimit < 1 {
		errors = append(errors, ValidationError{
			Field:   "pipeline.daily_limit",
			Message: "daily_limit must be positive",
		})
	}

	if c.Pipeline.FragmentLength < 1 {
		errors = append(errors, ValidationError{
			Field:   "pipeline.fragment_length",
			Message: "fragment_length must be positive",
		})
	}

	if !strings.HasPrefix(c.Pipeline.Extension, ".") {
		errors = append(errors, ValidationError{
			Field:   "pipeline.extension",
			Message: fmt.Sprintf("invalid extension format: %s", c.Pipeline.Extension),
		})
	}

	seen := make(map[string]bool)
	for _, category := range c.Pipeline.Categories {
		if strings.TrimSpace(category) == "" || category == models.Unknown {
			errors = append(errors, ValidationError{
				Field:   "pipeline.categories",
				Message: fmt.Sprintf("invalid category name: %q", category),
			})
			continue
		}
		if seen[category] {
			errors = append(errors, ValidationError{
				Field:   "pipeline.categories",
				Message: fmt.Sprintf("duplicate category: %s", category),
			})
		}
		seen[category] = true
	}

	// Validate Backoff config
	if c.Backoff.MaxAttempts < 1 || c.Backoff.MaxAttempts > MaxClassifyAttempts {
		errors = append(errors, ValidationError{
			Field:   "backoff.max_attempts",
			Message: fmt.Sprintf("max_attempts must be between 1 and %d", MaxClassifyAttempts),
		})
	}

	if c.Backoff.Cooldown < 0 || c.Backoff.QuotaBackoff < 0 {
		errors = append(errors, ValidationError{
			Field:   "backoff",
			Message: "delays must not be negative",
		})
	}

	// Validate Store config
	switch c.Store.Backend {
	case BackendCSV, BackendSQLite:
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			errors = append(errors, ValidationError{
				Field:   "store.database_url",
				Message: "database_url is required for the postgres backend",
			})
		} else if _, err := url.Parse(c.Store.DatabaseURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "store.database_url",
				Message: "invalid database URL",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "store.backend",
			Message: fmt.Sprintf("unknown backend %q", c.Store.Backend),
		})
	}

	if c.Store.Embed && c.Store.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "store.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	// Validate Scraper config
	if c.Scraper.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scraper.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	return errors
}

// CheckCredential reports a missing service credential for the configured provider.
func (c *Config) CheckCredential() error {
	switch c.LLM.Provider {
	case ProviderGoogleAI:
		if c.LLM.APIKey == "" {
			return apperrors.NewMissingCredential("llm.api_key is required (set GEMINI_API_KEY)")
		}
	case ProviderVertex:
		if c.LLM.Project == "" {
			return apperrors.NewMissingCredential("llm.project is required (set GOOGLE_CLOUD_PROJECT)")
		}
	case ProviderOllama:
		if c.LLM.BaseURL == "" {
			return apperrors.NewMissingCredential("llm.base_url is required (set OLLAMA_BASE_URL)")
		}
	}
	return nil
}
