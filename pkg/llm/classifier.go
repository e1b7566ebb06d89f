package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/xhad/papertag/internal/errors"
	"github.com/xhad/papertag/internal/models"
	"github.com/xhad/papertag/internal/types"
)

// ClassifierConfig represents the configuration for a classifier.
type ClassifierConfig struct {
	Categories []string
	Policy     Policy
	// Timeout bounds a single remote call. Zero disables it.
	Timeout time.Duration
	Sleeper Sleeper
}

// Classifier labels documents through a text generation service.
type Classifier struct {
	config    ClassifierConfig
	generator types.Generator
}

// NewClassifier creates a new Classifier with the given configuration.
func NewClassifier(config ClassifierConfig, generator types.Generator) (*Classifier, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if len(config.Categories) == 0 {
		config.Categories = models.DefaultCategories
	}
	if config.Policy.MaxAttempts == 0 {
		config.Policy = DefaultPolicy
	}
	if config.Policy.MaxAttempts > DefaultPolicy.MaxAttempts {
		slog.Warn("clamping classification attempts", "requested", config.Policy.MaxAttempts, "max", DefaultPolicy.MaxAttempts)
		config.Policy.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if config.Policy.MaxAttempts < 0 {
		return nil, fmt.Errorf("max attempts cannot be negative")
	}
	if config.Sleeper == nil {
		config.Sleeper = sleepContext
	}

	return &Classifier{
		config:    config,
		generator: generator,
	}, nil
}

// Prompt builds the classification request for one document.
func (c *Classifier) Prompt(title, fragment string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classify the following research paper into one of these categories: %s.\n", strings.Join(c.config.Categories, ", "))
	b.WriteString("Respond with exactly one category name from the list and nothing else.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", title)
	fmt.Fprintf(&b, "Abstract: %s\n\n", fragment)
	b.WriteString("Category:")
	return b.String()
}

// Classify returns the service's label for the document, or models.Unknown when
// every attempt fails. It never returns an error.
func (c *Classifier) Classify(ctx context.Context, title, fragment string) string {
	label, err := c.classify(ctx, title, fragment)
	if err != nil {
		slog.Warn("classification failed", "title", title, "kind", apperrors.KindOf(err), "error", err)
		return models.Unknown
	}
	return label
}

func (c *Classifier) classify(ctx context.Context, title, fragment string) (string, error) {
	prompt := c.Prompt(title, fragment)
	policy := c.config.Policy

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		text, err := c.generate(ctx, prompt)
		if err == nil {
			// Every success is followed by the cooldown, including the last one.
			if sleepErr := c.config.Sleeper(ctx, policy.Cooldown); sleepErr != nil {
				slog.Debug("cooldown interrupted", "error", sleepErr)
			}
			return strings.TrimSpace(text), nil
		}

		slog.Warn("classification attempt failed", "title", title, "attempt", attempt, "max_attempts", policy.MaxAttempts, "error", err)

		if !IsQuotaError(err) {
			return "", apperrors.NewService(err)
		}

		lastErr = apperrors.NewQuota(err)
		slog.Warn("service quota exhausted, backing off", "delay", policy.QuotaBackoff)
		if sleepErr := c.config.Sleeper(ctx, policy.QuotaBackoff); sleepErr != nil {
			return "", sleepErr
		}
	}

	return "", lastErr
}

func (c *Classifier) generate(ctx context.Context, prompt string) (string, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}
	return c.generator.Generate(ctx, prompt)
}
