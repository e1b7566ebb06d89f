package types

import (
	"context"

	"github.com/xhad/papertag/internal/models"
)

// Core interfaces
type Source interface {
	Documents(ctx context.Context) ([]models.Document, error)
}

type Extractor interface {
	Extract(doc models.Document) (models.ExtractedRecord, error)
}

type Classifier interface {
	Classify(ctx context.Context, title, fragment string) string
}

// Store appends rows to their category tables and reports what happened per destination.
type Store interface {
	Persist(ctx context.Context, rows []models.Row) []DestinationResult
	Close() error
}

// UnknownTotal marks a destination whose rows were written but could not be counted.
const UnknownTotal = -1

type DestinationResult struct {
	Category    string
	Destination string
	Written     int
	// Total is the row count after the write, or UnknownTotal.
	Total int
	Err   error
}

// Generator sends a single prompt to a text generation service.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}
