// Package store persists classified rows into per-category append-only tables.
package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"strings"

	apperrors "github.com/xhad/papertag/internal/errors"
	"github.com/xhad/papertag/internal/models"
	"github.com/xhad/papertag/internal/types"
)

type StoreConfig struct {
	Backend     string // csv, sqlite or postgres
	OutputDir   string
	SQLitePath  string
	DatabaseURL string
	TablePrefix string
	Categories  []string
	// Embedder, when set, adds an abstract embedding column to postgres tables.
	Embedder  types.Embedder
	VectorDim int
}

// Open creates the store for config.Backend.
func Open(ctx context.Context, config StoreConfig) (types.Store, error) {
	if len(config.Categories) == 0 {
		config.Categories = models.DefaultCategories
	}
	if config.TablePrefix == "" {
		config.TablePrefix = "papers"
	}

	switch config.Backend {
	case "csv", "":
		return NewCSV(config.OutputDir, config.Categories), nil
	case "sqlite":
		return NewSQLite(ctx, config.SQLitePath, config.TablePrefix, config.Categories)
	case "postgres":
		return NewPostgres(ctx, PostgresConfig{
			ConnString:  config.DatabaseURL,
			TablePrefix: config.TablePrefix,
			Categories:  config.Categories,
			Embedder:    config.Embedder,
			VectorDim:   config.VectorDim,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", config.Backend)
	}
}

// Partition is the set of rows bound for one category table.
type Partition struct {
	Category string
	Rows     []models.Row
}

// PartitionRows groups rows by category in enumeration order, with Unknown last.
// Rows whose category is not enumerated go to Unknown unchanged. Empty partitions
// are omitted.
func PartitionRows(rows []models.Row, categories []string) []Partition {
	known := make(map[string]int, len(categories))
	parts := make([]Partition, 0, len(categories)+1)
	for i, category := range categories {
		known[category] = i
		parts = append(parts, Partition{Category: category})
	}
	unknown := len(parts)
	parts = append(parts, Partition{Category: models.Unknown})

	for _, row := range rows {
		idx, ok := known[row.Category]
		if !ok {
			idx = unknown
		}
		parts[idx].Rows = append(parts[idx].Rows, row)
	}

	out := parts[:0]
	for _, p := range parts {
		if len(p.Rows) > 0 {
			out = append(out, p)
		}
	}
	return out
}

// tableWriter appends rows to the table for one category and returns the
// destination name and the row count it now holds.
type tableWriter interface {
	destination(category string) string
	appendRows(ctx context.Context, category string, rows []models.Row) (total int, err error)
}

// persist writes every non-empty partition. A failure on one destination is
// recorded in its result and does not stop the others.
func persist(ctx context.Context, w tableWriter, rows []models.Row, categories []string) []types.DestinationResult {
	var results []types.DestinationResult
	for _, part := range PartitionRows(rows, categories) {
		dest := w.destination(part.Category)
		result := types.DestinationResult{Category: part.Category, Destination: dest}

		total, err := safeAppend(ctx, w, part)
		if err != nil {
			result.Err = classifyWriteError(dest, err)
			slog.Error("failed to persist rows", "destination", dest, "rows", len(part.Rows), "error", result.Err)
		} else {
			result.Written = len(part.Rows)
			result.Total = total
		}
		results = append(results, result)
	}
	return results
}

func safeAppend(ctx context.Context, w tableWriter, part Partition) (total int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()
	return w.appendRows(ctx, part.Category, part.Rows)
}

func classifyWriteError(dest string, err error) error {
	var appErr *apperrors.Error
	switch {
	case stderrors.As(err, &appErr):
		return err
	case stderrors.Is(err, fs.ErrPermission):
		return apperrors.NewPermission(dest, err)
	default:
		return apperrors.NewPersist(dest, err)
	}
}

func resolveCategory(category string, categories []string) string {
	for _, c := range categories {
		if c == category {
			return category
		}
	}
	return models.Unknown
}

var nonIdent = regexp.MustCompile(`[^a-z0-9]+`)

// tableName turns a category into a SQL identifier, e.g. "Deep Learning" -> papers_deep_learning.
func tableName(prefix, category string) string {
	slug := strings.Trim(nonIdent.ReplaceAllString(strings.ToLower(category), "_"), "_")
	if slug == "" {
		slug = "unnamed"
	}
	return prefix + "_" + slug
}
