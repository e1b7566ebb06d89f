package store

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/xhad/papertag/internal/models"
	"github.com/xhad/papertag/internal/types"
)

type PostgresConfig struct {
	ConnString  string
	TablePrefix string
	Categories  []string
	Embedder    types.Embedder
	VectorDim   int
}

// PostgresStore keeps one table per category in PostgreSQL. With an embedder
// configured each row also stores a pgvector embedding of its abstract.
type PostgresStore struct {
	config PostgresConfig
	pool   *pgxpool.Pool
}

func NewPostgres(ctx context.Context, config PostgresConfig) (*PostgresStore, error) {
	if config.TablePrefix == "" {
		config.TablePrefix = "papers"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ps := &PostgresStore{
		config: config,
		pool:   pool,
	}

	if config.Embedder != nil {
		// Enable pgvector extension
		if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create vector extension: %w", err)
		}
	}

	return ps, nil
}

func (ps *PostgresStore) Persist(ctx context.Context, rows []models.Row) []types.DestinationResult {
	return persist(ctx, ps, rows, ps.config.Categories)
}

func (ps *PostgresStore) Close() error {
	if ps.pool != nil {
		ps.pool.Close()
	}
	return nil
}

func (ps *PostgresStore) destination(category string) string {
	return tableName(ps.config.TablePrefix, resolveCategory(category, ps.config.Categories))
}

func (ps *PostgresStore) appendRows(ctx context.Context, category string, rows []models.Row) (int, error) {
	table := ps.destination(category)
	ident := pgx.Identifier{table}.Sanitize()

	// Embed before opening the transaction.
	var vectors []pgvector.Vector
	if ps.config.Embedder != nil {
		texts := make([]string, len(rows))
		for i, row := range rows {
			texts[i] = sanitizeUTF8(row.Fragment)
		}
		embeddings, err := ps.config.Embedder.CreateEmbedding(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("failed to create embeddings: %w", err)
		}
		if len(embeddings) != len(rows) {
			return 0, fmt.Errorf("embedder returned %d vectors for %d rows", len(embeddings), len(rows))
		}
		for _, emb := range embeddings {
			vectors = append(vectors, pgvector.NewVector(emb))
		}
	}

	// Begin transaction
	tx, err := ps.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", table).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check table: %w", err)
	}

	if !exists {
		embeddingColumn := ""
		if ps.config.Embedder != nil {
			embeddingColumn = fmt.Sprintf(",\n\t\t\t\tembedding vector(%d)", ps.config.VectorDim)
		}
		createTable := fmt.Sprintf(`
			CREATE TABLE %s (
				id BIGSERIAL PRIMARY KEY,
				title TEXT NOT NULL,
				abstract TEXT NOT NULL,
				category TEXT NOT NULL,
				pdf_file TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()%s
			)`, ident, embeddingColumn)
		if _, err := tx.Exec(ctx, createTable); err != nil {
			return 0, fmt.Errorf("failed to create table: %w", err)
		}
	}

	for i, row := range rows {
		args := []any{
			sanitizeUTF8(row.Title),
			sanitizeUTF8(row.Fragment),
			sanitizeUTF8(row.Category),
			sanitizeUTF8(row.Filename),
		}
		stmt := fmt.Sprintf(`INSERT INTO %s (title, abstract, category, pdf_file) VALUES ($1, $2, $3, $4)`, ident)
		if vectors != nil {
			stmt = fmt.Sprintf(`INSERT INTO %s (title, abstract, category, pdf_file, embedding) VALUES ($1, $2, $3, $4, $5)`, ident)
			args = append(args, vectors[i])
		}
		if _, err := tx.Exec(ctx, stmt, args...); err != nil {
			return 0, fmt.Errorf("failed to insert row: %w", err)
		}
	}

	var total int
	if err := tx.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", ident)).Scan(&total); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}

	// Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return total, nil
}

// sanitizeUTF8 drops invalid byte sequences, which PostgreSQL rejects in TEXT columns.
func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
