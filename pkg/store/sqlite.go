package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xhad/papertag/internal/models"
	"github.com/xhad/papertag/internal/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps one table per category in a single SQLite database.
type SQLiteStore struct {
	db         *sql.DB
	path       string
	prefix     string
	categories []string
}

func NewSQLite(ctx context.Context, path, prefix string, categories []string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &SQLiteStore{db: db, path: path, prefix: prefix, categories: categories}, nil
}

func (s *SQLiteStore) Persist(ctx context.Context, rows []models.Row) []types.DestinationResult {
	return persist(ctx, s, rows, s.categories)
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) destination(category string) string {
	return tableName(s.prefix, resolveCategory(category, s.categories))
}

func (s *SQLiteStore) tableExists(ctx context.Context, table string) (bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) appendRows(ctx context.Context, category string, rows []models.Row) (int, error) {
	table := s.destination(category)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := s.tableExists(ctx, table)
	if err != nil {
		return 0, fmt.Errorf("check table: %w", err)
	}
	if !exists {
		createTable := fmt.Sprintf(`
			CREATE TABLE %q (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				abstract TEXT NOT NULL,
				category TEXT NOT NULL,
				pdf_file TEXT NOT NULL,
				created_at TEXT NOT NULL DEFAULT (datetime('now'))
			)`, table)
		if _, err := tx.ExecContext(ctx, createTable); err != nil {
			return 0, fmt.Errorf("failed to create table: %w", err)
		}
	}

	stmt := fmt.Sprintf(`INSERT INTO %q (title, abstract, category, pdf_file) VALUES (?, ?, ?, ?)`, table)
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, stmt, row.Title, row.Fragment, row.Category, row.Filename); err != nil {
			return 0, fmt.Errorf("failed to insert row: %w", err)
		}
	}

	var total int
	if err := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %q`, table)).Scan(&total); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return total, nil
}
