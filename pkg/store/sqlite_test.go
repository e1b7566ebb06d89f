package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/papertag/internal/models"
)

func TestSQLiteAppendsPerCategory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", "papers.db")

	s, err := Open(ctx, StoreConfig{Backend: "sqlite", SQLitePath: path, Categories: testCategories})
	require.NoError(t, err)
	defer s.Close()

	results := s.Persist(ctx, []models.Row{
		row("a", "Computer Vision"),
		row("b", "Robotics"),
	})
	require.Len(t, results, 2)
	assert.Equal(t, "papers_computer_vision", results[0].Destination)
	assert.Equal(t, 1, results[0].Total)
	assert.Equal(t, "papers_unknown", results[1].Destination)
	assert.NoError(t, results[1].Err)

	results = s.Persist(ctx, []models.Row{row("c", "Computer Vision"), row("d", "Computer Vision")})
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Written)
	assert.Equal(t, 3, results[0].Total)

	sqlite := s.(*SQLiteStore)
	var category string
	require.NoError(t, sqlite.db.QueryRowContext(ctx, `SELECT category FROM "papers_unknown"`).Scan(&category))
	assert.Equal(t, "Robotics", category)
}

func TestSQLiteReopenKeepsRows(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "papers.db")

	first, err := NewSQLite(ctx, path, "papers", testCategories)
	require.NoError(t, err)
	first.Persist(ctx, []models.Row{row("a", "Optimization")})
	require.NoError(t, first.Close())

	second, err := NewSQLite(ctx, path, "papers", testCategories)
	require.NoError(t, err)
	defer second.Close()

	results := second.Persist(ctx, []models.Row{row("b", "Optimization")})
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Total)
}
