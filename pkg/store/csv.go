package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	apperrors "github.com/xhad/papertag/internal/errors"
	"github.com/xhad/papertag/internal/models"
	"github.com/xhad/papertag/internal/types"
)

// CSVStore keeps one CSV file per category under a directory.
type CSVStore struct {
	dir        string
	categories []string
}

func NewCSV(dir string, categories []string) *CSVStore {
	return &CSVStore{dir: dir, categories: categories}
}

func (s *CSVStore) Persist(ctx context.Context, rows []models.Row) []types.DestinationResult {
	return persist(ctx, s, rows, s.categories)
}

func (s *CSVStore) Close() error {
	return nil
}

func (s *CSVStore) destination(category string) string {
	name := resolveCategory(category, s.categories)
	name = strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	return filepath.Join(s.dir, name+".csv")
}

func (s *CSVStore) appendRows(ctx context.Context, category string, rows []models.Row) (int, error) {
	path := s.destination(category)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return 0, err
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return 0, err
	}
	if !locked {
		return 0, apperrors.NewLocked(path)
	}
	defer lock.Unlock()

	// A zero-byte file has no header yet.
	info, statErr := os.Stat(path)
	exists := statErr == nil && info.Size() > 0

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return 0, err
	}

	w := csv.NewWriter(f)
	if !exists {
		if err := w.Write(models.Columns); err != nil {
			f.Close()
			return 0, err
		}
	}
	for _, row := range rows {
		if err := w.Write(row.Record()); err != nil {
			f.Close()
			return 0, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, err
	}

	total, err := countCSVRows(path)
	if err != nil {
		slog.Warn("rows written but table could not be counted", "destination", path, "error", err)
		return types.UnknownTotal, nil
	}
	return total, nil
}

// countCSVRows returns the number of data rows in a CSV file with a header.
func countCSVRows(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(models.Columns)
	records, err := r.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	return len(records) - 1, nil
}
