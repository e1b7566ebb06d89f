package extractor

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/xhad/papertag/internal/errors"
	"github.com/xhad/papertag/internal/models"
)

func writeFile(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestOpenPDFClosesFileWhenCountPanics(t *testing.T) {
	path := writeFile(t, "%PDF-1.4\n")

	var seen *os.File
	assert.Panics(t, func() {
		_, _ = openPDF(path, func(rs io.ReadSeeker) (int, error) {
			seen = rs.(*os.File)
			panic("corrupt object stream")
		})
	})
	require.NotNil(t, seen)
	assert.ErrorIs(t, seen.Close(), os.ErrClosed)
}

func TestOpenPDFClosesFileWhenValidationFails(t *testing.T) {
	path := writeFile(t, "%PDF-1.4\n")

	var seen *os.File
	_, err := openPDF(path, func(rs io.ReadSeeker) (int, error) {
		seen = rs.(*os.File)
		return 0, errors.New("xref table corrupt")
	})
	assert.ErrorContains(t, err, "validate pdf")
	require.NotNil(t, seen)
	assert.ErrorIs(t, seen.Close(), os.ErrClosed)
}

func TestExtractPanicInOpenIsUnreadable(t *testing.T) {
	path := writeFile(t, "%PDF-1.4\n")
	e := NewWithConfig(ExtractorConfig{
		Opener: func(p string) (Pages, error) {
			return openPDF(p, func(io.ReadSeeker) (int, error) {
				panic("corrupt object stream")
			})
		},
	})

	_, err := e.Extract(models.Document{Path: path, Filename: "paper.pdf"})
	assert.True(t, apperrors.Is(err, apperrors.KindUnreadable), "got %v", err)
}
