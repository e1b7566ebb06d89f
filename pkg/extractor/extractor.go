package extractor

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	apperrors "github.com/xhad/papertag/internal/errors"
	"github.com/xhad/papertag/internal/models"
)

// Pages is an open document whose pages can be read as plain text.
type Pages interface {
	NumPage() int
	// PageText returns the plain text of page n, counting from 1.
	PageText(n int) (string, error)
	Close() error
}

// Opener opens the document at path.
type Opener func(path string) (Pages, error)

type ExtractorConfig struct {
	FragmentLength int
	Opener         Opener
}

type Extractor struct {
	config ExtractorConfig
}

func NewWithConfig(config ExtractorConfig) *Extractor {
	if config.FragmentLength == 0 {
		config.FragmentLength = 500
	}
	if config.Opener == nil {
		config.Opener = OpenPDF
	}
	return &Extractor{config: config}
}

// Extract reads the first page of doc and returns its title and leading fragment.
// Failures are Unreadable or NoText errors; the document is always closed.
func (e *Extractor) Extract(doc models.Document) (models.ExtractedRecord, error) {
	text, err := e.firstPage(doc.Path)
	if err != nil {
		return models.ExtractedRecord{}, err
	}

	if strings.TrimSpace(text) == "" {
		return models.ExtractedRecord{}, apperrors.NewNoText(doc.Path)
	}

	title := Title(doc.Path)
	if strings.TrimSpace(title) == "" {
		return models.ExtractedRecord{}, apperrors.NewUnreadable(doc.Path, fmt.Errorf("file name has no title"))
	}

	return models.ExtractedRecord{
		Title:    title,
		Fragment: Fragment(text, e.config.FragmentLength),
	}, nil
}

func (e *Extractor) firstPage(path string) (text string, err error) {
	// Malformed files can panic inside the reader.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = apperrors.NewUnreadable(path, fmt.Errorf("read page: %v", r))
		}
	}()

	pages, err := e.config.Opener(path)
	if err != nil {
		return "", apperrors.NewUnreadable(path, err)
	}
	defer pages.Close()

	if pages.NumPage() == 0 {
		return "", apperrors.NewUnreadable(path, nil)
	}

	text, err = pages.PageText(1)
	if err != nil {
		return "", apperrors.NewUnreadable(path, err)
	}
	return text, nil
}

// Title derives a display title from the file name: the extension is dropped
// and underscores become spaces.
func Title(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(base, "_", " ")
}

// Fragment returns the first n characters of text, untouched otherwise.
func Fragment(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}
