package extractor_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/xhad/papertag/internal/errors"
	"github.com/xhad/papertag/internal/models"
	"github.com/xhad/papertag/pkg/extractor"
)

type fakePages struct {
	pages   []string
	readErr error
	panics  bool
	closed  bool
}

func (f *fakePages) NumPage() int { return len(f.pages) }

func (f *fakePages) PageText(n int) (string, error) {
	if f.panics {
		panic("malformed content stream")
	}
	if f.readErr != nil {
		return "", f.readErr
	}
	return f.pages[n-1], nil
}

func (f *fakePages) Close() error {
	f.closed = true
	return nil
}

func openerFor(p *fakePages) extractor.Opener {
	return func(path string) (extractor.Pages, error) {
		return p, nil
	}
}

func TestExtract(t *testing.T) {
	pages := &fakePages{pages: []string{"Abstract. We propose a method.", "second page"}}
	e := extractor.NewWithConfig(extractor.ExtractorConfig{Opener: openerFor(pages)})

	rec, err := e.Extract(models.Document{Path: "/papers/2019/Deep_Residual_Learning.pdf", Filename: "Deep_Residual_Learning.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "Deep Residual Learning", rec.Title)
	assert.Equal(t, "Abstract. We propose a method.", rec.Fragment)
	assert.True(t, pages.closed)
}

func TestExtractFragmentLength(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		expect int
	}{
		{"long page", strings.Repeat("x", 10000), 500},
		{"short page", strings.Repeat("y", 200), 200},
		{"exact", strings.Repeat("z", 500), 500},
		{"multibyte", strings.Repeat("é", 600), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := extractor.NewWithConfig(extractor.ExtractorConfig{Opener: openerFor(&fakePages{pages: []string{tt.text}})})
			rec, err := e.Extract(models.Document{Path: "a.pdf"})
			require.NoError(t, err)
			assert.Equal(t, tt.expect, utf8.RuneCountInString(rec.Fragment))
			assert.True(t, strings.HasPrefix(tt.text, rec.Fragment))
		})
	}
}

func TestExtractKeepsWhitespace(t *testing.T) {
	text := "  Title\n\n  Authors\t\n" + strings.Repeat("w ", 300)
	e := extractor.NewWithConfig(extractor.ExtractorConfig{Opener: openerFor(&fakePages{pages: []string{text}})})

	rec, err := e.Extract(models.Document{Path: "a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, text[:500], rec.Fragment)
}

func TestExtractFailures(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		pages *fakePages
		kind  apperrors.Kind
	}{
		{"zero pages", "broken.pdf", &fakePages{}, apperrors.KindUnreadable},
		{"read error", "broken.pdf", &fakePages{pages: []string{""}, readErr: errors.New("bad xref")}, apperrors.KindUnreadable},
		{"panic", "broken.pdf", &fakePages{pages: []string{""}, panics: true}, apperrors.KindUnreadable},
		{"empty text", "broken.pdf", &fakePages{pages: []string{""}}, apperrors.KindNoText},
		{"whitespace text", "broken.pdf", &fakePages{pages: []string{" \n\t "}}, apperrors.KindNoText},
		{"empty title", "/x/.pdf", &fakePages{pages: []string{"Some abstract text"}}, apperrors.KindUnreadable},
		{"blank title", "/papers/2019/__.pdf", &fakePages{pages: []string{"Some abstract text"}}, apperrors.KindUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := extractor.NewWithConfig(extractor.ExtractorConfig{Opener: openerFor(tt.pages)})

			rec, err := e.Extract(models.Document{Path: tt.path})
			assert.Equal(t, models.ExtractedRecord{}, rec)
			assert.True(t, apperrors.Is(err, tt.kind), "got %v", err)
			assert.True(t, tt.pages.closed, "document must be closed")
		})
	}
}

func TestExtractOpenError(t *testing.T) {
	e := extractor.NewWithConfig(extractor.ExtractorConfig{
		Opener: func(path string) (extractor.Pages, error) {
			return nil, errors.New("not a pdf")
		},
	})

	_, err := e.Extract(models.Document{Path: "junk.pdf"})
	assert.True(t, apperrors.Is(err, apperrors.KindUnreadable))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Attention Is All You Need - Vaswani, Shazeer", extractor.Title("/x/2017/Attention_Is_All_You_Need - Vaswani, Shazeer.pdf"))
	assert.Equal(t, "v1.2 notes", extractor.Title("v1.2_notes.pdf"))
}

func TestExtractOpenPanic(t *testing.T) {
	e := extractor.NewWithConfig(extractor.ExtractorConfig{
		Opener: func(path string) (extractor.Pages, error) {
			panic("bad xref table")
		},
	})

	_, err := e.Extract(models.Document{Path: "junk.pdf"})
	assert.True(t, apperrors.Is(err, apperrors.KindUnreadable))
}

func TestOpenPDFRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf at all"), 0644))

	e := extractor.NewWithConfig(extractor.ExtractorConfig{})
	_, err := e.Extract(models.Document{Path: path, Filename: "junk.pdf"})
	assert.True(t, apperrors.Is(err, apperrors.KindUnreadable), "got %v", err)
}
