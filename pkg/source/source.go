// Package source discovers candidate documents under a root directory.
package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/xhad/papertag/internal/errors"
	"github.com/xhad/papertag/internal/models"
)

type SourceConfig struct {
	Root      string
	Extension string
}

// Walker enumerates documents by recursive directory traversal.
type Walker struct {
	config SourceConfig
}

func NewWithConfig(config SourceConfig) *Walker {
	if config.Extension == "" {
		config.Extension = ".pdf"
	}
	return &Walker{config: config}
}

// Documents returns every file under the root whose name ends with the configured
// extension, in lexical walk order. A missing root yields a SourceNotFound error and
// a root without matches yields a NoDocuments error.
func (w *Walker) Documents(ctx context.Context) ([]models.Document, error) {
	info, err := os.Stat(w.config.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewSourceNotFound(w.config.Root)
		}
		return nil, fmt.Errorf("stat source root: %w", err)
	}
	if !info.IsDir() {
		return nil, apperrors.NewSourceNotFound(w.config.Root)
	}

	var docs []models.Document
	err = filepath.WalkDir(w.config.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() && path != w.config.Root {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), w.config.Extension) {
			return nil
		}
		docs = append(docs, models.Document{Path: path, Filename: d.Name()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk source root: %w", err)
	}

	if len(docs) == 0 {
		return nil, apperrors.NewNoDocuments(w.config.Root, w.config.Extension)
	}
	return docs, nil
}
