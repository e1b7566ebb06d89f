package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xhad/papertag/internal/errors"
	"github.com/xhad/papertag/pkg/config"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "papertag.yaml")
	data := `
llm:
  provider: "ollama"
  base_url: "http://127.0.0.1:1"
store:
  backend: "csv"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "papertag dev\n", out)
}

func TestAnnotateMissingSource(t *testing.T) {
	cfgPath := writeTestConfig(t)
	missing := filepath.Join(t.TempDir(), "nope")

	for _, args := range [][]string{
		{"annotate", "--config", cfgPath, "--source", missing, "--no-progress"},
		{"--config", cfgPath, "--source", missing, "--no-progress"},
	} {
		_, err := execute(t, args...)
		assert.True(t, apperrors.Is(err, apperrors.KindSourceNotFound), "args %v: %v", args, err)
	}
}

func TestAnnotateNoDocumentsIsNotAnError(t *testing.T) {
	cfgPath := writeTestConfig(t)
	empty := t.TempDir()

	_, err := execute(t, "annotate", "--config", cfgPath, "--source", empty, "--output", t.TempDir(), "--no-progress")
	assert.NoError(t, err)
}

func TestAnnotateRejectsInvalidFlags(t *testing.T) {
	cfgPath := writeTestConfig(t)

	_, err := execute(t, "annotate", "--config", cfgPath, "--batch-size=-2")
	assert.ErrorContains(t, err, "configuration has 1 errors")
}

func TestApplyAnnotateFlags(t *testing.T) {
	opts := &annotateOptions{}
	cmd := &cobra.Command{Use: "annotate"}
	addAnnotateFlags(cmd, opts)
	require.NoError(t, cmd.ParseFlags([]string{"--batch-size", "10", "--backend", "sqlite"}))

	cfg := &config.Config{}
	cfg.Pipeline.DailyLimit = 50
	cfg.Pipeline.SourceDir = "papers"
	applyAnnotateFlags(cmd, cfg, opts)

	assert.Equal(t, 10, cfg.Pipeline.BatchSize)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, 50, cfg.Pipeline.DailyLimit)
	assert.Equal(t, "papers", cfg.Pipeline.SourceDir)
}

func TestCrawlCommand(t *testing.T) {
	color.NoColor = true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/paper_files/paper/2023" {
			w.Write([]byte(`<html><body><ul></ul></body></html>`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "papertag.yaml")
	data := "scraper:\n  base_url: \"" + server.URL + "\"\n  rate_limit: 100\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	output := t.TempDir()

	out, err := execute(t, "crawl", "--config", path, "--years", "2022,2023", "--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, "2022: 0 papers")
	assert.Contains(t, out, "2023: 0 papers")
	assert.DirExists(t, filepath.Join(output, "2023"))
}
