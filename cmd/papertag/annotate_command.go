package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	apperrors "github.com/xhad/papertag/internal/errors"
	"github.com/xhad/papertag/internal/types"
	"github.com/xhad/papertag/pkg/config"
	"github.com/xhad/papertag/pkg/extractor"
	"github.com/xhad/papertag/pkg/llm"
	"github.com/xhad/papertag/pkg/pipeline"
	"github.com/xhad/papertag/pkg/report"
	"github.com/xhad/papertag/pkg/source"
	"github.com/xhad/papertag/pkg/store"
)

type annotateOptions struct {
	source     string
	output     string
	backend    string
	batchSize  int
	dailyLimit int
	noProgress bool
}

func newAnnotateCommand(ctx *commandContext) *cobra.Command {
	opts := &annotateOptions{}
	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Classify the PDFs under the source directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(cmd, ctx, opts)
		},
	}
	addAnnotateFlags(cmd, opts)
	return cmd
}

func addAnnotateFlags(cmd *cobra.Command, opts *annotateOptions) {
	cmd.Flags().StringVar(&opts.source, "source", "", "Directory to search for PDFs")
	cmd.Flags().StringVar(&opts.output, "output", "", "Directory for the per-category tables")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "Store backend (csv, sqlite, postgres)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Documents per batch")
	cmd.Flags().IntVar(&opts.dailyLimit, "daily-limit", 0, "Maximum classifications per run")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Disable the progress bar")
}

// applyAnnotateFlags overrides configuration values with flags set on the command line.
func applyAnnotateFlags(cmd *cobra.Command, cfg *config.Config, opts *annotateOptions) {
	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Pipeline.SourceDir = opts.source
	}
	if flags.Changed("output") {
		cfg.Store.OutputDir = opts.output
	}
	if flags.Changed("backend") {
		cfg.Store.Backend = opts.backend
	}
	if flags.Changed("batch-size") {
		cfg.Pipeline.BatchSize = opts.batchSize
	}
	if flags.Changed("daily-limit") {
		cfg.Pipeline.DailyLimit = opts.dailyLimit
	}
}

func runAnnotate(cmd *cobra.Command, ctx *commandContext, opts *annotateOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	applyAnnotateFlags(cmd, cfg, opts)

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			slog.Error("invalid configuration", "field", e.Field, "error", e.Message)
		}
		return fmt.Errorf("configuration has %d errors", len(errs))
	}
	if err := cfg.CheckCredential(); err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := llm.NewBackend(runCtx, llm.GeneratorConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Project:     cfg.LLM.Project,
		Region:      cfg.LLM.Region,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize classifier backend: %w", err)
	}
	defer backend.Close()

	classifier, err := llm.NewClassifier(llm.ClassifierConfig{
		Categories: cfg.Pipeline.Categories,
		Policy: llm.Policy{
			MaxAttempts:  cfg.Backoff.MaxAttempts,
			Cooldown:     cfg.Backoff.Cooldown,
			QuotaBackoff: cfg.Backoff.QuotaBackoff,
		},
		Timeout: cfg.LLM.Timeout,
	}, backend)
	if err != nil {
		return err
	}

	var embedder types.Embedder
	if cfg.Store.Embed {
		var baseURL string
		if cfg.LLM.Provider == config.ProviderOllama {
			baseURL = cfg.LLM.BaseURL
		}
		emb, err := llm.NewEmbedder(llm.EmbedderConfig{Model: cfg.Store.EmbedModel, BaseURL: baseURL})
		if err != nil {
			return err
		}
		embedder = emb
	}

	st, err := store.Open(runCtx, store.StoreConfig{
		Backend:     cfg.Store.Backend,
		OutputDir:   cfg.Store.OutputDir,
		SQLitePath:  cfg.SQLiteFile(),
		DatabaseURL: cfg.Store.DatabaseURL,
		TablePrefix: cfg.Store.TablePrefix,
		Categories:  cfg.Pipeline.Categories,
		Embedder:    embedder,
		VectorDim:   cfg.Store.VectorDim,
	})
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	defer st.Close()

	console := report.NewConsole(
		report.WithWriter(cmd.OutOrStdout()),
		report.WithProgressBar(!opts.noProgress),
	)

	p, err := pipeline.NewWithConfig(
		pipeline.PipelineConfig{
			BatchSize:  cfg.Pipeline.BatchSize,
			DailyLimit: cfg.Pipeline.DailyLimit,
		},
		source.NewWithConfig(source.SourceConfig{
			Root:      cfg.Pipeline.SourceDir,
			Extension: cfg.Pipeline.Extension,
		}),
		extractor.NewWithConfig(extractor.ExtractorConfig{
			FragmentLength: cfg.Pipeline.FragmentLength,
		}),
		classifier,
		st,
		console,
	)
	if err != nil {
		return err
	}

	slog.Debug("starting run", "source", cfg.Pipeline.SourceDir, "backend", cfg.Store.Backend, "provider", cfg.LLM.Provider)
	summary, err := p.Run(runCtx)
	if apperrors.Is(err, apperrors.KindNoDocuments) {
		slog.Warn("nothing to classify", "source", cfg.Pipeline.SourceDir, "error", err)
		return nil
	}
	if apperrors.Is(err, apperrors.KindSourceNotFound) {
		return err
	}

	console.Summary(summary)
	return err
}
