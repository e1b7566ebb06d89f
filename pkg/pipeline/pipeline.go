// Package pipeline drives the batch classification run: it walks the discovered
// documents in fixed-size batches, extracts and classifies each one, and flushes
// the labeled rows to the category store after every batch and when the daily
// limit is reached.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/xhad/papertag/internal/errors"
	"github.com/xhad/papertag/internal/models"
	"github.com/xhad/papertag/internal/types"
)

type PipelineConfig struct {
	BatchSize  int
	DailyLimit int
}

// Observer receives progress events for operator narration.
type Observer interface {
	RunStarted(found, considered int)
	BatchStarted(index, size int)
	DocumentStarted(doc models.Document)
	DocumentSkipped(doc models.Document, err error)
	DocumentClassified(doc models.Document, row models.Row)
	Flushed(results []types.DestinationResult)
	LimitReached(processed int)
}

// Summary describes a finished run.
type Summary struct {
	Found        int
	Considered   int
	Processed    int
	Skipped      int
	Batches      int
	Flushes      int
	LimitReached bool
	// Totals holds the latest cumulative row count per destination.
	Totals map[string]int
	// FailedFlushes counts destinations whose rows were lost to a write failure.
	FailedFlushes int
}

type Pipeline struct {
	config     PipelineConfig
	source     types.Source
	extractor  types.Extractor
	classifier types.Classifier
	store      types.Store
	observer   Observer
}

func NewWithConfig(config PipelineConfig, source types.Source, extractor types.Extractor,
	classifier types.Classifier, store types.Store, observer Observer) (*Pipeline, error) {
	if config.BatchSize == 0 {
		config.BatchSize = 5
	}
	if config.DailyLimit == 0 {
		config.DailyLimit = 50
	}
	if config.BatchSize < 0 || config.DailyLimit < 0 {
		return nil, fmt.Errorf("batch size and daily limit must be positive")
	}
	if source == nil || extractor == nil || classifier == nil || store == nil {
		return nil, fmt.Errorf("source, extractor, classifier and store are required")
	}
	if observer == nil {
		observer = nopObserver{}
	}

	return &Pipeline{
		config:     config,
		source:     source,
		extractor:  extractor,
		classifier: classifier,
		store:      store,
		observer:   observer,
	}, nil
}

// Run processes documents until the set is exhausted, the daily limit of
// successful classifications is reached, or ctx is cancelled. Source errors
// (SourceNotFound, NoDocuments) are returned before anything is classified.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	summary := Summary{Totals: make(map[string]int)}

	docs, err := p.source.Documents(ctx)
	if err != nil {
		return summary, err
	}

	summary.Found = len(docs)
	limit := min(len(docs), p.config.DailyLimit)
	summary.Considered = limit
	p.observer.RunStarted(summary.Found, limit)

	var rows []models.Row
	for start := 0; start < limit; start += p.config.BatchSize {
		batch := docs[start:min(start+p.config.BatchSize, limit)]
		summary.Batches++
		p.observer.BatchStarted(summary.Batches, len(batch))

		for _, doc := range batch {
			if err := ctx.Err(); err != nil {
				p.flush(ctx, rows, &summary)
				return summary, fmt.Errorf("run interrupted: %w", err)
			}

			row, ok := p.process(ctx, doc)
			if !ok {
				summary.Skipped++
				continue
			}
			rows = append(rows, row)
			summary.Processed++

			if summary.Processed >= p.config.DailyLimit {
				slog.Info("daily limit reached", "processed", summary.Processed, "limit", p.config.DailyLimit)
				summary.LimitReached = true
				p.observer.LimitReached(summary.Processed)
				p.flush(ctx, rows, &summary)
				return summary, nil
			}
		}

		p.flush(ctx, rows, &summary)
		rows = nil
	}

	return summary, nil
}

func (p *Pipeline) process(ctx context.Context, doc models.Document) (models.Row, bool) {
	p.observer.DocumentStarted(doc)

	rec, err := p.extractor.Extract(doc)
	if err != nil {
		slog.Warn("skipping document", "path", doc.Path, "kind", apperrors.KindOf(err), "error", err)
		p.observer.DocumentSkipped(doc, err)
		return models.Row{}, false
	}

	category := p.classifier.Classify(ctx, rec.Title, rec.Fragment)
	row := models.Row{
		Title:    rec.Title,
		Fragment: rec.Fragment,
		Category: category,
		Filename: doc.Filename,
	}
	p.observer.DocumentClassified(doc, row)
	return row, true
}

// flush hands the accumulated rows to the store. Store failures are reported
// per destination and never abort the run.
func (p *Pipeline) flush(ctx context.Context, rows []models.Row, summary *Summary) {
	results := p.store.Persist(context.WithoutCancel(ctx), rows)
	summary.Flushes++

	for _, r := range results {
		if r.Err != nil {
			summary.FailedFlushes++
			continue
		}
		if r.Total != types.UnknownTotal {
			summary.Totals[r.Destination] = r.Total
		}
	}
	p.observer.Flushed(results)
}

type nopObserver struct{}

func (nopObserver) RunStarted(int, int)                           {}
func (nopObserver) BatchStarted(int, int)                         {}
func (nopObserver) DocumentStarted(models.Document)               {}
func (nopObserver) DocumentSkipped(models.Document, error)        {}
func (nopObserver) DocumentClassified(models.Document, models.Row) {}
func (nopObserver) Flushed([]types.DestinationResult)             {}
func (nopObserver) LimitReached(int)                              {}
