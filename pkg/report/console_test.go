package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	apperrors "github.com/xhad/papertag/internal/errors"
	"github.com/xhad/papertag/internal/models"
	"github.com/xhad/papertag/internal/types"
	"github.com/xhad/papertag/pkg/pipeline"
)

func newTestConsole(bar bool) (*Console, *bytes.Buffer) {
	color.NoColor = true
	var buf bytes.Buffer
	return NewConsole(WithWriter(&buf), WithProgressBar(bar)), &buf
}

func TestConsoleNarration(t *testing.T) {
	c, buf := newTestConsole(false)
	doc := models.Document{Path: "/papers/a.pdf", Filename: "a.pdf"}

	c.RunStarted(7, 7)
	c.BatchStarted(1, 5)
	c.DocumentStarted(doc)
	c.DocumentClassified(doc, models.Row{Title: "a", Category: "Optimization", Filename: "a.pdf"})
	c.DocumentSkipped(models.Document{Filename: "b.pdf"}, apperrors.NewNoText("/papers/b.pdf"))
	c.Flushed([]types.DestinationResult{
		{Category: "Optimization", Destination: "paper_data/Optimization.csv", Written: 1, Total: 12},
		{Category: models.Unknown, Destination: "paper_data/Unknown.csv", Err: apperrors.NewLocked("paper_data/Unknown.csv")},
		{Category: "Computer Vision", Destination: "paper_data/Computer Vision.csv", Written: 2, Total: types.UnknownTotal},
	})
	c.LimitReached(50)

	out := buf.String()
	assert.Contains(t, out, "Found 7 PDFs")
	assert.Contains(t, out, "Processing batch 1 (files: 5)")
	assert.Contains(t, out, "Processing: a.pdf")
	assert.Contains(t, out, "Annotated: a -> Optimization")
	assert.Contains(t, out, "Skipped b.pdf: NO_TEXT")
	assert.Contains(t, out, "Data saved in: paper_data/Optimization.csv (Total: 12)")
	assert.Contains(t, out, "Data saved in: paper_data/Computer Vision.csv (Total: unknown)")
	assert.Contains(t, out, "Could not save Unknown rows to paper_data/Unknown.csv")
	assert.Contains(t, out, "Daily limit reached after 50 papers")
}

func TestConsoleSummary(t *testing.T) {
	c, buf := newTestConsole(false)

	c.Summary(pipeline.Summary{Processed: 5, Skipped: 1, Batches: 2, FailedFlushes: 1})

	out := buf.String()
	assert.Contains(t, out, "Annotated 5 papers (1 skipped) in 2 batches")
	assert.Contains(t, out, "1 destination writes failed")
}

func TestConsoleWithProgressBar(t *testing.T) {
	c, buf := newTestConsole(true)
	doc := models.Document{Filename: "a.pdf"}

	assert.NotPanics(t, func() {
		c.RunStarted(2, 2)
		c.DocumentClassified(doc, models.Row{Title: "a", Category: "x"})
		c.DocumentSkipped(doc, errors.New("boom"))
		c.Summary(pipeline.Summary{Processed: 1, Skipped: 1, Batches: 1})
	})
	assert.Contains(t, buf.String(), "Classifying papers")
}
