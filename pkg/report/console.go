// Package report narrates a classification run on the console.
package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/xhad/papertag/internal/models"
	"github.com/xhad/papertag/internal/types"
	"github.com/xhad/papertag/pkg/pipeline"
)

// Console prints per-batch and per-document progress with a progress bar.
type Console struct {
	out      io.Writer
	showBar  bool
	bar      *progressbar.ProgressBar
	started  time.Time
	info     *color.Color
	success  *color.Color
	warn     *color.Color
	failure  *color.Color
	progress *color.Color
}

type Option func(*Console)

// WithWriter sends output to w instead of stdout.
func WithWriter(w io.Writer) Option {
	return func(c *Console) {
		c.out = w
	}
}

// WithProgressBar toggles the progress bar.
func WithProgressBar(enabled bool) Option {
	return func(c *Console) {
		c.showBar = enabled
	}
}

func NewConsole(opts ...Option) *Console {
	c := &Console{
		out:      os.Stdout,
		showBar:  true,
		info:     color.New(color.FgBlue),
		success:  color.New(color.FgGreen),
		warn:     color.New(color.FgYellow),
		failure:  color.New(color.FgRed),
		progress: color.New(color.FgCyan),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Console) getProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription(color.BlueString("Classifying papers...")),
		progressbar.OptionSetItsString("papers"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (c *Console) RunStarted(found, considered int) {
	c.started = time.Now()
	c.info.Fprintf(c.out, "Found %d PDFs, processing up to %d this run\n", found, considered)
	if c.showBar {
		c.bar = c.getProgressBar(considered)
	}
}

func (c *Console) BatchStarted(index, size int) {
	c.clearBar()
	c.info.Fprintf(c.out, "\nProcessing batch %d (files: %d)\n", index, size)
}

func (c *Console) DocumentStarted(doc models.Document) {
	c.clearBar()
	c.progress.Fprintf(c.out, "Processing: %s\n", doc.Filename)
}

func (c *Console) DocumentSkipped(doc models.Document, err error) {
	c.clearBar()
	c.warn.Fprintf(c.out, "Skipped %s: %v\n", doc.Filename, err)
	c.step()
}

func (c *Console) DocumentClassified(doc models.Document, row models.Row) {
	c.clearBar()
	c.success.Fprintf(c.out, "Annotated: %s -> %s\n", row.Title, row.Category)
	c.step()
}

func (c *Console) Flushed(results []types.DestinationResult) {
	c.clearBar()
	for _, r := range results {
		if r.Err != nil {
			c.failure.Fprintf(c.out, "Could not save %s rows to %s: %v\n", r.Category, r.Destination, r.Err)
			continue
		}
		if r.Total == types.UnknownTotal {
			c.success.Fprintf(c.out, "Data saved in: %s (Total: unknown)\n", r.Destination)
			continue
		}
		c.success.Fprintf(c.out, "Data saved in: %s (Total: %d)\n", r.Destination, r.Total)
	}
}

func (c *Console) LimitReached(processed int) {
	c.clearBar()
	c.warn.Fprintf(c.out, "Daily limit reached after %d papers, stopping.\n", processed)
}

// Summary prints the end-of-run totals.
func (c *Console) Summary(s pipeline.Summary) {
	if c.bar != nil {
		_ = c.bar.Finish()
		fmt.Fprintln(c.out)
	}
	c.success.Fprintf(c.out, "\nAnnotated %d papers (%d skipped) in %d batches",
		s.Processed, s.Skipped, s.Batches)
	if !c.started.IsZero() {
		fmt.Fprintf(c.out, " [%s]", time.Since(c.started).Round(time.Second))
	}
	fmt.Fprintln(c.out)
	if s.FailedFlushes > 0 {
		c.failure.Fprintf(c.out, "%d destination writes failed, see log for details\n", s.FailedFlushes)
	}
}

func (c *Console) step() {
	if c.bar != nil {
		_ = c.bar.Add(1)
	}
}

func (c *Console) clearBar() {
	if c.bar != nil {
		_ = c.bar.Clear()
	}
}
