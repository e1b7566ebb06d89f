package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xhad/papertag/pkg/scraper"
)

func newCrawlCommand(ctx *commandContext) *cobra.Command {
	var years []int
	var output string

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Download NeurIPS papers into per-year directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("years") {
				cfg.Scraper.Years = years
			}
			if cmd.Flags().Changed("output") {
				cfg.Scraper.OutputDir = output
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			s, err := scraper.NewWithConfig(scraper.ScraperConfig{
				BaseURL:   cfg.Scraper.BaseURL,
				OutputDir: cfg.CrawlDir(),
				RateLimit: cfg.Scraper.RateLimit,
				Timeout:   cfg.Scraper.Timeout,
				OnProgress: func(year int, filename string) {
					color.New(color.FgCyan).Fprintf(out, "Downloading: %s\n", filename)
				},
			})
			if err != nil {
				return fmt.Errorf("failed to initialize crawler: %w", err)
			}

			results, err := s.CrawlYears(runCtx, cfg.Scraper.Years)
			for _, r := range results {
				color.New(color.FgGreen).Fprintf(out, "%d: %d papers, %d downloaded, %d already present, %d failed\n",
					r.Year, r.Found, r.Downloaded, r.Existing, r.Failed)
			}
			return err
		},
	}

	cmd.Flags().IntSliceVar(&years, "years", nil, "Proceedings years to download")
	cmd.Flags().StringVar(&output, "output", "", "Directory for downloaded PDFs")
	return cmd
}
