// Package scraper downloads NeurIPS paper PDFs into per-year directories that
// the annotate pipeline can later walk.
package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

type ScraperConfig struct {
	BaseURL    string
	OutputDir  string
	RateLimit  float64 // requests per second
	Timeout    time.Duration
	OnProgress func(year int, filename string)
}

type Scraper struct {
	config  ScraperConfig
	client  *http.Client
	limiter *rate.Limiter
	base    *url.URL
}

// Paper is one entry of a proceedings index.
type Paper struct {
	Title   string
	PageURL string
	PDFURL  string
	Authors string
}

// CrawlResult counts what happened to the papers of one year.
type CrawlResult struct {
	Year       int
	Found      int
	Downloaded int
	Existing   int
	Failed     int
}

func NewWithConfig(config ScraperConfig) (*Scraper, error) {
	if config.BaseURL == "" {
		config.BaseURL = "https://papers.nips.cc"
	}
	if config.OutputDir == "" {
		config.OutputDir = "papers"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}

	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, err
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %s", config.BaseURL)
	}

	return &Scraper{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		base:    base,
	}, nil
}

func New(baseURL string) *Scraper {
	s, _ := NewWithConfig(ScraperConfig{
		BaseURL: baseURL,
	})
	return s
}

// CrawlYears crawls each year in turn. A failed year is logged and the next one
// is still attempted.
func (s *Scraper) CrawlYears(ctx context.Context, years []int) ([]CrawlResult, error) {
	results := make([]CrawlResult, 0, len(years))
	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		slog.Info("crawling proceedings", "year", year)
		result, err := s.Crawl(ctx, year)
		if err != nil {
			slog.Error("failed to crawl year", "year", year, "error", err)
		}
		results = append(results, result)
	}
	return results, nil
}

// Crawl downloads every paper listed in the proceedings index for year.
// Papers that fail are logged and skipped. Files already on disk are kept.
func (s *Scraper) Crawl(ctx context.Context, year int) (CrawlResult, error) {
	result := CrawlResult{Year: year}

	yearDir := filepath.Join(s.config.OutputDir, fmt.Sprint(year))
	if err := os.MkdirAll(yearDir, 0755); err != nil {
		return result, fmt.Errorf("failed to create %s: %w", yearDir, err)
	}

	papers, err := s.Index(ctx, year)
	if err != nil {
		return result, err
	}
	result.Found = len(papers)

	for _, paper := range papers {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := s.resolve(ctx, &paper); err != nil {
			slog.Warn("failed to read paper page", "title", paper.Title, "url", paper.PageURL, "error", err)
			result.Failed++
			continue
		}
		if paper.PDFURL == "" {
			slog.Warn("pdf link not found", "title", paper.Title)
			result.Failed++
			continue
		}

		filename := FormatFilename(paper.Title, paper.Authors) + ".pdf"
		path := filepath.Join(yearDir, filename)
		if _, err := os.Stat(path); err == nil {
			result.Existing++
			continue
		}

		if s.config.OnProgress != nil {
			s.config.OnProgress(year, filename)
		}
		if err := s.download(ctx, paper.PDFURL, path); err != nil {
			slog.Warn("failed to download pdf", "title", paper.Title, "url", paper.PDFURL, "error", err)
			result.Failed++
			continue
		}
		slog.Debug("saved paper", "path", path)
		result.Downloaded++
	}

	return result, nil
}

// Index lists the papers on the proceedings page of year.
func (s *Scraper) Index(ctx context.Context, year int) ([]Paper, error) {
	indexURL := s.base.JoinPath("paper_files", "paper", fmt.Sprint(year)).String()
	doc, err := s.fetchDocument(ctx, indexURL)
	if err != nil {
		return nil, err
	}

	var papers []Paper
	doc.Find("li a").Each(func(_ int, selection *goquery.Selection) {
		href, exists := selection.Attr("href")
		if !exists {
			return
		}
		pageURL, err := s.absolute(indexURL, href)
		if err != nil {
			slog.Debug("skipping bad link", "href", href, "error", err)
			return
		}
		papers = append(papers, Paper{
			Title:   strings.TrimSpace(selection.Text()),
			PageURL: pageURL,
		})
	})
	return papers, nil
}

// resolve fills in the PDF link and author list from the paper page.
func (s *Scraper) resolve(ctx context.Context, paper *Paper) error {
	doc, err := s.fetchDocument(ctx, paper.PageURL)
	if err != nil {
		return err
	}

	if href, ok := doc.Find("a[href$='.pdf']").First().Attr("href"); ok {
		pdfURL, err := s.absolute(paper.PageURL, href)
		if err != nil {
			return err
		}
		paper.PDFURL = pdfURL
	}

	var authors []string
	doc.Find("meta[name='dc.creator']").Each(func(_ int, selection *goquery.Selection) {
		if content, ok := selection.Attr("content"); ok {
			authors = append(authors, content)
		}
	})
	paper.Authors = strings.Join(authors, ", ")
	return nil
}

func (s *Scraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	resp, err := s.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return goquery.NewDocumentFromReader(resp.Body)
}

func (s *Scraper) download(ctx context.Context, pdfURL, path string) error {
	resp, err := s.get(ctx, pdfURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (s *Scraper) get(ctx context.Context, target string) (*http.Response, error) {
	// Apply rate limiting
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, target)
	}
	return resp, nil
}

func (s *Scraper) absolute(from, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base, err := url.Parse(from)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// FormatFilename builds "<title> - <authors>" with unsafe characters replaced
// by underscores. Titles keep letters, digits, spaces and "-_."; author lists
// keep letters, digits, spaces and "-,.".
func FormatFilename(title, authors string) string {
	return sanitize(title, " -_.") + " - " + sanitize(authors, " -,.")
}

func sanitize(s, allowed string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(allowed, r) {
			return r
		}
		return '_'
	}, s)
}
