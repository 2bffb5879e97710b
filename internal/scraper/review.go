package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/infrastructure/parser"
)

const (
	DefaultMinTitleLength   = 5
	DefaultMinContentLength = 100
	DefaultConcurrency      = 4
)

var paragraphExpr = regexp.MustCompile(`(?i)<p[\s>/]`)

// Options tunes validation and the size of the worker pool.
type Options struct {
	MinTitleLength   int
	MinContentLength int
	Concurrency      int
	Logger           *slog.Logger
}

// Result is the outcome of scraping one article. Record is nil whenever Err
// is set.
type Result struct {
	URL    string
	Record *domain.ContentRecord
	Err    error
}

// OK reports whether the article was scraped and validated.
func (r Result) OK() bool {
	return r.Err == nil && r.Record != nil
}

// BatchStats summarizes a batch run.
type BatchStats struct {
	Found   int
	Skipped int
	Scraped int
}

// ReviewScraper scrapes the articles listed on one issue page.
type ReviewScraper struct {
	baseURL          string
	fetcher          PageFetcher
	parser           ReviewPageParser
	minTitleLength   int
	minContentLength int
	concurrency      int
	logger
}

// NewReviewScraper uses a ReviewParser with default selectors when p is nil.
func NewReviewScraper(baseURL string, f PageFetcher, p ReviewPageParser, opts Options) *ReviewScraper {
	if p == nil {
		p = parser.NewReviewParser(baseURL, parser.ReviewSelectors{})
	}
	if opts.MinTitleLength <= 0 {
		opts.MinTitleLength = DefaultMinTitleLength
	}
	if opts.MinContentLength <= 0 {
		opts.MinContentLength = DefaultMinContentLength
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}

	return &ReviewScraper{
		baseURL:          baseURL,
		fetcher:          f,
		parser:           p,
		minTitleLength:   opts.MinTitleLength,
		minContentLength: opts.MinContentLength,
		concurrency:      opts.Concurrency,
		logger:           logger{log: opts.Logger},
	}
}

// ListingURLs returns the article links of the issue page. Failures are
// logged and reported as an empty listing.
func (s *ReviewScraper) ListingURLs(ctx context.Context) []string {
	html, err := s.fetcher.Fetch(ctx, s.baseURL)
	if err != nil {
		s.warn("issue listing fetch failed", "url", s.baseURL, "error", err)
		return []string{}
	}

	links, err := s.parser.ParseListing(html)
	if err != nil {
		s.warn("issue listing parse failed", "url", s.baseURL, "error", err)
		return []string{}
	}
	return links
}

// ContentData fetches and parses one article page. An invalid URL yields
// (nil, nil); fetch and parse failures are returned.
func (s *ReviewScraper) ContentData(ctx context.Context, articleURL string) (*domain.ContentRecord, error) {
	if !s.fetcher.ValidateURL(articleURL) {
		s.warn("skip invalid article url", "url", articleURL)
		return nil, nil
	}

	html, err := s.fetcher.Fetch(ctx, articleURL)
	if err != nil {
		return nil, err
	}

	record, err := s.parser.ParseContentPage(html, articleURL)
	if err != nil {
		return nil, fmt.Errorf("parse article %s: %w", articleURL, err)
	}
	return record, nil
}

// ScrapeSingleArticle never fails outward: every problem, including a panic
// in the parser, ends up in Result.Err.
func (s *ReviewScraper) ScrapeSingleArticle(ctx context.Context, articleURL string) (res Result) {
	res.URL = articleURL
	defer func() {
		if r := recover(); r != nil {
			res = Result{URL: articleURL, Err: fmt.Errorf("scrape %s panicked: %v", articleURL, r)}
		}
		if res.Err != nil {
			s.warn("article skipped", "url", articleURL, "error", res.Err)
		}
	}()

	record, err := s.ContentData(ctx, articleURL)
	if err != nil {
		res.Err = err
		return res
	}
	if record == nil {
		res.Err = &domain.FetchError{URL: articleURL, Kind: domain.ErrInvalidURL}
		return res
	}
	if !s.ValidateContentData(record) {
		res.Err = fmt.Errorf("%w: %s", domain.ErrValidationFailed, articleURL)
		return res
	}

	res.Record = record
	return res
}

// ScrapeReviewBatch scrapes every listed article with a bounded worker pool
// and keeps the successful records in listing order.
func (s *ReviewScraper) ScrapeReviewBatch(ctx context.Context) ([]domain.ContentRecord, BatchStats) {
	urls := s.ListingURLs(ctx)
	results := make([]Result, len(urls))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, articleURL := range urls {
		g.Go(func() error {
			results[i] = s.ScrapeSingleArticle(ctx, articleURL)
			return nil
		})
	}
	_ = g.Wait()

	stats := BatchStats{Found: len(urls)}
	records := make([]domain.ContentRecord, 0, len(urls))
	for _, res := range results {
		if !res.OK() {
			stats.Skipped++
			continue
		}
		records = append(records, *res.Record)
	}
	stats.Scraped = len(records)

	s.info("review batch scraped", "url", s.baseURL, "found", stats.Found, "skipped", stats.Skipped, "scraped", stats.Scraped)
	return records, stats
}

// ValidateContentData checks required fields, minimum lengths and that the
// body has at least one paragraph.
func (s *ReviewScraper) ValidateContentData(record *domain.ContentRecord) bool {
	if !hasRequiredFields(record) {
		return false
	}
	if utf8.RuneCountInString(record.Title) < s.minTitleLength {
		return false
	}
	if utf8.RuneCountInString(record.Content) < s.minContentLength {
		return false
	}
	return paragraphExpr.MatchString(record.Content)
}

func hasRequiredFields(record *domain.ContentRecord) bool {
	return record != nil && record.Title != "" && record.Content != "" && record.OriginalURL != ""
}
