package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"ReviewScanner/internal/infrastructure/parser"
)

// ArchiveScraper lists every issue URL on the archive page.
type ArchiveScraper struct {
	url     string
	fetcher PageFetcher
	parser  *parser.ArchiveParser
	logger
}

// NewArchiveScraper uses an ArchiveParser with default selectors when p is nil.
func NewArchiveScraper(archiveURL string, f PageFetcher, p *parser.ArchiveParser, log *slog.Logger) *ArchiveScraper {
	if p == nil {
		p = parser.NewArchiveParser(archiveURL, nil)
	}
	return &ArchiveScraper{
		url:     archiveURL,
		fetcher: f,
		parser:  p,
		logger:  logger{log: log},
	}
}

// ListingURLs returns the set of issue URLs. Fetch and parse errors are
// returned unchanged.
func (s *ArchiveScraper) ListingURLs(ctx context.Context) (map[string]struct{}, error) {
	html, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return nil, err
	}

	links, err := s.parser.ParseArchivePage(html)
	if err != nil {
		return nil, fmt.Errorf("parse archive %s: %w", s.url, err)
	}

	set := make(map[string]struct{}, len(links))
	for _, link := range links {
		set[link] = struct{}{}
	}

	s.debug("archive listed", "url", s.url, "issues", len(set))
	return set, nil
}
