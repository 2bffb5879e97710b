package scraper

import (
	"context"
	"log/slog"

	"ReviewScanner/internal/infrastructure/parser"
)

// PageFetcher downloads a page; it is satisfied by *fetcher.Fetcher.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
	ValidateURL(raw string) bool
}

// ReviewPageParser reads issue listings and article pages.
type ReviewPageParser interface {
	parser.URLExtractor
	parser.ContentExtractor
}

type logger struct {
	log *slog.Logger
}

func (l logger) debug(msg string, args ...any) {
	if l.log != nil {
		l.log.Debug(msg, args...)
	}
}

func (l logger) info(msg string, args ...any) {
	if l.log != nil {
		l.log.Info(msg, args...)
	}
}

func (l logger) warn(msg string, args ...any) {
	if l.log != nil {
		l.log.Warn(msg, args...)
	}
}
