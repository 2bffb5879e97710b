package publishing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/ports"
)

// Publisher turns an article into one platform page per chunk.
type Publisher struct {
	pages      ports.PageCreator
	repository ports.ReviewRepository
	maxChars   int
	logger     *slog.Logger
}

// NewPublisher stores page URLs through repo when it is not nil.
func NewPublisher(pages ports.PageCreator, repo ports.ReviewRepository, maxChars int, log *slog.Logger) *Publisher {
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}
	return &Publisher{
		pages:      pages,
		repository: repo,
		maxChars:   maxChars,
		logger:     log,
	}
}

// PartTitle names the n-th page of an article; the first keeps the title.
func PartTitle(title string, part int) string {
	if part <= 1 {
		return title
	}
	return fmt.Sprintf("%s (part %d)", title, part)
}

// PublishArticle creates the pages in order and records their URLs once all
// of them exist.
func (p *Publisher) PublishArticle(ctx context.Context, article domain.Article) ([]string, error) {
	chunks, err := SplitContent(article.Content, p.maxChars)
	if err != nil {
		return nil, fmt.Errorf("split article %s: %w", article.OriginalURL, err)
	}

	author := strings.Join(article.Authors, ", ")
	urls := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		pageURL, err := p.pages.CreatePage(ctx, PartTitle(article.Title, i+1), chunk, author)
		if err != nil {
			return nil, fmt.Errorf("create page %d/%d for %s: %w", i+1, len(chunks), article.OriginalURL, err)
		}
		urls = append(urls, pageURL)
	}

	if p.repository != nil && len(urls) > 0 {
		if err := p.repository.AppendTelegraphURLs(ctx, article.ID, urls); err != nil {
			return nil, fmt.Errorf("store page urls for %s: %w", article.OriginalURL, err)
		}
	}

	if p.logger != nil {
		p.logger.Debug("article published", "url", article.OriginalURL, "pages", len(urls))
	}
	return urls, nil
}
