package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ReviewScanner/internal/domain"
)

// ArchiveLister lists the issue URLs currently on the archive page.
type ArchiveLister interface {
	ListingURLs(ctx context.Context) (map[string]struct{}, error)
}

// ReviewRepository is the persisted catalog of issues and their articles.
type ReviewRepository interface {
	// AllSourceURLs loads every known issue URL in a single round trip.
	AllSourceURLs(ctx context.Context) (map[string]struct{}, error)
	ReviewByID(ctx context.Context, id int64) (*domain.Review, error)
	UpsertReview(ctx context.Context, review domain.Review) error
	UpsertArticle(ctx context.Context, article domain.Article) error
	AppendTelegraphURLs(ctx context.Context, articleID uuid.UUID, urls []string) error
	// UnpublishedArticles lists stored articles without any page URLs.
	UnpublishedArticles(ctx context.Context) ([]domain.Article, error)
}

// PageCreator creates one page on the publishing platform.
type PageCreator interface {
	CreatePage(ctx context.Context, title, htmlContent, authorName string) (string, error)
}

// Notifier announces published articles to a channel.
type Notifier interface {
	AnnounceArticle(ctx context.Context, article domain.Article) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
