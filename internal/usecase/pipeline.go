package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/ports"
	"ReviewScanner/internal/scraper"
)

// IssueScanner reports which archive issues are not in the catalog yet.
type IssueScanner interface {
	ScanForNewReviews(ctx context.Context) (domain.ScanResult, error)
}

// IssueScraper collects the valid articles of one issue.
type IssueScraper interface {
	ScrapeReviewBatch(ctx context.Context) ([]domain.ContentRecord, scraper.BatchStats)
}

// ArticlePublisher turns an article into platform pages.
type ArticlePublisher interface {
	PublishArticle(ctx context.Context, article domain.Article) ([]string, error)
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Scanner    IssueScanner
	Scrapers   func(issueURL string) IssueScraper
	Repository ports.ReviewRepository
	Publisher  ArticlePublisher
	Notifier   ports.Notifier
	Logger     *slog.Logger
}

// Report summarizes one pipeline run.
type Report struct {
	ArchiveIssues int
	NewIssues     int
	Articles      int
	Retried       int
	Published     int
	PublishFailed int
}

// Pipeline implements the issue-ingestion workflow.
type Pipeline struct {
	scanner    IssueScanner
	scrapers   func(issueURL string) IssueScraper
	repository ports.ReviewRepository
	publisher  ArticlePublisher
	notifier   ports.Notifier
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		scanner:    deps.Scanner,
		scrapers:   deps.Scrapers,
		repository: deps.Repository,
		publisher:  deps.Publisher,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
	}
}

// Run scans the archive, retries articles left unpublished by earlier runs,
// then stores every new issue with its articles and publishes and announces
// them. Scan and storage failures abort the run; publishing failures are
// logged and leave the article unpublished for the next run.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (Report, error) {
	var report Report
	if p.scanner == nil || p.scrapers == nil || p.repository == nil {
		return report, nil
	}

	scan, err := p.scanner.ScanForNewReviews(ctx)
	if err != nil {
		return report, fmt.Errorf("scan archive: %w", err)
	}
	report.ArchiveIssues = scan.TotalCount

	if err := p.retryUnpublished(ctx, &report); err != nil {
		return report, err
	}

	issues := make([]string, 0, len(scan.NewReviews))
	for issueURL := range scan.NewReviews {
		issues = append(issues, issueURL)
	}
	sort.Strings(issues)

	for _, issueURL := range issues {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		articles, err := p.ingestIssue(ctx, issueURL, now)
		if err != nil {
			return report, err
		}
		if articles == nil {
			continue
		}
		report.NewIssues++
		report.Articles += len(articles)

		for _, article := range articles {
			if p.publishAndAnnounce(ctx, article) {
				report.Published++
			} else if p.publisher != nil {
				report.PublishFailed++
			}
		}
	}

	p.info("run finished",
		"archive_issues", report.ArchiveIssues,
		"new_issues", report.NewIssues,
		"articles", report.Articles,
		"retried", report.Retried,
		"published", report.Published,
		"publish_failed", report.PublishFailed)
	return report, nil
}

// ingestIssue returns nil when the issue yielded no articles; such issues
// stay out of the catalog so the next run retries them.
func (p *Pipeline) ingestIssue(ctx context.Context, issueURL string, now time.Time) ([]domain.Article, error) {
	records, stats := p.scrapers(issueURL).ScrapeReviewBatch(ctx)
	if len(records) == 0 {
		p.warn("issue has no valid articles", "url", issueURL, "found", stats.Found, "skipped", stats.Skipped)
		return nil, nil
	}

	review := domain.NewReview(issueURL, now)
	if err := p.repository.UpsertReview(ctx, review); err != nil {
		return nil, fmt.Errorf("persist review %s: %w", issueURL, err)
	}

	articles := make([]domain.Article, 0, len(records))
	for _, record := range records {
		article := record.ToArticle(review.ID, now)
		if err := p.repository.UpsertArticle(ctx, article); err != nil {
			return nil, fmt.Errorf("persist article %s: %w", article.OriginalURL, err)
		}
		articles = append(articles, article)
	}

	p.info("issue stored", "url", issueURL, "review_id", review.ID, "articles", len(articles), "skipped", stats.Skipped)
	return articles, nil
}

func (p *Pipeline) retryUnpublished(ctx context.Context, report *Report) error {
	if p.publisher == nil {
		return nil
	}

	pending, err := p.repository.UnpublishedArticles(ctx)
	if err != nil {
		return fmt.Errorf("load unpublished articles: %w", err)
	}

	for _, article := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Retried++
		if p.publishAndAnnounce(ctx, article) {
			report.Published++
		} else {
			report.PublishFailed++
		}
	}
	return nil
}

func (p *Pipeline) publishAndAnnounce(ctx context.Context, article domain.Article) bool {
	if p.publisher == nil {
		return false
	}

	urls, err := p.publisher.PublishArticle(ctx, article)
	if err != nil {
		p.warn("publish failed", "url", article.OriginalURL, "error", err)
		return false
	}
	article.TelegraphURLs = append(article.TelegraphURLs, urls...)

	if p.notifier != nil {
		if err := p.notifier.AnnounceArticle(ctx, article); err != nil {
			p.warn("announce failed", "url", article.OriginalURL, "error", err)
		}
	}
	return true
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
