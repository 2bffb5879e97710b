package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/scraper"
)

var runAt = time.Date(2025, time.October, 2, 12, 0, 0, 0, time.UTC)

type stubScanner struct {
	result domain.ScanResult
	err    error
}

func (s stubScanner) ScanForNewReviews(context.Context) (domain.ScanResult, error) {
	return s.result, s.err
}

type stubScraper struct {
	records []domain.ContentRecord
}

func (s stubScraper) ScrapeReviewBatch(context.Context) ([]domain.ContentRecord, scraper.BatchStats) {
	return s.records, scraper.BatchStats{Found: len(s.records), Scraped: len(s.records)}
}

type memoryRepo struct {
	mu         sync.Mutex
	reviews    []domain.Review
	articles   []domain.Article
	pending    []domain.Article
	failReview bool
}

func (r *memoryRepo) UnpublishedArticles(context.Context) ([]domain.Article, error) {
	return r.pending, nil
}

func (r *memoryRepo) AllSourceURLs(context.Context) (map[string]struct{}, error) { return nil, nil }
func (r *memoryRepo) ReviewByID(context.Context, int64) (*domain.Review, error)  { return nil, nil }

func (r *memoryRepo) UpsertReview(_ context.Context, review domain.Review) error {
	if r.failReview {
		return errors.New("disk full")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews = append(r.reviews, review)
	return nil
}

func (r *memoryRepo) UpsertArticle(_ context.Context, article domain.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.articles = append(r.articles, article)
	return nil
}

func (r *memoryRepo) AppendTelegraphURLs(context.Context, uuid.UUID, []string) error { return nil }

type stubPublisher struct {
	failFor string
}

func (p stubPublisher) PublishArticle(_ context.Context, article domain.Article) ([]string, error) {
	if strings.Contains(article.OriginalURL, p.failFor) && p.failFor != "" {
		return nil, errors.New("flood wait")
	}
	return []string{"https://telegra.ph/" + article.Title}, nil
}

type recordingNotifier struct {
	announced []domain.Article
}

func (n *recordingNotifier) AnnounceArticle(_ context.Context, article domain.Article) error {
	n.announced = append(n.announced, article)
	return nil
}

func record(slug string) domain.ContentRecord {
	return domain.ContentRecord{
		Title:       slug,
		Content:     "<p>" + slug + "</p>",
		OriginalURL: "https://example.org/2025/10/01/" + slug + "/",
	}
}

func newTestPipeline(repo *memoryRepo, notifier *recordingNotifier, publisher ArticlePublisher, scan stubScanner) *Pipeline {
	issues := map[string][]domain.ContentRecord{
		"https://example.org/issues/178/": {record("first"), record("broken")},
		"https://example.org/issues/179/": {record("third")},
		"https://example.org/issues/180/": nil,
	}
	deps := PipelineDeps{
		Scanner: scan,
		Scrapers: func(issueURL string) IssueScraper {
			return stubScraper{records: issues[issueURL]}
		},
		Repository: repo,
		Publisher:  publisher,
	}
	if notifier != nil {
		deps.Notifier = notifier
	}
	return NewPipeline(deps)
}

func newIssues(urls ...string) stubScanner {
	set := map[string]struct{}{}
	for _, u := range urls {
		set[u] = struct{}{}
	}
	return stubScanner{result: domain.ScanResult{NewReviews: set, ExistingReviews: map[string]struct{}{}, TotalCount: len(urls) + 2}}
}

func TestPipelineRun(t *testing.T) {
	t.Parallel()

	repo := &memoryRepo{}
	notifier := &recordingNotifier{}
	scan := newIssues("https://example.org/issues/179/", "https://example.org/issues/178/", "https://example.org/issues/180/")
	p := newTestPipeline(repo, notifier, stubPublisher{failFor: "broken"}, scan)

	report, err := p.Run(context.Background(), runAt)
	require.NoError(t, err)

	assert.Equal(t, Report{ArchiveIssues: 5, NewIssues: 2, Articles: 3, Published: 2, PublishFailed: 1}, report)

	require.Len(t, repo.reviews, 2)
	assert.Equal(t, int64(178), repo.reviews[0].ID)
	assert.Equal(t, int64(179), repo.reviews[1].ID)
	require.Len(t, repo.articles, 3)
	assert.Equal(t, int64(178), repo.articles[0].ReviewID)
	assert.Equal(t, runAt, repo.articles[0].CreatedAt)

	require.Len(t, notifier.announced, 2)
	assert.Equal(t, "first", notifier.announced[0].Title)
	assert.Equal(t, []string{"https://telegra.ph/first"}, notifier.announced[0].TelegraphURLs)
	assert.Equal(t, "third", notifier.announced[1].Title)
}

func TestPipelineWithoutPublisherOnlyStores(t *testing.T) {
	t.Parallel()

	repo := &memoryRepo{}
	notifier := &recordingNotifier{}
	p := newTestPipeline(repo, notifier, nil, newIssues("https://example.org/issues/179/"))

	report, err := p.Run(context.Background(), runAt)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Articles)
	assert.Zero(t, report.Published)
	assert.Zero(t, report.PublishFailed)
	assert.Empty(t, notifier.announced)
	assert.Len(t, repo.articles, 1)
}

func TestPipelinePropagatesScanError(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(&memoryRepo{}, nil, nil, stubScanner{err: domain.ErrRequestFailed})
	_, err := p.Run(context.Background(), runAt)
	assert.ErrorIs(t, err, domain.ErrRequestFailed)
}

func TestPipelinePropagatesStorageError(t *testing.T) {
	t.Parallel()

	repo := &memoryRepo{failReview: true}
	p := newTestPipeline(repo, nil, nil, newIssues("https://example.org/issues/179/"))
	_, err := p.Run(context.Background(), runAt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

type immediateDriver struct {
	stopped bool
}

func (d *immediateDriver) Start(_ context.Context, job func(time.Time)) error {
	job(runAt)
	return nil
}

func (d *immediateDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunsPipeline(t *testing.T) {
	t.Parallel()

	repo := &memoryRepo{}
	p := newTestPipeline(repo, nil, nil, newIssues("https://example.org/issues/179/"))
	driver := &immediateDriver{}
	s := NewScheduler(driver, p, time.UTC, nil)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	assert.Len(t, repo.reviews, 1)
	assert.True(t, driver.stopped)
}

func TestPipelineRetriesUnpublishedArticles(t *testing.T) {
	t.Parallel()

	leftover := record("leftover").ToArticle(177, runAt.Add(-24*time.Hour))
	stuck := record("broken-again").ToArticle(177, runAt.Add(-24*time.Hour))
	repo := &memoryRepo{pending: []domain.Article{leftover, stuck}}
	notifier := &recordingNotifier{}
	p := newTestPipeline(repo, notifier, stubPublisher{failFor: "broken"}, newIssues("https://example.org/issues/179/"))

	report, err := p.Run(context.Background(), runAt)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Retried)
	assert.Equal(t, 2, report.Published)
	assert.Equal(t, 1, report.PublishFailed)
	require.Len(t, notifier.announced, 2)
	assert.Equal(t, "leftover", notifier.announced[0].Title)
	assert.Equal(t, "third", notifier.announced[1].Title)
}
