package publishing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReviewScanner/internal/domain"
)

var testNow = time.Date(2025, time.October, 2, 12, 0, 0, 0, time.UTC)

type createdPage struct {
	title, content, author string
}

type fakePages struct {
	created []createdPage
	failAt  int
}

func (f *fakePages) CreatePage(_ context.Context, title, content, author string) (string, error) {
	if f.failAt > 0 && len(f.created)+1 == f.failAt {
		return "", errors.New("flood wait")
	}
	f.created = append(f.created, createdPage{title: title, content: content, author: author})
	return fmt.Sprintf("https://telegra.ph/page-%d", len(f.created)), nil
}

type recordingRepo struct {
	appended map[uuid.UUID][]string
}

func (r *recordingRepo) AllSourceURLs(context.Context) (map[string]struct{}, error) { return nil, nil }
func (r *recordingRepo) ReviewByID(context.Context, int64) (*domain.Review, error)  { return nil, nil }
func (r *recordingRepo) UpsertReview(context.Context, domain.Review) error           { return nil }
func (r *recordingRepo) UpsertArticle(context.Context, domain.Article) error         { return nil }
func (r *recordingRepo) UnpublishedArticles(context.Context) ([]domain.Article, error) { return nil, nil }
func (r *recordingRepo) AppendTelegraphURLs(_ context.Context, id uuid.UUID, urls []string) error {
	if r.appended == nil {
		r.appended = map[uuid.UUID][]string{}
	}
	r.appended[id] = append(r.appended[id], urls...)
	return nil
}

func testArticle() domain.Article {
	content := "<p>" + strings.Repeat("a", 40) + "</p>" +
		"<p>" + strings.Repeat("b", 40) + "</p>" +
		"<p>" + strings.Repeat("c", 40) + "</p>"
	return domain.ContentRecord{
		Title:       "Essay",
		Content:     content,
		OriginalURL: "https://example.org/2025/10/01/essay/",
		Authors:     []string{"Jane Doe", "John Smith"},
	}.ToArticle(179, testNow)
}

func TestPublishArticleTitlesParts(t *testing.T) {
	t.Parallel()

	pages := &fakePages{}
	repo := &recordingRepo{}
	p := NewPublisher(pages, repo, 50, nil)
	article := testArticle()

	urls, err := p.PublishArticle(context.Background(), article)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://telegra.ph/page-1",
		"https://telegra.ph/page-2",
		"https://telegra.ph/page-3",
	}, urls)
	require.Len(t, pages.created, 3)
	assert.Equal(t, "Essay", pages.created[0].title)
	assert.Equal(t, "Essay (part 2)", pages.created[1].title)
	assert.Equal(t, "Essay (part 3)", pages.created[2].title)
	assert.Equal(t, "Jane Doe, John Smith", pages.created[0].author)
	assert.Equal(t, urls, repo.appended[article.ID])

	var joined string
	for _, page := range pages.created {
		joined += page.content
	}
	assert.Equal(t, article.Content, joined)
}

func TestPublishArticleFailureStoresNothing(t *testing.T) {
	t.Parallel()

	pages := &fakePages{failAt: 2}
	repo := &recordingRepo{}
	p := NewPublisher(pages, repo, 50, nil)

	_, err := p.PublishArticle(context.Background(), testArticle())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create page 2/3")
	assert.Empty(t, repo.appended)
}

func TestPartTitle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Essay", PartTitle("Essay", 1))
	assert.Equal(t, "Essay (part 4)", PartTitle("Essay", 4))
}
