package domain

import (
	"time"

	"github.com/google/uuid"
)

// Article is a single piece published inside a magazine issue.
type Article struct {
	ID              uuid.UUID
	Title           string
	Content         string
	OriginalURL     string
	ReviewID        int64
	Authors         []string
	PublicationDate time.Time
	TelegraphURLs   []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Published reports whether the article already has chunk pages.
func (a Article) Published() bool {
	return len(a.TelegraphURLs) > 0
}

// ArticleIDFromURL derives a stable identifier from the article page URL.
func ArticleIDFromURL(originalURL string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(originalURL))
}

// ContentRecord is the structured result of parsing one content page.
type ContentRecord struct {
	Title           string
	Content         string
	OriginalURL     string
	Authors         []string
	PublicationDate time.Time
}

// ToArticle attaches the record to a review.
func (r ContentRecord) ToArticle(reviewID int64, now time.Time) Article {
	authors := r.Authors
	if authors == nil {
		authors = []string{}
	}

	return Article{
		ID:              ArticleIDFromURL(r.OriginalURL),
		Title:           r.Title,
		Content:         r.Content,
		OriginalURL:     r.OriginalURL,
		ReviewID:        reviewID,
		Authors:         authors,
		PublicationDate: r.PublicationDate,
		TelegraphURLs:   []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
