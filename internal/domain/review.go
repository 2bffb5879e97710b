package domain

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

var issueNumberExpr = regexp.MustCompile(`(\d+)/?$`)

// Review is one magazine issue identified by its archive URL.
type Review struct {
	ID        int64
	SourceURL string
	CreatedAt time.Time
	Articles  []Article
}

// NewReview builds an issue record for a freshly discovered source URL.
func NewReview(sourceURL string, now time.Time) Review {
	return Review{
		ID:        ReviewIDFromURL(sourceURL),
		SourceURL: sourceURL,
		CreatedAt: now,
	}
}

// ReviewIDFromURL uses the trailing issue number of the URL path when there is
// one and a stable hash of the whole URL otherwise.
func ReviewIDFromURL(sourceURL string) int64 {
	path := sourceURL
	if parsed, err := url.Parse(sourceURL); err == nil && parsed.Path != "" {
		path = parsed.Path
	}

	if m := issueNumberExpr.FindStringSubmatch(strings.TrimSpace(path)); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil && n > 0 {
			return n
		}
	}

	return int64(xxhash.Sum64String(sourceURL) >> 1)
}

// ScanResult partitions the archive listing against the persisted catalog.
type ScanResult struct {
	NewReviews      map[string]struct{}
	ExistingReviews map[string]struct{}
	TotalCount      int
}
