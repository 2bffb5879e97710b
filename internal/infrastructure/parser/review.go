package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ReviewScanner/internal/domain"
)

const untitled = "Untitled"

var (
	urlDateExpr  = regexp.MustCompile(`/(\d{4})/(\d{2})/(\d{2})(?:/|$)`)
	metaDateExpr = regexp.MustCompile(`\|\s*([A-Za-z]+)(?:\s*[–—-]\s*[A-Za-z]+)?\s+(\d{4})`)
)

// ReviewSelectors locate the parts of an issue or article page.
type ReviewSelectors struct {
	Listing    []string
	Title      string
	Content    string
	Byline     string
	Meta       string
	Irrelevant []string
}

// DefaultReviewSelectors target a typical WordPress-style magazine theme.
func DefaultReviewSelectors() ReviewSelectors {
	return ReviewSelectors{
		Listing: []string{
			`h2.entry-title a`,
			`h3.entry-title a`,
		},
		Title:   ".entry-title",
		Content: ".entry-content",
		Byline:  ".byline",
		Meta:    ".entry-meta",
	}
}

func (s ReviewSelectors) withDefaults() ReviewSelectors {
	def := DefaultReviewSelectors()
	if len(s.Listing) == 0 {
		s.Listing = def.Listing
	}
	if s.Title == "" {
		s.Title = def.Title
	}
	if s.Content == "" {
		s.Content = def.Content
	}
	if s.Byline == "" {
		s.Byline = def.Byline
	}
	if s.Meta == "" {
		s.Meta = def.Meta
	}
	return s
}

// Metadata holds the optional and required fields found around the body.
type Metadata struct {
	Authors         []string
	PublicationDate time.Time
}

// ReviewParser reads both issue pages (as listings) and article pages.
type ReviewParser struct {
	*ListingParser
	selectors ReviewSelectors
	sanitizer *Sanitizer
}

var (
	_ URLExtractor     = (*ReviewParser)(nil)
	_ ContentExtractor = (*ReviewParser)(nil)
)

// NewReviewParser fills unset selectors from DefaultReviewSelectors.
func NewReviewParser(baseURL string, selectors ReviewSelectors) *ReviewParser {
	selectors = selectors.withDefaults()
	return &ReviewParser{
		ListingParser: NewListingParser(baseURL, selectors.Listing),
		selectors:     selectors,
		sanitizer:     NewSanitizer(selectors.Irrelevant),
	}
}

// ParseContentPage extracts title, sanitized body and metadata. A missing
// publication date fails the whole page.
func (p *ReviewParser) ParseContentPage(html, pageURL string) (*domain.ContentRecord, error) {
	doc, err := CreateDocument(html)
	if err != nil {
		return nil, err
	}

	body, err := p.ExtractBody(doc)
	if err != nil {
		return nil, fmt.Errorf("extract body: %w", err)
	}

	meta, err := p.ExtractMetadata(doc, pageURL)
	if err != nil {
		return nil, err
	}

	return &domain.ContentRecord{
		Title:           p.ExtractTitle(doc),
		Content:         body,
		OriginalURL:     pageURL,
		Authors:         meta.Authors,
		PublicationDate: meta.PublicationDate,
	}, nil
}

// ExtractTitle never fails; pages without a heading are "Untitled".
func (p *ReviewParser) ExtractTitle(doc *goquery.Document) string {
	if title := CleanText(doc.Find(p.selectors.Title).First().Text()); title != "" {
		return title
	}
	if title := CleanText(doc.Find("h1").First().Text()); title != "" {
		return title
	}
	return untitled
}

// ExtractBody sanitizes the main content container, or the whole document
// when the page has none.
func (p *ReviewParser) ExtractBody(doc *goquery.Document) (string, error) {
	container := doc.Find(p.selectors.Content).First()
	if container.Length() == 0 {
		container = doc.Selection
	}
	return p.SanitizeForPublishing(container)
}

// SanitizeForPublishing renders content as a sequence of publishable blocks.
func (p *ReviewParser) SanitizeForPublishing(content *goquery.Selection) (string, error) {
	return p.sanitizer.Sanitize(content)
}

// ExtractMetadata collects authors and the publication date.
func (p *ReviewParser) ExtractMetadata(doc *goquery.Document, pageURL string) (Metadata, error) {
	published, err := p.ExtractPublicationDate(doc, pageURL)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		Authors:         p.ExtractAuthors(doc),
		PublicationDate: published,
	}, nil
}

// ExtractAuthors splits the byline on " and " and commas.
func (p *ReviewParser) ExtractAuthors(doc *goquery.Document) []string {
	return SplitByline(doc.Find(p.selectors.Byline).First().Text())
}

// SplitByline turns "By A, B and C" into its names, keeping their casing.
func SplitByline(byline string) []string {
	text := CleanText(byline)
	if len(text) >= 3 && strings.EqualFold(text[:3], "by ") {
		text = text[3:]
	}

	authors := make([]string, 0)
	for _, part := range strings.Split(text, " and ") {
		for _, name := range strings.Split(part, ",") {
			if name = strings.TrimSpace(name); name != "" {
				authors = append(authors, name)
			}
		}
	}
	return authors
}

// ExtractPublicationDate reads YYYY/MM/DD from the URL path, then the
// "... | Month[–Month] Year" line of the meta element.
func (p *ReviewParser) ExtractPublicationDate(doc *goquery.Document, pageURL string) (time.Time, error) {
	if published, ok := DateFromURL(pageURL); ok {
		return published, nil
	}

	if doc != nil {
		if published, ok := DateFromMeta(doc.Find(p.selectors.Meta).First().Text()); ok {
			return published, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %s", domain.ErrDateExtractionFailed, pageURL)
}

// DateFromURL parses a /YYYY/MM/DD/ segment of the URL path.
func DateFromURL(pageURL string) (time.Time, bool) {
	path := pageURL
	if parsed, err := url.Parse(pageURL); err == nil {
		path = parsed.Path
	}

	m := urlDateExpr.FindStringSubmatch(path)
	if m == nil {
		return time.Time{}, false
	}

	published, err := time.Parse("2006/01/02", m[1]+"/"+m[2]+"/"+m[3])
	if err != nil {
		return time.Time{}, false
	}
	return published, true
}

// DateFromMeta maps "Issue 179 | September–October 2025" to 2025-09-01.
func DateFromMeta(text string) (time.Time, bool) {
	m := metaDateExpr.FindStringSubmatch(CleanText(text))
	if m == nil {
		return time.Time{}, false
	}

	for _, layout := range []string{"January 2006", "Jan 2006"} {
		if published, err := time.Parse(layout, m[1]+" "+m[2]); err == nil {
			return published, true
		}
	}
	return time.Time{}, false
}
