package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ListingParser extracts links from index pages using CSS selectors.
type ListingParser struct {
	BaseURL   string
	Selectors []string
}

var _ URLExtractor = (*ListingParser)(nil)

// NewListingParser wires the base URL used to absolutize root-relative links.
func NewListingParser(baseURL string, selectors []string) *ListingParser {
	return &ListingParser{BaseURL: baseURL, Selectors: selectors}
}

// ParseListing returns the links matched by every selector, in selector
// order, without duplicates.
func (p *ListingParser) ParseListing(html string) ([]string, error) {
	doc, err := CreateDocument(html)
	if err != nil {
		return nil, err
	}
	return p.extractLinks(doc.Selection), nil
}

func (p *ListingParser) extractLinks(root *goquery.Selection) []string {
	links := make([]string, 0)
	seen := map[string]struct{}{}

	for _, selector := range p.Selectors {
		root.Find(selector).Each(func(_ int, anchor *goquery.Selection) {
			href, ok := anchor.Attr("href")
			href = strings.TrimSpace(href)
			if !ok || href == "" {
				return
			}

			link := NormalizeURL(href, p.BaseURL)
			if _, dup := seen[link]; dup {
				return
			}
			seen[link] = struct{}{}
			links = append(links, link)
		})
	}

	return links
}

// NormalizeURL resolves hrefs starting with "/" against base. Any other
// href, including relative paths without a leading slash, is returned as is.
func NormalizeURL(href, base string) string {
	if !strings.HasPrefix(href, "/") {
		return href
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}
