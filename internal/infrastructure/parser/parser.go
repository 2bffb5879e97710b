package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ReviewScanner/internal/domain"
)

// URLExtractor turns a listing page into the URLs it links to.
type URLExtractor interface {
	ParseListing(html string) ([]string, error)
}

// ContentExtractor turns a content page into a structured record.
type ContentExtractor interface {
	ParseContentPage(html, pageURL string) (*domain.ContentRecord, error)
}

// CreateDocument parses raw HTML into a queryable document.
func CreateDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// CleanText collapses runs of whitespace into single spaces.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
