package parser

// DefaultArchiveSelectors match heading-wrapped links into the issue category.
var DefaultArchiveSelectors = []string{
	`h2 a[href^="/issues/"]`,
	`h3 a[href^="/issues/"]`,
}

// ArchiveParser reads the issue index of the magazine archive.
type ArchiveParser struct {
	*ListingParser
}

// NewArchiveParser falls back to DefaultArchiveSelectors when none are given.
func NewArchiveParser(baseURL string, selectors []string) *ArchiveParser {
	if len(selectors) == 0 {
		selectors = DefaultArchiveSelectors
	}
	return &ArchiveParser{ListingParser: NewListingParser(baseURL, selectors)}
}

// ParseArchivePage returns issue URLs in first-seen order.
func (p *ArchiveParser) ParseArchivePage(html string) ([]string, error) {
	return p.ParseListing(html)
}
