package parser

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	base := "https://example.org/magazine/"
	cases := []struct {
		href string
		want string
	}{
		{"/issues/179/", "https://example.org/issues/179/"},
		{"/issues/179/?page=2#top", "https://example.org/issues/179/?page=2#top"},
		{"https://other.org/a", "https://other.org/a"},
		{"#comments", "#comments"},
		{"?page=2", "?page=2"},
		{"article/123", "article/123"},
		{"mailto:editor@example.org", "mailto:editor@example.org"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeURL(tc.href, base), "href %q", tc.href)
	}
}

func TestParseListingDeduplicatesInFirstSeenOrder(t *testing.T) {
	t.Parallel()

	html := `
	<main>
	  <h2><a href="/issues/178/">178</a></h2>
	  <h2><a href="/issues/179/">179</a></h2>
	  <h2><a href="/issues/178/">178 again</a></h2>
	  <h2><a href="">empty</a></h2>
	  <h2><a>missing</a></h2>
	  <h3><a href="https://example.org/issues/177/">177</a></h3>
	  <h3><a href="/issues/179/">179 again</a></h3>
	</main>`

	p := NewListingParser("https://example.org", []string{"h2 a", "h3 a"})
	links, err := p.ParseListing(html)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://example.org/issues/178/",
		"https://example.org/issues/179/",
		"https://example.org/issues/177/",
	}, links)
}

func TestParseListingSameURLThreeTimes(t *testing.T) {
	t.Parallel()

	html := `<div><a class="x" href="/a">1</a><a class="x" href="/a">2</a><a class="x" href="/a">3</a></div>`
	p := NewListingParser("https://example.org", []string{"a.x"})

	links, err := p.ParseListing(html)
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

func TestParseArchivePage(t *testing.T) {
	t.Parallel()

	html := archiveHTML(179, 178, 177, 176, 175)
	p := NewArchiveParser("https://example.org", nil)

	links, err := p.ParseArchivePage(html)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.org/issues/179/",
		"https://example.org/issues/178/",
		"https://example.org/issues/177/",
		"https://example.org/issues/176/",
		"https://example.org/issues/175/",
	}, links)
}

func archiveHTML(issues ...int) string {
	html := `<html><body><nav><a href="/about/">About</a></nav><ul>`
	for _, n := range issues {
		html += `<li><h2><a href="/issues/` + strconv.Itoa(n) + `/">Issue ` + strconv.Itoa(n) + `</a></h2></li>`
	}
	return html + `</ul><p><a href="/issues/subscribe/">not a heading</a></p></body></html>`
}

