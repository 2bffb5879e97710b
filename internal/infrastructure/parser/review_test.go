package parser

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"ReviewScanner/internal/domain"
)

const articlePage = `
<html>
<head><title>Browser title</title><style>p { color: red }</style></head>
<body>
  <nav><a href="/">Home</a></nav>
  <h1>Site name</h1>
  <h2 class="entry-title">  The   Long Essay </h2>
  <div class="byline">By Jane Doe, John Smith and Mary Major</div>
  <div class="entry-meta">Issue 179 | September–October 2025</div>
  <div class="entry-content">
    <p>First paragraph with a <a href="https://example.org/x">link</a>.</p>
    <div class="sidebar">Subscribe now</div>
    <p>Second paragraph.</p>
  </div>
  <footer>Copyright</footer>
</body>
</html>`

func TestParseContentPage(t *testing.T) {
	t.Parallel()

	p := NewReviewParser("https://example.org", ReviewSelectors{})
	record, err := p.ParseContentPage(articlePage, "https://example.org/essays/long-essay/")
	require.NoError(t, err)

	assert.Equal(t, "The Long Essay", record.Title)
	assert.Equal(t, `<p>First paragraph with a <a href="https://example.org/x">link</a>.</p><p>Second paragraph.</p>`, record.Content)
	assert.Equal(t, "https://example.org/essays/long-essay/", record.OriginalURL)
	assert.Equal(t, []string{"Jane Doe", "John Smith", "Mary Major"}, record.Authors)
	assert.Equal(t, time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), record.PublicationDate)
}

func TestParseContentPageDateFromURL(t *testing.T) {
	t.Parallel()

	p := NewReviewParser("https://example.org", ReviewSelectors{})
	record, err := p.ParseContentPage(
		`<html><body><h1>Notes</h1><div class="entry-content"><p>Body</p></div></body></html>`,
		"https://example.org/2025/10/01/notes/",
	)
	require.NoError(t, err)
	assert.Equal(t, "2025-10-01", record.PublicationDate.Format("2006-01-02"))
	assert.Equal(t, "Notes", record.Title)
	assert.Empty(t, record.Authors)
}

func TestParseContentPageWithoutDateFails(t *testing.T) {
	t.Parallel()

	p := NewReviewParser("https://example.org", ReviewSelectors{})
	_, err := p.ParseContentPage(`<html><body><p>Body</p></body></html>`, "https://example.org/notes/")
	assert.ErrorIs(t, err, domain.ErrDateExtractionFailed)
}

func TestExtractTitleFallbacks(t *testing.T) {
	t.Parallel()

	p := NewReviewParser("https://example.org", ReviewSelectors{})

	doc, err := CreateDocument(`<h1>Heading</h1>`)
	require.NoError(t, err)
	assert.Equal(t, "Heading", p.ExtractTitle(doc))

	doc, err = CreateDocument(`<p>no headings</p>`)
	require.NoError(t, err)
	assert.Equal(t, "Untitled", p.ExtractTitle(doc))
}

func TestSanitizeForPublishingAllowlist(t *testing.T) {
	t.Parallel()

	p := NewReviewParser("https://example.org", ReviewSelectors{})
	doc, err := CreateDocument(`<html><body><script>steal()</script><nav>Menu</nav><span>hello</span></body></html>`)
	require.NoError(t, err)

	out, err := p.ExtractBody(doc)
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", out)
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "Menu")
}

func TestSanitizeWrapsOrphans(t *testing.T) {
	t.Parallel()

	p := NewReviewParser("https://example.org", ReviewSelectors{})
	doc, err := CreateDocument(`<div class="entry-content"><!-- ad --><b>Lead</b> <i>in</i><p>First <span>kept</span> text.</p><span>orphan</span><div><p>Nested</p></div><li>stray</li><hr></div>`)
	require.NoError(t, err)

	out, err := p.ExtractBody(doc)
	require.NoError(t, err)
	assert.Equal(t,
		`<p><b>Lead</b> <i>in</i></p><p>First kept text.orphan</p><p>Nested</p><ul><li>stray</li></ul><hr/>`,
		out,
	)

	// the source document is not modified
	assert.Equal(t, 2, doc.Find(".entry-content span").Length())
}

func reparse(t *testing.T, markup string) string {
	t.Helper()

	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	for _, node := range nodes {
		require.NoError(t, html.Render(&buf, node))
	}
	return buf.String()
}

func TestSanitizeLiftsBlocksOutOfInlineWrappers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "linked paragraph",
			in:   `<p>intro</p><a href="https://x.org/a"><p>linked paragraph text</p></a><p>outro</p>`,
			want: `<p>intro</p><p><a href="https://x.org/a">linked paragraph text</a></p><p>outro</p>`,
		},
		{
			name: "bold block",
			in:   `<b><p>bold block</p></b>`,
			want: `<p><b>bold block</b></p>`,
		},
		{
			name: "card with text around blocks",
			in: `<a href="https://x.org/card">Kicker <p>Headline</p>
<ul><li>one</li></ul> tail</a>`,
			want: `<p><a href="https://x.org/card">Kicker </a></p><p><a href="https://x.org/card">Headline</a></p><ul><li>one</li></ul><p><a href="https://x.org/card"> tail</a></p>`,
		},
		{
			name: "nested wrappers",
			in:   `<em><a href="https://x.org/n"><p>deep</p></a></em>`,
			want: `<p><em><a href="https://x.org/n">deep</a></em></p>`,
		},
	}

	p := NewReviewParser("https://example.org", ReviewSelectors{})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			doc, err := CreateDocument(`<div class="entry-content">` + tc.in + `</div>`)
			require.NoError(t, err)

			out, err := p.ExtractBody(doc)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
			assert.Equal(t, out, reparse(t, out))
		})
	}
}

func TestSanitizeKeepsLinksVerbatim(t *testing.T) {
	t.Parallel()

	p := NewReviewParser("https://example.org", ReviewSelectors{})
	doc, err := CreateDocument(`<div class="entry-content"><p><a href="https://x.org/a">a</a> <a href="/b">b</a> <a href="javascript:alert(1)">c</a></p></div>`)
	require.NoError(t, err)

	out, err := p.ExtractBody(doc)
	require.NoError(t, err)
	assert.NotContains(t, out, "nofollow")
	assert.Equal(t, `<p><a href="https://x.org/a">a</a> <a href="/b">b</a> c</p>`, out)
}

func TestSplitByline(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"Jane Doe", "John Smith", "Mary Major"}, SplitByline("By Jane Doe, John Smith and Mary Major"))
	assert.Equal(t, []string{"alice", "BOB"}, SplitByline("BY alice and BOB"))
	assert.Equal(t, []string{"Byron Keats"}, SplitByline("Byron Keats"))
	assert.Empty(t, SplitByline("   "))
}

func TestDateFromMeta(t *testing.T) {
	t.Parallel()

	got, ok := DateFromMeta("Issue 175 | March 2024")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), got)

	got, ok = DateFromMeta("Vol. 12 | Jan-Feb 2023")
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), got)

	_, ok = DateFromMeta("Spring issue, no date")
	assert.False(t, ok)

	_, ok = DateFromURL("https://example.org/2025/13/40/bad/")
	assert.False(t, ok)
}
