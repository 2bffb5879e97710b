package publishing

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxChunkChars keeps pages well below the platform's 64 KiB limit.
const DefaultMaxChunkChars = 30000

var errNonPositiveLimit = errors.New("max chunk size must be positive")

var chunkBlocks = map[string]struct{}{
	"p": {}, "ul": {}, "ol": {}, "blockquote": {}, "pre": {}, "img": {}, "hr": {},
}

// SplitContent cuts sanitized article HTML into chunks of at most maxChars
// characters. Chunks only break between top-level blocks; a block longer
// than maxChars becomes a chunk of its own.
func SplitContent(content string, maxChars int) ([]string, error) {
	if maxChars <= 0 {
		return nil, errNonPositiveLimit
	}

	blocks, err := Blocks(content)
	if err != nil {
		return nil, err
	}
	return SplitBlocks(blocks, maxChars), nil
}

// Blocks returns the serialized top-level blocks that take part in paging.
func Blocks(content string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}

	var (
		blocks []string
		outErr error
	)
	doc.Find("body").Children().EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if _, ok := chunkBlocks[goquery.NodeName(sel)]; !ok {
			return true
		}
		markup, err := goquery.OuterHtml(sel)
		if err != nil {
			outErr = fmt.Errorf("render block: %w", err)
			return false
		}
		blocks = append(blocks, markup)
		return true
	})
	if outErr != nil {
		return nil, outErr
	}
	return blocks, nil
}

// SplitBlocks groups blocks greedily; lengths are counted in runes.
func SplitBlocks(blocks []string, maxChars int) []string {
	chunks := make([]string, 0)

	var (
		current    strings.Builder
		currentLen int
	)
	flush := func() {
		if currentLen == 0 {
			return
		}
		chunks = append(chunks, current.String())
		current.Reset()
		currentLen = 0
	}

	for _, block := range blocks {
		size := utf8.RuneCountInString(block)
		if currentLen+size > maxChars {
			flush()
		}
		current.WriteString(block)
		currentLen += size
	}
	flush()

	return chunks
}
