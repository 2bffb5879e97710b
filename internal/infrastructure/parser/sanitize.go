package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PublishingTags is the set of elements the publishing platform renders.
var PublishingTags = []string{
	"a", "b", "i", "em", "strong", "u", "s",
	"blockquote", "code", "pre", "p", "ul", "ol", "li",
	"br", "hr", "img",
}

// DefaultIrrelevantSelectors are removed together with their content.
var DefaultIrrelevantSelectors = []string{
	"head", "nav", "header", "footer", "aside",
	".sidebar", "#sidebar", ".comments", "#comments",
	"script", "style", "noscript", "form", "iframe",
}

// Sanitizer reduces article markup to publishing-safe block-level HTML.
type Sanitizer struct {
	irrelevant string
	policy     *bluemonday.Policy
}

// NewSanitizer uses DefaultIrrelevantSelectors when irrelevant is empty.
func NewSanitizer(irrelevant []string) *Sanitizer {
	if len(irrelevant) == 0 {
		irrelevant = DefaultIrrelevantSelectors
	}

	policy := bluemonday.NewPolicy()
	policy.AllowElements(PublishingTags...)
	policy.AllowAttrs("href").OnElements("a")
	policy.AllowAttrs("src", "alt").OnElements("img")
	policy.AllowURLSchemes("http", "https", "mailto")
	policy.AllowRelativeURLs(true)
	policy.RequireParseableURLs(true)

	return &Sanitizer{
		irrelevant: strings.Join(irrelevant, ", "),
		policy:     policy,
	}
}

// Sanitize removes irrelevant subtrees, unwraps tags outside PublishingTags
// and wraps orphaned inline content into paragraphs. The input selection is
// left untouched.
func (s *Sanitizer) Sanitize(content *goquery.Selection) (string, error) {
	if content == nil || content.Length() == 0 {
		return "", nil
	}

	content = content.Clone()
	content.Find(s.irrelevant).Remove()
	for _, node := range content.Nodes {
		removeComments(node)
	}

	var inner strings.Builder
	content.Each(func(_ int, sel *goquery.Selection) {
		markup, err := sel.Html()
		if err == nil {
			inner.WriteString(markup)
		}
	})

	cleaned := s.policy.Sanitize(inner.String())

	nodes, err := html.ParseFragment(strings.NewReader(cleaned), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return "", fmt.Errorf("parse sanitized fragment: %w", err)
	}

	var buf bytes.Buffer
	for _, node := range wrapOrphans(nodes) {
		if err := html.Render(&buf, node); err != nil {
			return "", fmt.Errorf("render sanitized fragment: %w", err)
		}
	}
	return buf.String(), nil
}

func removeComments(node *html.Node) {
	for child := node.FirstChild; child != nil; {
		next := child.NextSibling
		if child.Type == html.CommentNode {
			node.RemoveChild(child)
		} else {
			removeComments(child)
		}
		child = next
	}
}

func isBlock(node *html.Node) bool {
	if node.Type != html.ElementNode {
		return false
	}
	switch node.DataAtom {
	case atom.P, atom.Ul, atom.Ol, atom.Blockquote, atom.Pre, atom.Hr, atom.Img:
		return true
	}
	return false
}

func newElement(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
}

func isListItem(node *html.Node) bool {
	return node.Type == html.ElementNode && node.DataAtom == atom.Li
}

func isBlank(node *html.Node) bool {
	return node.Type == html.TextNode && strings.TrimSpace(node.Data) == ""
}

func hasBlockDescendant(node *html.Node) bool {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if isBlock(child) || isListItem(child) || hasBlockDescendant(child) {
			return true
		}
	}
	return false
}

func hasDescendant(node *html.Node, a atom.Atom) bool {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if (child.Type == html.ElementNode && child.DataAtom == a) || hasDescendant(child, a) {
			return true
		}
	}
	return false
}

func shallowCopy(node *html.Node) *html.Node {
	return &html.Node{
		Type:      node.Type,
		Data:      node.Data,
		DataAtom:  node.DataAtom,
		Namespace: node.Namespace,
		Attr:      append([]html.Attribute(nil), node.Attr...),
	}
}

// wrapContents moves every child of para into a copy of inline. Links are
// not nested into paragraphs that already hold a link.
func wrapContents(para, inline *html.Node) {
	if para.FirstChild == nil || (inline.DataAtom == atom.A && hasDescendant(para, atom.A)) {
		return
	}
	wrapper := shallowCopy(inline)
	for child := para.FirstChild; child != nil; child = para.FirstChild {
		para.RemoveChild(child)
		wrapper.AppendChild(child)
	}
	para.AppendChild(wrapper)
}

// liftBlocks splits an inline element that contains blocks, such as a link
// around a paragraph, into top-level nodes. Runs of inline children keep a
// copy of the element, paragraphs get it pushed inside, other blocks are
// lifted as they are. Nodes without block descendants are returned as is.
func liftBlocks(node *html.Node) []*html.Node {
	if node.Type != html.ElementNode || isBlock(node) || isListItem(node) || !hasBlockDescendant(node) {
		return []*html.Node{node}
	}

	children := make([]*html.Node, 0)
	for child := node.FirstChild; child != nil; child = node.FirstChild {
		node.RemoveChild(child)
		children = append(children, child)
	}

	out := make([]*html.Node, 0, len(children))
	var run *html.Node
	for _, child := range children {
		for _, lifted := range liftBlocks(child) {
			switch {
			case isBlock(lifted) || isListItem(lifted):
				run = nil
				if lifted.DataAtom == atom.P {
					wrapContents(lifted, node)
				}
				out = append(out, lifted)
			case run == nil && isBlank(lifted):
				out = append(out, lifted)
			default:
				if run == nil {
					run = shallowCopy(node)
					out = append(out, run)
				}
				run.AppendChild(lifted)
			}
		}
	}
	return out
}

// wrapOrphans makes every top-level node a block element. Inline nodes join
// the immediately preceding paragraph or start a new one; stray list items
// are collected into a list. The result renders to markup that parses back
// into the same top-level blocks.
func wrapOrphans(nodes []*html.Node) []*html.Node {
	lifted := make([]*html.Node, 0, len(nodes))
	for _, node := range nodes {
		lifted = append(lifted, liftBlocks(node)...)
	}

	out := make([]*html.Node, 0, len(lifted))
	var pendingSpace *html.Node

	last := func() *html.Node {
		if len(out) == 0 {
			return nil
		}
		return out[len(out)-1]
	}

	for _, node := range lifted {
		switch {
		case node.Type == html.CommentNode:
			continue
		case isBlank(node):
			if prev := last(); prev != nil && prev.DataAtom == atom.P {
				pendingSpace = node
			}
			continue
		case isBlock(node):
			pendingSpace = nil
			out = append(out, node)
		case isListItem(node):
			pendingSpace = nil
			list := last()
			if list == nil || (list.DataAtom != atom.Ul && list.DataAtom != atom.Ol) {
				list = newElement(atom.Ul)
				out = append(out, list)
			}
			list.AppendChild(node)
		default:
			para := last()
			if para == nil || para.DataAtom != atom.P {
				para = newElement(atom.P)
				out = append(out, para)
			} else if pendingSpace != nil {
				para.AppendChild(pendingSpace)
			}
			pendingSpace = nil
			para.AppendChild(node)
		}
	}

	return out
}
