package telegraph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"ReviewScanner/internal/ports"
)

const (
	defaultEndpoint = "https://api.telegra.ph"
	titleLimit      = 256
	authorLimit     = 128
)

// Node is an element of the Telegraph content DOM. Text nodes are plain strings.
type Node struct {
	Tag      string            `json:"tag"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []any             `json:"children,omitempty"`
}

type createPageResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Result struct {
		Path string `json:"path"`
		URL  string `json:"url"`
	} `json:"result"`
}

// Client creates pages through the Telegraph API.
type Client struct {
	endpoint    string
	accessToken string
	authorName  string
	client      *http.Client
	logger      *slog.Logger
}

var _ ports.PageCreator = (*Client)(nil)

// NewClient falls back to the public API endpoint when endpoint is empty.
// authorName is used for pages whose article has no authors.
func NewClient(endpoint, accessToken, authorName string, log *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		endpoint:    strings.TrimRight(endpoint, "/"),
		accessToken: accessToken,
		authorName:  authorName,
		client:      &http.Client{Timeout: 15 * time.Second},
		logger:      log,
	}
}

// CreatePage publishes htmlContent and returns the page URL.
func (c *Client) CreatePage(ctx context.Context, title, htmlContent, authorName string) (string, error) {
	if c.accessToken == "" {
		return "", fmt.Errorf("telegraph client misconfigured: empty access token")
	}

	nodes, err := ContentNodes(htmlContent)
	if err != nil {
		return "", err
	}
	content, err := json.Marshal(nodes)
	if err != nil {
		return "", fmt.Errorf("encode content: %w", err)
	}

	if authorName == "" {
		authorName = c.authorName
	}

	form := url.Values{}
	form.Set("access_token", c.accessToken)
	form.Set("title", truncate(title, titleLimit))
	form.Set("content", string(content))
	if authorName != "" {
		form.Set("author_name", truncate(authorName, authorLimit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/createPage", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("telegraph error: %s", resp.Status)
	}

	var decoded createPageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if !decoded.OK {
		return "", fmt.Errorf("telegraph createPage: %s", decoded.Error)
	}

	if c.logger != nil {
		c.logger.Debug("page created", "title", title, "url", decoded.Result.URL)
	}
	return decoded.Result.URL, nil
}

// ContentNodes converts an HTML fragment into Telegraph nodes. Only href and
// src attributes survive.
func ContentNodes(htmlContent string) ([]any, error) {
	fragment, err := html.ParseFragment(strings.NewReader(htmlContent), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}

	nodes := make([]any, 0, len(fragment))
	for _, n := range fragment {
		if converted := convert(n); converted != nil {
			nodes = append(nodes, converted)
		}
	}
	return nodes, nil
}

func convert(n *html.Node) any {
	switch n.Type {
	case html.TextNode:
		if n.Data == "" {
			return nil
		}
		return n.Data
	case html.ElementNode:
		node := Node{Tag: n.Data}
		for _, attr := range n.Attr {
			if attr.Key == "href" || attr.Key == "src" {
				if node.Attrs == nil {
					node.Attrs = map[string]string{}
				}
				node.Attrs[attr.Key] = attr.Val
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if converted := convert(child); converted != nil {
				node.Children = append(node.Children, converted)
			}
		}
		return node
	default:
		return nil
	}
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
