package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier announces published articles to a Telegram chat via bot API.
type Notifier struct {
	apiBase  string
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		apiBase:  defaultAPIBase,
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Configured reports whether both the token and the chat are set.
func (n *Notifier) Configured() bool {
	return n != nil && n.botToken != "" && n.chatID != ""
}

// AnnounceArticle posts the article title followed by its page links.
func (n *Notifier) AnnounceArticle(ctx context.Context, article domain.Article) error {
	if !n.Configured() || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}
	if !article.Published() {
		return nil
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", Announcement(article))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

// Announcement renders the message text for an article.
func Announcement(article domain.Article) string {
	var b strings.Builder
	b.WriteString(article.Title)
	if len(article.Authors) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(article.Authors, ", "))
	}
	for _, pageURL := range article.TelegraphURLs {
		b.WriteString("\n")
		b.WriteString(pageURL)
	}
	return b.String()
}
