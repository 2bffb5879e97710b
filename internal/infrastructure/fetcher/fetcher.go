package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"ReviewScanner/internal/domain"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "ReviewScanner/1.0"
)

// Options configures a Fetcher.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Client    *http.Client
	Logger    *slog.Logger
}

// Fetcher downloads HTML pages through a single pooled client.
type Fetcher struct {
	client    *http.Client
	baseURL   string
	userAgent string
	logger    *slog.Logger

	// ErrorHandler receives per-URL failures from FetchMany.
	ErrorHandler func(pageURL string, err error)
}

// New builds a Fetcher; a nil client is replaced by one with the configured timeout.
func New(opts Options) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	f := &Fetcher{
		client:    client,
		baseURL:   opts.BaseURL,
		userAgent: userAgent,
		logger:    opts.Logger,
	}
	f.ErrorHandler = f.logFailure
	return f
}

// ValidateURL accepts only values that parse into both a scheme and a host.
func ValidateURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return parsed.Scheme != "" && parsed.Host != ""
}

// ValidateURL is the method form of the package-level check.
func (f *Fetcher) ValidateURL(raw string) bool {
	return ValidateURL(raw)
}

// Fetch performs one GET and returns the body text. An empty pageURL falls
// back to the configured base URL.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if pageURL == "" {
		pageURL = f.baseURL
	}
	if !ValidateURL(pageURL) {
		return "", &domain.FetchError{URL: pageURL, Kind: domain.ErrInvalidURL}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &domain.FetchError{URL: pageURL, Kind: domain.ErrInvalidURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", &domain.FetchError{URL: pageURL, Kind: domain.ErrTimeout, Err: err}
		}
		return "", &domain.FetchError{URL: pageURL, Kind: domain.ErrRequestFailed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &domain.FetchError{URL: pageURL, Kind: domain.ErrRequestFailed, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return "", &domain.FetchError{URL: pageURL, Kind: domain.ErrTimeout, Err: err}
		}
		return "", &domain.FetchError{URL: pageURL, Kind: domain.ErrRequestFailed, Err: fmt.Errorf("read body: %w", err)}
	}

	return string(body), nil
}

// FetchMany downloads every valid URL. Invalid URLs are skipped and failures
// go to ErrorHandler; neither aborts the batch.
func (f *Fetcher) FetchMany(ctx context.Context, urls []string) map[string]string {
	results := make(map[string]string, len(urls))
	for _, pageURL := range urls {
		if !ValidateURL(pageURL) {
			f.warn("skip invalid url", "url", pageURL)
			continue
		}

		body, err := f.Fetch(ctx, pageURL)
		if err != nil {
			if f.ErrorHandler != nil {
				f.ErrorHandler(pageURL, err)
			}
			continue
		}
		results[pageURL] = body
	}
	return results
}

func (f *Fetcher) logFailure(pageURL string, err error) {
	f.warn("fetch failed", "url", pageURL, "error", err)
}

func (f *Fetcher) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
