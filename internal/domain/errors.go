package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL               = errors.New("invalid url")
	ErrTimeout                  = errors.New("request timed out")
	ErrRequestFailed            = errors.New("request failed")
	ErrDateExtractionFailed     = errors.New("publication date not found")
	ErrValidationFailed         = errors.New("content validation failed")
	ErrReviewNotFound           = errors.New("review not found")
	ErrArticleNotFound          = errors.New("article not found")
	ErrArchiveSearchUnsupported = errors.New("archive search is not implemented")
)

// FetchError describes a failed page download. Kind is one of ErrInvalidURL,
// ErrTimeout or ErrRequestFailed.
type FetchError struct {
	URL        string
	StatusCode int
	Kind       error
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: %v: status %d", e.URL, e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v: %v", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Kind)
	}
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
