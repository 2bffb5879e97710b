package scanner

import (
	"context"
	"fmt"
	"log/slog"

	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/ports"
)

// Criteria selects a persisted review. Month is reserved for archive search.
type Criteria struct {
	ID    *int64
	Month string
}

// ArchiveScanner compares the archive listing with the persisted catalog.
type ArchiveScanner struct {
	archive    ports.ArchiveLister
	repository ports.ReviewRepository
	logger     *slog.Logger
}

// NewArchiveScanner wires the archive lister and the catalog.
func NewArchiveScanner(archive ports.ArchiveLister, repo ports.ReviewRepository, log *slog.Logger) *ArchiveScanner {
	return &ArchiveScanner{
		archive:    archive,
		repository: repo,
		logger:     log,
	}
}

// ScanForNewReviews partitions the archive URLs into new and already stored
// issues. The catalog is read with exactly one bulk query.
func (s *ArchiveScanner) ScanForNewReviews(ctx context.Context) (domain.ScanResult, error) {
	archiveURLs, err := s.archive.ListingURLs(ctx)
	if err != nil {
		return domain.ScanResult{}, fmt.Errorf("list archive: %w", err)
	}

	known, err := s.repository.AllSourceURLs(ctx)
	if err != nil {
		return domain.ScanResult{}, fmt.Errorf("load known reviews: %w", err)
	}

	existing := intersect(archiveURLs, known)
	fresh := difference(archiveURLs, existing)

	s.info("archive scanned", "total", len(archiveURLs), "new", len(fresh), "existing", len(existing))

	return domain.ScanResult{
		NewReviews:      fresh,
		ExistingReviews: existing,
		TotalCount:      len(archiveURLs),
	}, nil
}

// NewReviews returns only the issue URLs missing from the catalog.
func (s *ArchiveScanner) NewReviews(ctx context.Context) (map[string]struct{}, error) {
	result, err := s.ScanForNewReviews(ctx)
	if err != nil {
		return nil, err
	}
	return result.NewReviews, nil
}

// ReviewByCriteria looks a review up by id. Searching the live archive by
// month is not implemented and reported as ErrArchiveSearchUnsupported.
func (s *ArchiveScanner) ReviewByCriteria(ctx context.Context, c Criteria) (*domain.Review, error) {
	if c.ID == nil {
		return nil, fmt.Errorf("month %q: %w", c.Month, domain.ErrArchiveSearchUnsupported)
	}

	review, err := s.repository.ReviewByID(ctx, *c.ID)
	if err != nil {
		return nil, fmt.Errorf("review %d: %w", *c.ID, err)
	}
	if review == nil {
		return nil, fmt.Errorf("review %d: %w", *c.ID, domain.ErrReviewNotFound)
	}
	return review, nil
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for key := range a {
		if _, ok := b[key]; ok {
			out[key] = struct{}{}
		}
	}
	return out
}

func difference(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a))
	for key := range a {
		if _, ok := b[key]; !ok {
			out[key] = struct{}{}
		}
	}
	return out
}

func (s *ArchiveScanner) info(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}
