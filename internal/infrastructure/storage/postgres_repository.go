package storage

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/ports"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS reviews (
    id         BIGINT PRIMARY KEY,
    source_url TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS articles (
    id               UUID PRIMARY KEY,
    title            TEXT NOT NULL,
    content          TEXT NOT NULL,
    original_url     TEXT NOT NULL UNIQUE,
    review_id        BIGINT NOT NULL REFERENCES reviews(id),
    authors          TEXT[] NOT NULL DEFAULT '{}',
    publication_date DATE NOT NULL,
    telegraph_urls   TEXT[] NOT NULL DEFAULT '{}',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

var articleColumns = []string{
	"id::text", "title", "content", "original_url", "review_id",
	"authors", "publication_date", "telegraph_urls", "created_at", "updated_at",
}

// pgxQuerier is the part of *pgxpool.Pool the repository needs.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository persists reviews and articles into Postgres.
type PostgresRepository struct {
	db  pgxQuerier
	sql sq.StatementBuilderType
}

var _ ports.ReviewRepository = (*PostgresRepository)(nil)

// OpenPostgres connects a pool and verifies it with a ping.
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// NewPostgresRepository wires a pool (or a compatible mock).
func NewPostgresRepository(db pgxQuerier) *PostgresRepository {
	return &PostgresRepository{
		db:  db,
		sql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Migrate creates the tables when they are missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

// AllSourceURLs returns every stored issue URL.
func (r *PostgresRepository) AllSourceURLs(ctx context.Context) (map[string]struct{}, error) {
	query, args, err := r.sql.Select("source_url").From("reviews").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query source urls: %w", err)
	}
	defer rows.Close()

	result := make(map[string]struct{})
	for rows.Next() {
		var sourceURL string
		if err := rows.Scan(&sourceURL); err != nil {
			return nil, fmt.Errorf("scan source url: %w", err)
		}
		result[sourceURL] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// ReviewByID loads a review with its articles.
func (r *PostgresRepository) ReviewByID(ctx context.Context, id int64) (*domain.Review, error) {
	query, args, err := r.sql.Select("id", "source_url", "created_at").
		From("reviews").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var review domain.Review
	err = r.db.QueryRow(ctx, query, args...).Scan(&review.ID, &review.SourceURL, &review.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query review: %w", err)
	}

	review.Articles, err = r.articlesOf(ctx, id)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// UnpublishedArticles returns stored articles that have no pages yet.
func (r *PostgresRepository) UnpublishedArticles(ctx context.Context) ([]domain.Article, error) {
	return r.queryArticles(ctx, sq.Expr("cardinality(telegraph_urls) = 0"))
}

func (r *PostgresRepository) articlesOf(ctx context.Context, reviewID int64) ([]domain.Article, error) {
	return r.queryArticles(ctx, sq.Eq{"review_id": reviewID})
}

func (r *PostgresRepository) queryArticles(ctx context.Context, where sq.Sqlizer) ([]domain.Article, error) {
	query, args, err := r.sql.Select(articleColumns...).
		From("articles").
		Where(where).
		OrderBy("publication_date", "created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	articles := make([]domain.Article, 0)
	for rows.Next() {
		var (
			a  domain.Article
			id string
		)
		if err := rows.Scan(&id, &a.Title, &a.Content, &a.OriginalURL, &a.ReviewID,
			&a.Authors, &a.PublicationDate, &a.TelegraphURLs, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("article id %q: %w", id, err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return articles, nil
}

// UpsertReview inserts the review unless its source URL is already known.
func (r *PostgresRepository) UpsertReview(ctx context.Context, review domain.Review) error {
	query, args, err := r.sql.Insert("reviews").
		Columns("id", "source_url", "created_at").
		Values(review.ID, review.SourceURL, review.CreatedAt).
		Suffix("ON CONFLICT (source_url) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert review: %w", err)
	}
	return nil
}

// UpsertArticle stores the article, refreshing the parsed fields on conflict.
// Published page URLs are never overwritten.
func (r *PostgresRepository) UpsertArticle(ctx context.Context, article domain.Article) error {
	query, args, err := r.sql.Insert("articles").
		Columns("id", "title", "content", "original_url", "review_id",
			"authors", "publication_date", "telegraph_urls", "created_at", "updated_at").
		Values(article.ID.String(), article.Title, article.Content, article.OriginalURL, article.ReviewID,
			nonNil(article.Authors), article.PublicationDate, nonNil(article.TelegraphURLs), article.CreatedAt, article.UpdatedAt).
		Suffix(`ON CONFLICT (original_url) DO UPDATE
              SET title = EXCLUDED.title,
                  content = EXCLUDED.content,
                  authors = EXCLUDED.authors,
                  publication_date = EXCLUDED.publication_date,
                  updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert article: %w", err)
	}
	return nil
}

// AppendTelegraphURLs adds published page URLs to the article.
func (r *PostgresRepository) AppendTelegraphURLs(ctx context.Context, articleID uuid.UUID, urls []string) error {
	query, args, err := r.sql.Update("articles").
		Set("telegraph_urls", sq.Expr("telegraph_urls || ?", urls)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": articleID.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("append telegraph urls: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %s: %w", articleID, domain.ErrArticleNotFound)
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
