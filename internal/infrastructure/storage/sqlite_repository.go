package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/ports"
)

const (
	sqliteSchema = `
CREATE TABLE IF NOT EXISTS reviews (
    id         INTEGER PRIMARY KEY,
    source_url TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS articles (
    id               TEXT PRIMARY KEY,
    title            TEXT NOT NULL,
    content          TEXT NOT NULL,
    original_url     TEXT NOT NULL UNIQUE,
    review_id        INTEGER NOT NULL REFERENCES reviews(id),
    authors          TEXT NOT NULL DEFAULT '[]',
    publication_date TEXT NOT NULL,
    telegraph_urls   TEXT NOT NULL DEFAULT '[]',
    created_at       TEXT NOT NULL,
    updated_at       TEXT NOT NULL
);`

	dateLayout = "2006-01-02"
)

// SQLiteRepository keeps the catalog in a local SQLite file.
type SQLiteRepository struct {
	db  *sql.DB
	sql sq.StatementBuilderType
}

var _ ports.ReviewRepository = (*SQLiteRepository)(nil)

// OpenSQLite opens the database file; ":memory:" is accepted for tests.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewSQLiteRepository wires a database handle.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, sql: sq.StatementBuilder}
}

// Migrate creates the tables when they are missing.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

// AllSourceURLs returns every stored issue URL.
func (r *SQLiteRepository) AllSourceURLs(ctx context.Context) (map[string]struct{}, error) {
	query, args, err := r.sql.Select("source_url").From("reviews").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
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
func (r *SQLiteRepository) ReviewByID(ctx context.Context, id int64) (*domain.Review, error) {
	query, args, err := r.sql.Select("id", "source_url", "created_at").
		From("reviews").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var (
		review    domain.Review
		createdAt string
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&review.ID, &review.SourceURL, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query review: %w", err)
	}
	if review.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("review %d created_at: %w", id, err)
	}

	review.Articles, err = r.articlesOf(ctx, id)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// UnpublishedArticles returns stored articles that have no pages yet.
func (r *SQLiteRepository) UnpublishedArticles(ctx context.Context) ([]domain.Article, error) {
	return r.queryArticles(ctx, sq.Eq{"telegraph_urls": "[]"})
}

func (r *SQLiteRepository) articlesOf(ctx context.Context, reviewID int64) ([]domain.Article, error) {
	return r.queryArticles(ctx, sq.Eq{"review_id": reviewID})
}

func (r *SQLiteRepository) queryArticles(ctx context.Context, where sq.Sqlizer) ([]domain.Article, error) {
	query, args, err := r.sql.Select("id", "title", "content", "original_url", "review_id",
		"authors", "publication_date", "telegraph_urls", "created_at", "updated_at").
		From("articles").
		Where(where).
		OrderBy("publication_date", "created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	articles := make([]domain.Article, 0)
	for rows.Next() {
		var (
			a                             domain.Article
			id, authors, published, pages string
			createdAt, updatedAt          string
		)
		if err := rows.Scan(&id, &a.Title, &a.Content, &a.OriginalURL, &a.ReviewID,
			&authors, &published, &pages, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		if err := decodeArticle(&a, id, authors, published, pages, createdAt, updatedAt); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return articles, nil
}

func decodeArticle(a *domain.Article, id, authors, published, pages, createdAt, updatedAt string) error {
	var err error
	if a.ID, err = uuid.Parse(id); err != nil {
		return fmt.Errorf("article id %q: %w", id, err)
	}
	if err = json.Unmarshal([]byte(authors), &a.Authors); err != nil {
		return fmt.Errorf("article %s authors: %w", id, err)
	}
	if err = json.Unmarshal([]byte(pages), &a.TelegraphURLs); err != nil {
		return fmt.Errorf("article %s telegraph urls: %w", id, err)
	}
	if a.PublicationDate, err = time.Parse(dateLayout, published); err != nil {
		return fmt.Errorf("article %s publication date: %w", id, err)
	}
	if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return fmt.Errorf("article %s created_at: %w", id, err)
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return fmt.Errorf("article %s updated_at: %w", id, err)
	}
	return nil
}

// UpsertReview inserts the review unless it is already known. The id is a
// rowid alias, so the conflict clause has no target.
func (r *SQLiteRepository) UpsertReview(ctx context.Context, review domain.Review) error {
	query, args, err := r.sql.Insert("reviews").
		Columns("id", "source_url", "created_at").
		Values(review.ID, review.SourceURL, review.CreatedAt.UTC().Format(time.RFC3339Nano)).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert review: %w", err)
	}
	return nil
}

// UpsertArticle stores the article, refreshing the parsed fields on conflict.
func (r *SQLiteRepository) UpsertArticle(ctx context.Context, article domain.Article) error {
	authors, err := json.Marshal(nonNil(article.Authors))
	if err != nil {
		return fmt.Errorf("encode authors: %w", err)
	}
	pages, err := json.Marshal(nonNil(article.TelegraphURLs))
	if err != nil {
		return fmt.Errorf("encode telegraph urls: %w", err)
	}

	query, args, err := r.sql.Insert("articles").
		Columns("id", "title", "content", "original_url", "review_id",
			"authors", "publication_date", "telegraph_urls", "created_at", "updated_at").
		Values(article.ID.String(), article.Title, article.Content, article.OriginalURL, article.ReviewID,
			string(authors), article.PublicationDate.Format(dateLayout), string(pages),
			article.CreatedAt.UTC().Format(time.RFC3339Nano), article.UpdatedAt.UTC().Format(time.RFC3339Nano)).
		Suffix(`ON CONFLICT (original_url) DO UPDATE
              SET title = excluded.title,
                  content = excluded.content,
                  authors = excluded.authors,
                  publication_date = excluded.publication_date,
                  updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert article: %w", err)
	}
	return nil
}

// AppendTelegraphURLs adds published page URLs to the article.
func (r *SQLiteRepository) AppendTelegraphURLs(ctx context.Context, articleID uuid.UUID, urls []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := r.sql.Select("telegraph_urls").
		From("articles").
		Where(sq.Eq{"id": articleID.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	var raw string
	err = tx.QueryRowContext(ctx, query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("article %s: %w", articleID, domain.ErrArticleNotFound)
	}
	if err != nil {
		return fmt.Errorf("query telegraph urls: %w", err)
	}

	var existing []string
	if err := json.Unmarshal([]byte(raw), &existing); err != nil {
		return fmt.Errorf("decode telegraph urls: %w", err)
	}
	encoded, err := json.Marshal(append(existing, urls...))
	if err != nil {
		return fmt.Errorf("encode telegraph urls: %w", err)
	}

	query, args, err = r.sql.Update("articles").
		Set("telegraph_urls", string(encoded)).
		Set("updated_at", time.Now().UTC().Format(time.RFC3339Nano)).
		Where(sq.Eq{"id": articleID.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append telegraph urls: %w", err)
	}

	return tx.Commit()
}
