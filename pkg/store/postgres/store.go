package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lettera/lettera/pkg/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, url string) (*Store, error) {
	if url == "" {
		return nil, errors.New("url is required")
	}

	pool, err := pgxpool.New(ctx, url)

	if err != nil {
		return nil, err
	}

	return &Store{
		pool: pool,
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS articles (
			id UUID PRIMARY KEY,
			feed_name TEXT NOT NULL,
			feed_author TEXT NOT NULL,
			article_authors TEXT[] NOT NULL DEFAULT '{}',
			title TEXT NOT NULL,
			url TEXT NOT NULL UNIQUE,
			content TEXT NOT NULL,
			published_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)

	return err
}

// Upsert inserts an article keyed by its URL. It reports true when the
// article is new and false when the URL was already stored.
func (s *Store) Upsert(ctx context.Context, article *store.Article) (bool, error) {
	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}

	if article.CreatedAt.IsZero() {
		article.CreatedAt = time.Now().UTC()
	}

	var id uuid.UUID

	err := s.pool.QueryRow(ctx, `
		INSERT INTO articles (id, feed_name, feed_author, article_authors, title, url, content, published_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (url) DO NOTHING
		RETURNING id`,
		article.ID, article.FeedName, article.FeedAuthor, article.Authors,
		article.Title, article.URL, article.Content, article.PublishedAt, article.CreatedAt,
	).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

func (s *Store) ListSince(ctx context.Context, since time.Time) ([]store.Article, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, feed_name, feed_author, article_authors, title, url, content, published_at, created_at
		FROM articles
		WHERE published_at >= $1
		ORDER BY published_at`,
		since,
	)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var articles []store.Article

	for rows.Next() {
		var a store.Article

		if err := rows.Scan(&a.ID, &a.FeedName, &a.FeedAuthor, &a.Authors, &a.Title, &a.URL, &a.Content, &a.PublishedAt, &a.CreatedAt); err != nil {
			return nil, err
		}

		articles = append(articles, a)
	}

	return articles, rows.Err()
}
