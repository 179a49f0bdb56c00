package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Article is the relational record for one newsletter issue. Content is
// kept alongside the metadata so the vector index can be rebuilt without
// refetching feeds.
type Article struct {
	ID uuid.UUID

	FeedName   string
	FeedAuthor string

	Authors []string

	Title string
	URL   string

	Content string

	PublishedAt time.Time
	CreatedAt   time.Time
}

type Store interface {
	Upsert(ctx context.Context, article *Article) (bool, error)
	ListSince(ctx context.Context, since time.Time) ([]Article, error)
}
