package index

import (
	"context"
)

// Payload keys shared by every index implementation.
const (
	KeyTitle       = "title"
	KeyURL         = "url"
	KeyFeedName    = "feed_name"
	KeyFeedAuthor  = "feed_author"
	KeyAuthors     = "article_authors"
	KeyPublishedAt = "published_at"
)

type Provider interface {
	Index(ctx context.Context, documents ...Document) error
	Query(ctx context.Context, query string, options *QueryOptions) ([]Result, error)
	Delete(ctx context.Context, ids ...string) error
}

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Document struct {
	ID string

	Content   string
	Embedding []float32

	Metadata map[string]string
}

type Result struct {
	Score float32

	Document
}

type QueryOptions struct {
	Limit *int

	Filters map[string]string
}
