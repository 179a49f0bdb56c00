package feed

import (
	"context"
	"net/http"
	"time"

	"github.com/lettera/lettera/pkg/store"

	"github.com/mmcdole/gofeed"
)

// Source is one subscribed newsletter feed.
type Source struct {
	Name string
	URL  string
}

type Fetcher struct {
	parser *gofeed.Parser
}

type Option func(*Fetcher)

func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.parser.Client = client
	}
}

func New(options ...Option) *Fetcher {
	f := &Fetcher{
		parser: gofeed.NewParser(),
	}

	for _, option := range options {
		option(f)
	}

	return f
}

// Fetch downloads a feed and maps its items to articles. Items without a
// link are skipped since the link is the deduplication key.
func (f *Fetcher) Fetch(ctx context.Context, source Source) ([]store.Article, error) {
	parsed, err := f.parser.ParseURLWithContext(source.URL, ctx)

	if err != nil {
		return nil, err
	}

	name := source.Name

	if name == "" {
		name = parsed.Title
	}

	var author string

	if len(parsed.Authors) > 0 {
		author = parsed.Authors[0].Name
	}

	articles := make([]store.Article, 0, len(parsed.Items))

	for _, item := range parsed.Items {
		if item.Link == "" {
			continue
		}

		articles = append(articles, store.Article{
			FeedName:   name,
			FeedAuthor: author,

			Authors: itemAuthors(item),

			Title: item.Title,
			URL:   item.Link,

			Content: itemContent(item),

			PublishedAt: itemPublished(item),
		})
	}

	return articles, nil
}

func itemAuthors(item *gofeed.Item) []string {
	authors := make([]string, 0, len(item.Authors))

	for _, a := range item.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	return authors
}

func itemContent(item *gofeed.Item) string {
	if item.Content != "" {
		return item.Content
	}

	return item.Description
}

func itemPublished(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}

	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}

	return time.Now().UTC()
}
