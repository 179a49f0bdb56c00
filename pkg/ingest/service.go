package ingest

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lettera/lettera/pkg/feed"
	"github.com/lettera/lettera/pkg/index"
	"github.com/lettera/lettera/pkg/store"
	"github.com/lettera/lettera/pkg/text"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type Fetcher interface {
	Fetch(ctx context.Context, source feed.Source) ([]store.Article, error)
}

type Stats struct {
	Fetched int64
	Failed  int64
	New     int64
	Indexed int64
}

type Service struct {
	fetcher Fetcher
	store   store.Store
	index   index.Provider

	splitter text.Splitter
	limiter  *rate.Limiter

	sources     []feed.Source
	concurrency int
}

type Option func(*Service)

func WithConcurrency(concurrency int) Option {
	return func(s *Service) {
		s.concurrency = concurrency
	}
}

func WithRateLimit(limiter *rate.Limiter) Option {
	return func(s *Service) {
		s.limiter = limiter
	}
}

func WithSplitter(splitter text.Splitter) Option {
	return func(s *Service) {
		s.splitter = splitter
	}
}

func New(fetcher Fetcher, store store.Store, index index.Provider, sources []feed.Source, options ...Option) *Service {
	s := &Service{
		fetcher: fetcher,
		store:   store,
		index:   index,

		splitter: text.NewSplitter(),
		limiter:  rate.NewLimiter(rate.Inf, 1),

		sources:     sources,
		concurrency: 4,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// Run fetches every source, stores articles that were not seen before and
// indexes them. Failing sources are logged and skipped so one broken feed
// does not block the rest.
func (s *Service) Run(ctx context.Context) (*Stats, error) {
	var stats Stats

	var mu sync.Mutex
	var fresh []store.Article

	var fetched, failed, created atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, source := range s.sources {
		g.Go(func() error {
			articles, err := s.fetcher.Fetch(ctx, source)

			if err != nil {
				slog.ErrorContext(ctx, "feed fetch failed", "source", source.URL, "error", err)

				failed.Add(1)
				return nil
			}

			fetched.Add(int64(len(articles)))

			for _, article := range articles {
				isNew, err := s.store.Upsert(ctx, &article)

				if err != nil {
					return err
				}

				if !isNew {
					continue
				}

				created.Add(1)

				mu.Lock()
				fresh = append(fresh, article)
				mu.Unlock()
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	indexed, err := s.indexArticles(ctx, fresh)

	if err != nil {
		return nil, err
	}

	stats.Fetched = fetched.Load()
	stats.Failed = failed.Load()
	stats.New = created.Load()
	stats.Indexed = indexed

	return &stats, nil
}

// Reindex replays stored articles into the vector index, for rebuilds
// after a collection reset or a dimension change.
func (s *Service) Reindex(ctx context.Context, since time.Time) (int64, error) {
	articles, err := s.store.ListSince(ctx, since)

	if err != nil {
		return 0, err
	}

	return s.indexArticles(ctx, articles)
}

func (s *Service) indexArticles(ctx context.Context, articles []store.Article) (int64, error) {
	var indexed int64

	for _, article := range articles {
		documents := s.convertArticle(article)

		if len(documents) == 0 {
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return indexed, err
		}

		if err := s.index.Index(ctx, documents...); err != nil {
			return indexed, err
		}

		indexed += int64(len(documents))
	}

	return indexed, nil
}

func (s *Service) convertArticle(article store.Article) []index.Document {
	chunks := s.splitter.Split(article.Content)

	documents := make([]index.Document, 0, len(chunks))

	for i, chunk := range chunks {
		metadata := map[string]string{
			index.KeyTitle:       article.Title,
			index.KeyURL:         article.URL,
			index.KeyFeedName:    article.FeedName,
			index.KeyFeedAuthor:  article.FeedAuthor,
			index.KeyPublishedAt: article.PublishedAt.UTC().Format(time.RFC3339),
		}

		if len(article.Authors) > 0 {
			metadata[index.KeyAuthors] = strings.Join(article.Authors, ", ")
		}

		documents = append(documents, index.Document{
			ID:       chunkID(article.ID, i),
			Content:  chunk,
			Metadata: metadata,
		})
	}

	return documents
}

// chunkID derives a stable id from the article and chunk position so a
// reindex overwrites points instead of duplicating them.
func chunkID(article uuid.UUID, chunk int) string {
	return uuid.NewSHA1(article, []byte(strconv.Itoa(chunk))).String()
}
