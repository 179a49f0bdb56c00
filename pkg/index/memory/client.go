package memory

import (
	"cmp"
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/lettera/lettera/pkg/index"

	"github.com/google/uuid"
)

var _ index.Provider = (*Provider)(nil)

// Provider is an in-memory vector index for tests and local development.
type Provider struct {
	embedder index.Embedder

	mu        sync.RWMutex
	documents map[string]index.Document
}

type Option func(*Provider)

func WithEmbedder(embedder index.Embedder) Option {
	return func(p *Provider) {
		p.embedder = embedder
	}
}

func New(options ...Option) (*Provider, error) {
	p := &Provider{
		documents: make(map[string]index.Document),
	}

	for _, option := range options {
		option(p)
	}

	if p.embedder == nil {
		return nil, errors.New("embedder is required")
	}

	return p, nil
}

func (p *Provider) Index(ctx context.Context, documents ...index.Document) error {
	for _, d := range documents {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}

		if len(d.Embedding) == 0 {
			embeddings, err := p.embedder.Embed(ctx, []string{d.Content})

			if err != nil {
				return err
			}

			d.Embedding = embeddings[0]
		}

		p.mu.Lock()
		p.documents[d.ID] = d
		p.mu.Unlock()
	}

	return nil
}

func (p *Provider) Delete(ctx context.Context, ids ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range ids {
		delete(p.documents, id)
	}

	return nil
}

func (p *Provider) Query(ctx context.Context, query string, options *index.QueryOptions) ([]index.Result, error) {
	if options == nil {
		options = &index.QueryOptions{}
	}

	embeddings, err := p.embedder.Embed(ctx, []string{query})

	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	results := make([]index.Result, 0)

DOCUMENTS:
	for _, d := range p.documents {
		for k, v := range options.Filters {
			val, ok := d.Metadata[k]

			if !ok {
				continue DOCUMENTS
			}

			// title filters are substring matches, everything else is exact
			if k == index.KeyTitle {
				if !strings.Contains(strings.ToLower(val), strings.ToLower(v)) {
					continue DOCUMENTS
				}

				continue
			}

			if !strings.EqualFold(v, val) {
				continue DOCUMENTS
			}
		}

		results = append(results, index.Result{
			Score:    cosineSimilarity(embeddings[0], d.Embedding),
			Document: d,
		})
	}

	slices.SortFunc(results, func(a, b index.Result) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if options.Limit != nil {
		limit := min(*options.Limit, len(results))
		results = results[:limit]
	}

	return results, nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}

	if na == 0 || nb == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
