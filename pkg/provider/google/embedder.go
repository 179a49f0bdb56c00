package google

import (
	"context"

	"github.com/lettera/lettera/pkg/provider"

	"google.golang.org/genai"
)

var _ provider.Embedder = (*Embedder)(nil)

type Embedder struct {
	*Config
}

func NewEmbedder(model string, options ...Option) (*Embedder, error) {
	cfg := &Config{
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	return &Embedder{
		Config: cfg,
	}, nil
}

func (e *Embedder) Embed(ctx context.Context, texts []string) (*provider.Embedding, error) {
	client, err := e.newClient(ctx)

	if err != nil {
		return nil, err
	}

	var contents []*genai.Content

	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	resp, err := client.Models.EmbedContent(ctx, e.model, contents, nil)

	if err != nil {
		return nil, convertError(err)
	}

	result := &provider.Embedding{
		Model: e.model,
	}

	for _, embedding := range resp.Embeddings {
		result.Embeddings = append(result.Embeddings, embedding.Values)
	}

	return result, nil
}
