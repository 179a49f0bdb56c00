package openai

import (
	"context"

	"github.com/lettera/lettera/pkg/provider"

	"github.com/openai/openai-go/v3"
)

var _ provider.Embedder = (*Embedder)(nil)

type Embedder struct {
	*Config
	embeddings openai.EmbeddingService
}

func NewEmbedder(url, model string, options ...Option) (*Embedder, error) {
	cfg := &Config{
		url:   url,
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	return &Embedder{
		Config:     cfg,
		embeddings: openai.NewEmbeddingService(cfg.Options()...),
	}, nil
}

func (e *Embedder) Embed(ctx context.Context, texts []string) (*provider.Embedding, error) {
	req := openai.EmbeddingNewParams{
		Model: e.model,

		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	}

	resp, err := e.embeddings.New(ctx, req)

	if err != nil {
		return nil, convertError(err)
	}

	result := &provider.Embedding{
		Model: resp.Model,
	}

	for _, d := range resp.Data {
		embedding := make([]float32, len(d.Embedding))

		for i, v := range d.Embedding {
			embedding[i] = float32(v)
		}

		result.Embeddings = append(result.Embeddings, embedding)
	}

	if resp.Usage.TotalTokens > 0 {
		result.Usage = &provider.Usage{
			InputTokens: int(resp.Usage.PromptTokens),
		}
	}

	return result, nil
}
