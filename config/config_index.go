package config

import (
	"context"
	"errors"
	"strings"

	"github.com/lettera/lettera/pkg/index"
	"github.com/lettera/lettera/pkg/index/memory"
	"github.com/lettera/lettera/pkg/index/qdrant"
	"github.com/lettera/lettera/pkg/otel"
	"github.com/lettera/lettera/pkg/provider"
)

type indexConfig struct {
	Type string `yaml:"type"`

	Address    string `yaml:"address"`
	Collection string `yaml:"collection"`

	Dimension int `yaml:"dimension"`
}

func (cfg *Config) registerIndex(file *configFile) error {
	if file.Index == nil {
		return errors.New("index is required")
	}

	if cfg.Embedder == nil {
		return errors.New("index requires an embedder")
	}

	p, err := createIndex(*file.Index, embedderAdapter{cfg.Embedder})

	if err != nil {
		return err
	}

	if e, ok := p.(Ensurer); ok {
		cfg.Ensurer = e
	}

	cfg.Index = otel.NewIndex(file.Index.Type, p)

	return nil
}

func createIndex(cfg indexConfig, embedder index.Embedder) (index.Provider, error) {
	switch strings.ToLower(cfg.Type) {
	case "qdrant":
		var options []qdrant.Option

		options = append(options, qdrant.WithEmbedder(embedder))

		if cfg.Dimension > 0 {
			options = append(options, qdrant.WithDimension(cfg.Dimension))
		}

		return qdrant.New(cfg.Address, cfg.Collection, options...)

	case "memory":
		return memory.New(memory.WithEmbedder(embedder))

	default:
		return nil, errors.New("invalid index type: " + cfg.Type)
	}
}

// embedderAdapter narrows a provider embedder to the raw-vector shape the
// indexes work with.
type embedderAdapter struct {
	embedder provider.Embedder
}

func (a embedderAdapter) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	result, err := a.embedder.Embed(ctx, texts)

	if err != nil {
		return nil, err
	}

	return result.Embeddings, nil
}
