package config

import (
	"errors"
	"strings"

	"github.com/lettera/lettera/pkg/chain"
	"github.com/lettera/lettera/pkg/otel"
	"github.com/lettera/lettera/pkg/provider"
	"github.com/lettera/lettera/pkg/provider/anthropic"
	"github.com/lettera/lettera/pkg/provider/google"
	"github.com/lettera/lettera/pkg/provider/openai"
)

type providerConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	URL   string `yaml:"url"`
	Token string `yaml:"token"`

	Model  string   `yaml:"model"`
	Models []string `yaml:"models"`

	Timeout string `yaml:"timeout"`
}

func (cfg *Config) registerEmbedder(file *configFile) error {
	if file.Embedder == nil {
		return nil
	}

	embedder, err := createEmbedder(*file.Embedder)

	if err != nil {
		return err
	}

	cfg.Embedder = otel.NewEmbedder(file.Embedder.Type, file.Embedder.Model, embedder)

	return nil
}

func (cfg *Config) registerChain(file *configFile) error {
	if len(file.Providers) == 0 {
		return errors.New("at least one provider is required")
	}

	providers := make([]chain.Provider, 0, len(file.Providers))

	for _, p := range file.Providers {
		completer, err := createCompleter(p)

		if err != nil {
			return err
		}

		timeout, err := parseDuration(p.Timeout)

		if err != nil {
			return err
		}

		name := p.Name

		if name == "" {
			name = p.Type
		}

		providers = append(providers, chain.Provider{
			Name:      name,
			Timeout:   timeout,
			Completer: otel.NewCompleter(p.Type, p.Model, completer),
		})
	}

	c, err := chain.New(providers...)

	if err != nil {
		return err
	}

	cfg.Chain = c

	return nil
}

func createCompleter(cfg providerConfig) (provider.Completer, error) {
	switch strings.ToLower(cfg.Type) {
	case "openai", "openrouter", "huggingface":
		return openaiCompleter(cfg)

	case "anthropic":
		return anthropicCompleter(cfg)

	case "google", "gemini":
		return googleCompleter(cfg)

	default:
		return nil, errors.New("invalid provider type: " + cfg.Type)
	}
}

func createEmbedder(cfg providerConfig) (provider.Embedder, error) {
	switch strings.ToLower(cfg.Type) {
	case "openai", "openrouter", "huggingface":
		return openaiEmbedder(cfg)

	case "google", "gemini":
		return googleEmbedder(cfg)

	default:
		return nil, errors.New("invalid embedder type: " + cfg.Type)
	}
}

func openaiCompleter(cfg providerConfig) (provider.Completer, error) {
	var options []openai.Option

	if cfg.Token != "" {
		options = append(options, openai.WithToken(cfg.Token))
	}

	if len(cfg.Models) > 0 {
		options = append(options, openai.WithCandidates(cfg.Models...))
	}

	return openai.NewCompleter(cfg.URL, cfg.Model, options...)
}

func openaiEmbedder(cfg providerConfig) (provider.Embedder, error) {
	var options []openai.Option

	if cfg.Token != "" {
		options = append(options, openai.WithToken(cfg.Token))
	}

	return openai.NewEmbedder(cfg.URL, cfg.Model, options...)
}

func anthropicCompleter(cfg providerConfig) (provider.Completer, error) {
	var options []anthropic.Option

	if cfg.Token != "" {
		options = append(options, anthropic.WithToken(cfg.Token))
	}

	return anthropic.NewCompleter(cfg.URL, cfg.Model, options...)
}

func googleCompleter(cfg providerConfig) (provider.Completer, error) {
	var options []google.Option

	if cfg.Token != "" {
		options = append(options, google.WithToken(cfg.Token))
	}

	return google.NewCompleter(cfg.Model, options...)
}

func googleEmbedder(cfg providerConfig) (provider.Embedder, error) {
	var options []google.Option

	if cfg.Token != "" {
		options = append(options, google.WithToken(cfg.Token))
	}

	return google.NewEmbedder(cfg.Model, options...)
}
