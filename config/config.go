package config

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/lettera/lettera/pkg/chain"
	"github.com/lettera/lettera/pkg/feed"
	"github.com/lettera/lettera/pkg/index"
	"github.com/lettera/lettera/pkg/provider"
	"github.com/lettera/lettera/pkg/store"

	"gopkg.in/yaml.v3"
)

type Ensurer interface {
	Ensure(ctx context.Context) error
}

type Config struct {
	Address string

	Embedder provider.Embedder
	Chain    *chain.Completer

	Index index.Provider
	Store store.Store

	// Ensurer is set when the index backend needs one-time schema setup,
	// like collection creation.
	Ensurer Ensurer

	Sources []feed.Source

	IngestConcurrency int
	IngestRate        int
	ChunkSize         int
	ChunkOverlap      int

	PromptBudget int
}

func Parse(path string) (*Config, error) {
	file, err := parseFile(path)

	if err != nil {
		return nil, err
	}

	c := &Config{
		Address: ":8080",
	}

	if file.Address != "" {
		c.Address = file.Address
	}

	if err := c.registerEmbedder(file); err != nil {
		return nil, err
	}

	if err := c.registerChain(file); err != nil {
		return nil, err
	}

	if err := c.registerIndex(file); err != nil {
		return nil, err
	}

	if err := c.registerStore(file); err != nil {
		return nil, err
	}

	if err := c.registerIngest(file); err != nil {
		return nil, err
	}

	if file.Search != nil {
		c.PromptBudget = file.Search.PromptBudget
	}

	return c, nil
}

type configFile struct {
	Address string `yaml:"address"`

	Embedder *providerConfig `yaml:"embedder"`

	Providers []providerConfig `yaml:"providers"`

	Index *indexConfig `yaml:"index"`
	Store *storeConfig `yaml:"store"`

	Ingest *ingestConfig `yaml:"ingest"`
	Search *searchConfig `yaml:"search"`
}

type searchConfig struct {
	PromptBudget int `yaml:"prompt_budget"`
}

type storeConfig struct {
	URL string `yaml:"url"`
}

type ingestConfig struct {
	Concurrency int `yaml:"concurrency"`
	Rate        int `yaml:"rate"`

	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	Feeds []feedConfig `yaml:"feeds"`
}

type feedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

func parseFile(path string) (*configFile, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	data = []byte(os.ExpandEnv(string(data)))

	var config configFile

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func parseDuration(val string) (time.Duration, error) {
	if val == "" {
		return 0, nil
	}

	return time.ParseDuration(val)
}
