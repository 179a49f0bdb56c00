package config

import (
	"github.com/lettera/lettera/pkg/feed"
)

func (cfg *Config) registerIngest(file *configFile) error {
	if file.Ingest == nil {
		return nil
	}

	cfg.IngestConcurrency = file.Ingest.Concurrency
	cfg.IngestRate = file.Ingest.Rate
	cfg.ChunkSize = file.Ingest.ChunkSize
	cfg.ChunkOverlap = file.Ingest.ChunkOverlap

	for _, f := range file.Ingest.Feeds {
		cfg.Sources = append(cfg.Sources, feed.Source{
			Name: f.Name,
			URL:  f.URL,
		})
	}

	return nil
}
