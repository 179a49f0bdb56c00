package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lettera/lettera/config"
	"github.com/lettera/lettera/pkg/feed"
	"github.com/lettera/lettera/pkg/ingest"
	"github.com/lettera/lettera/pkg/otel"
	"github.com/lettera/lettera/pkg/text"

	"golang.org/x/time/rate"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := flag.String("config", "config.yaml", "configuration file")
	reindex := flag.String("reindex-since", "", "reindex stored articles published since this date (YYYY-MM-DD) instead of fetching feeds")
	flag.Parse()

	if err := otel.Setup(ctx, "lettera-ingest", version); err != nil {
		slog.Error("telemetry setup failed", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Parse(*path)

	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if cfg.Store == nil {
		slog.Error("ingest requires a store")
		os.Exit(1)
	}

	if cfg.Ensurer != nil {
		if err := cfg.Ensurer.Ensure(ctx); err != nil {
			slog.Error("index setup failed", "error", err)
			os.Exit(1)
		}
	}

	var options []ingest.Option

	if cfg.IngestConcurrency > 0 {
		options = append(options, ingest.WithConcurrency(cfg.IngestConcurrency))
	}

	if cfg.IngestRate > 0 {
		options = append(options, ingest.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.IngestRate), cfg.IngestRate)))
	}

	if cfg.ChunkSize > 0 {
		splitter := text.NewSplitter()
		splitter.ChunkSize = cfg.ChunkSize

		if cfg.ChunkOverlap > 0 {
			splitter.ChunkOverlap = cfg.ChunkOverlap
		}

		options = append(options, ingest.WithSplitter(splitter))
	}

	service := ingest.New(feed.New(), cfg.Store, cfg.Index, cfg.Sources, options...)

	if *reindex != "" {
		since, err := time.Parse("2006-01-02", *reindex)

		if err != nil {
			slog.Error("invalid reindex date", "error", err)
			os.Exit(1)
		}

		indexed, err := service.Reindex(ctx, since)

		if err != nil {
			slog.Error("reindex failed", "error", err)
			os.Exit(1)
		}

		slog.Info("reindex finished", "chunks", indexed)
		return
	}

	stats, err := service.Run(ctx)

	if err != nil {
		slog.Error("ingest failed", "error", err)
		os.Exit(1)
	}

	slog.Info("ingest finished", "fetched", stats.Fetched, "failed", stats.Failed, "new", stats.New, "chunks", stats.Indexed)
}
