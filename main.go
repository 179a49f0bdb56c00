package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lettera/lettera/config"
	"github.com/lettera/lettera/pkg/answer"
	"github.com/lettera/lettera/pkg/otel"
	"github.com/lettera/lettera/server"
	"github.com/lettera/lettera/server/api"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := flag.String("config", "config.yaml", "configuration file")
	flag.Parse()

	if err := otel.Setup(ctx, "lettera", version); err != nil {
		slog.Error("telemetry setup failed", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Parse(*path)

	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var options []answer.Option

	if cfg.PromptBudget > 0 {
		options = append(options, answer.WithPromptBudget(cfg.PromptBudget))
	}

	service := answer.New(cfg.Index, cfg.Chain, options...)

	handler, err := api.New(service)

	if err != nil {
		slog.Error("handler setup failed", "error", err)
		os.Exit(1)
	}

	slog.Info("starting server", "address", cfg.Address)

	if err := server.New(cfg.Address, handler).ListenAndServe(ctx); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
