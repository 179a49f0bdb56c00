package otel

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/log/global"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
)

// setupLogger routes slog through the OTLP log exporter so request logs,
// ingest run logs and attempt logs land next to the traces.
func setupLogger(ctx context.Context, resource *sdkresource.Resource) error {
	exporter, err := newLogExporter(ctx)

	if err != nil {
		return err
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(resource),
	)

	global.SetLoggerProvider(provider)

	slog.SetDefault(otelslog.NewLogger("", otelslog.WithLoggerProvider(provider)))

	return nil
}

func newLogExporter(ctx context.Context) (sdklog.Exporter, error) {
	if useGRPC("LOGS") {
		return otlploggrpc.New(ctx)
	}

	return otlploghttp.New(ctx)
}
