package otel

import (
	"context"
	"time"

	"github.com/lettera/lettera/pkg/provider"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/semconv/v1.38.0/genaiconv"
)

type observableEmbedder struct {
	model    string
	provider string

	embedder provider.Embedder

	tokenUsageMetric        genaiconv.ClientTokenUsage
	operationDurationMetric genaiconv.ClientOperationDuration
}

func NewEmbedder(provider, model string, p provider.Embedder) provider.Embedder {
	meter := otel.Meter(instrumentationName)

	tokenUsageMetric, _ := genaiconv.NewClientTokenUsage(meter)
	operationDurationMetric, _ := genaiconv.NewClientOperationDuration(meter)

	return &observableEmbedder{
		embedder: p,

		model:    model,
		provider: provider,

		tokenUsageMetric:        tokenUsageMetric,
		operationDurationMetric: operationDurationMetric,
	}
}

func (p *observableEmbedder) Embed(ctx context.Context, texts []string) (*provider.Embedding, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "embeddings "+p.model)
	defer span.End()

	timestamp := time.Now()

	embedding, err := p.embedder.Embed(ctx, texts)

	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	duration := time.Since(timestamp).Seconds()

	providerName := genaiconv.ProviderNameAttr(p.provider)
	providerModel := p.model

	if embedding.Model != "" {
		providerModel = embedding.Model
	}

	p.operationDurationMetric.Record(ctx, duration,
		genaiconv.OperationNameEmbeddings,
		providerName,
		p.operationDurationMetric.AttrRequestModel(p.model),
		p.operationDurationMetric.AttrResponseModel(providerModel),
	)

	if embedding.Usage != nil && embedding.Usage.InputTokens > 0 {
		p.tokenUsageMetric.Record(ctx, int64(embedding.Usage.InputTokens),
			genaiconv.OperationNameEmbeddings,
			providerName,
			genaiconv.TokenTypeInput,
			p.tokenUsageMetric.AttrRequestModel(p.model),
			p.tokenUsageMetric.AttrResponseModel(providerModel),
		)
	}

	return embedding, nil
}
