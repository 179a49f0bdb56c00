package otel

import (
	"context"
	"time"

	"github.com/lettera/lettera/pkg/provider"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/semconv/v1.38.0/genaiconv"
)

type observableCompleter struct {
	model    string
	provider string

	completer provider.Completer

	tokenUsageMetric        genaiconv.ClientTokenUsage
	operationDurationMetric genaiconv.ClientOperationDuration
}

func NewCompleter(provider, model string, p provider.Completer) provider.Completer {
	meter := otel.Meter(instrumentationName)

	tokenUsageMetric, _ := genaiconv.NewClientTokenUsage(meter)
	operationDurationMetric, _ := genaiconv.NewClientOperationDuration(meter)

	return &observableCompleter{
		completer: p,

		model:    model,
		provider: provider,

		tokenUsageMetric:        tokenUsageMetric,
		operationDurationMetric: operationDurationMetric,
	}
}

func (p *observableCompleter) Complete(ctx context.Context, messages []provider.Message, options *provider.CompleteOptions) (*provider.Completion, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "chat "+p.model)
	defer span.End()

	timestamp := time.Now()

	completion, err := p.completer.Complete(ctx, messages, options)

	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	duration := time.Since(timestamp).Seconds()

	providerName := genaiconv.ProviderNameAttr(p.provider)
	providerModel := p.model

	if completion.Model != "" {
		providerModel = completion.Model
	}

	p.operationDurationMetric.Record(ctx, duration,
		genaiconv.OperationNameChat,
		providerName,
		p.operationDurationMetric.AttrRequestModel(p.model),
		p.operationDurationMetric.AttrResponseModel(providerModel),
	)

	if completion.Usage != nil {
		if completion.Usage.InputTokens > 0 {
			p.tokenUsageMetric.Record(ctx, int64(completion.Usage.InputTokens),
				genaiconv.OperationNameChat,
				providerName,
				genaiconv.TokenTypeInput,
				p.tokenUsageMetric.AttrRequestModel(p.model),
				p.tokenUsageMetric.AttrResponseModel(providerModel),
			)
		}

		if completion.Usage.OutputTokens > 0 {
			p.tokenUsageMetric.Record(ctx, int64(completion.Usage.OutputTokens),
				genaiconv.OperationNameChat,
				providerName,
				genaiconv.TokenTypeOutput,
				p.tokenUsageMetric.AttrRequestModel(p.model),
				p.tokenUsageMetric.AttrResponseModel(providerModel),
			)
		}
	}

	return completion, nil
}
