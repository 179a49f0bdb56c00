package otel

import (
	"context"

	"github.com/lettera/lettera/pkg/index"

	"go.opentelemetry.io/otel"
)

type observableIndex struct {
	name string

	provider index.Provider
}

func NewIndex(name string, p index.Provider) index.Provider {
	return &observableIndex{
		name: name,

		provider: p,
	}
}

func (p *observableIndex) Index(ctx context.Context, documents ...index.Document) error {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "index "+p.name)
	defer span.End()

	if err := p.provider.Index(ctx, documents...); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

func (p *observableIndex) Query(ctx context.Context, query string, options *index.QueryOptions) ([]index.Result, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "query "+p.name)
	defer span.End()

	results, err := p.provider.Query(ctx, query, options)

	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return results, nil
}

func (p *observableIndex) Delete(ctx context.Context, ids ...string) error {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "delete "+p.name)
	defer span.End()

	if err := p.provider.Delete(ctx, ids...); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}
