package qdrant

import (
	"context"
	"errors"
	"net"
	"strconv"

	"github.com/lettera/lettera/pkg/index"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const (
	vectorDense  = "dense"
	vectorSparse = "sparse"

	// hybrid prefetch pulls more points than requested so that
	// deduplication does not starve the final result set
	fetchFactor = 4
)

var _ index.Provider = (*Provider)(nil)

type Provider struct {
	client *qdrant.Client

	collection string
	dimension  uint64

	embedder index.Embedder
}

type Option func(*Provider)

func WithEmbedder(embedder index.Embedder) Option {
	return func(p *Provider) {
		p.embedder = embedder
	}
}

func WithDimension(dimension int) Option {
	return func(p *Provider) {
		p.dimension = uint64(dimension)
	}
}

func New(address, collection string, options ...Option) (*Provider, error) {
	if collection == "" {
		return nil, errors.New("collection is required")
	}

	host, port, err := splitAddress(address)

	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})

	if err != nil {
		return nil, err
	}

	p := &Provider{
		client: client,

		collection: collection,
		dimension:  768,
	}

	for _, option := range options {
		option(p)
	}

	if p.embedder == nil {
		return nil, errors.New("embedder is required")
	}

	return p, nil
}

// Ensure creates the collection and its payload indexes if missing. The
// sparse space uses server-side IDF weighting, so clients only ship term
// frequencies.
func (p *Provider) Ensure(ctx context.Context) error {
	exists, err := p.client.CollectionExists(ctx, p.collection)

	if err != nil {
		return err
	}

	if !exists {
		err := p.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: p.collection,

			VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
				vectorDense: {
					Size:     p.dimension,
					Distance: qdrant.Distance_Cosine,
				},
			}),

			SparseVectorsConfig: qdrant.NewSparseVectorsConfig(map[string]*qdrant.SparseVectorParams{
				vectorSparse: {
					Modifier: qdrant.Modifier_Idf.Enum(),
				},
			}),
		})

		if err != nil {
			return err
		}
	}

	indexes := map[string]qdrant.FieldType{
		index.KeyTitle:      qdrant.FieldType_FieldTypeText,
		index.KeyFeedName:   qdrant.FieldType_FieldTypeKeyword,
		index.KeyFeedAuthor: qdrant.FieldType_FieldTypeKeyword,
	}

	for field, fieldType := range indexes {
		_, err := p.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: p.collection,
			FieldName:      field,
			FieldType:      fieldType.Enum(),
		})

		if err != nil {
			return err
		}
	}

	return nil
}

func (p *Provider) Index(ctx context.Context, documents ...index.Document) error {
	points := make([]*qdrant.PointStruct, 0, len(documents))

	for _, d := range documents {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}

		if len(d.Embedding) == 0 {
			embeddings, err := p.embedder.Embed(ctx, []string{d.Content})

			if err != nil {
				return err
			}

			d.Embedding = embeddings[0]
		}

		payload := map[string]any{
			"content": d.Content,
		}

		for k, v := range d.Metadata {
			payload[k] = v
		}

		indices, values := sparseVector(d.Content)

		points = append(points, &qdrant.PointStruct{
			Id: qdrant.NewID(d.ID),

			Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
				vectorDense:  qdrant.NewVectorDense(d.Embedding),
				vectorSparse: qdrant.NewVectorSparse(indices, values),
			}),

			Payload: qdrant.NewValueMap(payload),
		})
	}

	if len(points) == 0 {
		return nil
	}

	// wait so a query right after indexing sees the points
	_, err := p.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: p.collection,
		Points:         points,

		Wait: qdrant.PtrOf(true),
	})

	return err
}

func (p *Provider) Delete(ctx context.Context, ids ...string) error {
	points := make([]*qdrant.PointId, 0, len(ids))

	for _, id := range ids {
		points = append(points, qdrant.NewID(id))
	}

	_, err := p.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: p.collection,
		Points:         qdrant.NewPointsSelector(points...),

		Wait: qdrant.PtrOf(true),
	})

	return err
}

// Query runs a hybrid dense + sparse search fused with reciprocal rank
// fusion and deduplicates points by id.
func (p *Provider) Query(ctx context.Context, query string, options *index.QueryOptions) ([]index.Result, error) {
	if options == nil {
		options = &index.QueryOptions{}
	}

	limit := 10

	if options.Limit != nil && *options.Limit > 0 {
		limit = *options.Limit
	}

	embeddings, err := p.embedder.Embed(ctx, []string{query})

	if err != nil {
		return nil, err
	}

	indices, values := sparseVector(query)

	filter := convertFilters(options.Filters)
	fetch := uint64(limit * fetchFactor)

	points, err := p.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: p.collection,

		Query: qdrant.NewQueryFusion(qdrant.Fusion_RRF),

		Prefetch: []*qdrant.PrefetchQuery{
			{
				Query:  qdrant.NewQueryDense(embeddings[0]),
				Using:  qdrant.PtrOf(vectorDense),
				Filter: filter,
				Limit:  qdrant.PtrOf(fetch),
			},
			{
				Query:  qdrant.NewQuerySparse(indices, values),
				Using:  qdrant.PtrOf(vectorSparse),
				Filter: filter,
				Limit:  qdrant.PtrOf(fetch),
			},
		},

		Filter:      filter,
		Limit:       qdrant.PtrOf(fetch),
		WithPayload: qdrant.NewWithPayload(true),
	})

	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(points))
	results := make([]index.Result, 0, limit)

	for _, point := range points {
		id := point.Id.GetUuid()

		if seen[id] {
			continue
		}

		seen[id] = true

		results = append(results, index.Result{
			Score:    point.Score,
			Document: convertPoint(id, point.Payload),
		})

		if len(results) >= limit {
			break
		}
	}

	return results, nil
}

func convertPoint(id string, payload map[string]*qdrant.Value) index.Document {
	document := index.Document{
		ID: id,

		Metadata: map[string]string{},
	}

	for k, v := range payload {
		if k == "content" {
			document.Content = v.GetStringValue()
			continue
		}

		document.Metadata[k] = v.GetStringValue()
	}

	return document
}

func convertFilters(filters map[string]string) *qdrant.Filter {
	if len(filters) == 0 {
		return nil
	}

	var conditions []*qdrant.Condition

	for k, v := range filters {
		if k == index.KeyTitle {
			conditions = append(conditions, qdrant.NewMatchText(k, v))
			continue
		}

		conditions = append(conditions, qdrant.NewMatchKeyword(k, v))
	}

	return &qdrant.Filter{
		Must: conditions,
	}
}

func splitAddress(address string) (string, int, error) {
	if address == "" {
		return "localhost", 6334, nil
	}

	host, portstr, err := net.SplitHostPort(address)

	if err != nil {
		return address, 6334, nil
	}

	port, err := strconv.Atoi(portstr)

	if err != nil {
		return "", 0, err
	}

	return host, port, nil
}
