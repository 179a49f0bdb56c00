package qdrant_test

import (
	"context"
	"strings"
	"testing"

	"github.com/lettera/lettera/pkg/index"
	"github.com/lettera/lettera/pkg/index/qdrant"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type fakeEmbedder struct{}

// one axis per keyword keeps the dense ranking predictable
func (fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))

	for _, text := range texts {
		switch {
		case strings.Contains(text, "alpha"):
			embeddings = append(embeddings, []float32{1, 0, 0, 0})
		case strings.Contains(text, "beta"):
			embeddings = append(embeddings, []float32{0, 1, 0, 0})
		default:
			embeddings = append(embeddings, []float32{0, 0, 1, 0})
		}
	}

	return embeddings, nil
}

func TestProvider(t *testing.T) {
	ctx := context.Background()

	server, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		Started: true,

		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "qdrant/qdrant",
			ExposedPorts: []string{"6334/tcp"},
			WaitingFor:   wait.ForListeningPort("6334/tcp"),
		},
	})

	require.NoError(t, err)

	address, err := server.Endpoint(ctx, "")
	require.NoError(t, err)

	p, err := qdrant.New(address, "articles",
		qdrant.WithEmbedder(fakeEmbedder{}),
		qdrant.WithDimension(4),
	)

	require.NoError(t, err)

	require.NoError(t, p.Ensure(ctx))
	require.NoError(t, p.Ensure(ctx))

	a := uuid.NewString()
	b := uuid.NewString()
	c := uuid.NewString()

	err = p.Index(ctx,
		index.Document{ID: a, Content: "alpha retrieval pipelines", Metadata: map[string]string{
			index.KeyTitle:    "Deep Dives Weekly",
			index.KeyURL:      "https://a.example/1",
			index.KeyFeedName: "Weekly Dispatch",
		}},
		index.Document{ID: b, Content: "beta vector indexes", Metadata: map[string]string{
			index.KeyTitle:    "Other Issue",
			index.KeyURL:      "https://a.example/2",
			index.KeyFeedName: "Weekly Dispatch",
		}},
		index.Document{ID: c, Content: "gamma unrelated notes", Metadata: map[string]string{
			index.KeyTitle:    "Side Notes",
			index.KeyURL:      "https://b.example/1",
			index.KeyFeedName: "Other Feed",
		}},
	)

	require.NoError(t, err)

	t.Run("hybrid query", func(t *testing.T) {
		limit := 2

		results, err := p.Query(ctx, "alpha retrieval", &index.QueryOptions{Limit: &limit})

		require.NoError(t, err)
		require.NotEmpty(t, results)
		require.LessOrEqual(t, len(results), limit)
		require.Equal(t, a, results[0].Document.ID)
		require.Equal(t, "alpha retrieval pipelines", results[0].Document.Content)
		require.Equal(t, "Deep Dives Weekly", results[0].Document.Metadata[index.KeyTitle])

		seen := map[string]bool{}

		for _, r := range results {
			require.False(t, seen[r.Document.ID])
			seen[r.Document.ID] = true
		}
	})

	t.Run("feed name filter", func(t *testing.T) {
		results, err := p.Query(ctx, "alpha retrieval", &index.QueryOptions{
			Filters: map[string]string{index.KeyFeedName: "Other Feed"},
		})

		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, c, results[0].Document.ID)
	})

	t.Run("title filter", func(t *testing.T) {
		results, err := p.Query(ctx, "alpha retrieval", &index.QueryOptions{
			Filters: map[string]string{index.KeyTitle: "deep dives"},
		})

		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, a, results[0].Document.ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, p.Delete(ctx, a))

		results, err := p.Query(ctx, "alpha retrieval", nil)

		require.NoError(t, err)

		for _, r := range results {
			require.NotEqual(t, a, r.Document.ID)
		}
	})
}
