package memory

import (
	"context"
	"testing"

	"github.com/lettera/lettera/pkg/index"

	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct{}

// embeddings separate documents along one axis per keyword so nearest
// neighbor order is predictable
func (fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))

	for _, text := range texts {
		switch text {
		case "alpha":
			embeddings = append(embeddings, []float32{1, 0, 0})
		case "beta":
			embeddings = append(embeddings, []float32{0, 1, 0})
		default:
			embeddings = append(embeddings, []float32{0, 0, 1})
		}
	}

	return embeddings, nil
}

func TestNewRequiresEmbedder(t *testing.T) {
	_, err := New()

	require.Error(t, err)
}

func TestQueryRanksBySimilarity(t *testing.T) {
	provider, err := New(WithEmbedder(fakeEmbedder{}))
	require.NoError(t, err)

	err = provider.Index(t.Context(),
		index.Document{ID: "a", Content: "alpha"},
		index.Document{ID: "b", Content: "beta"},
	)
	require.NoError(t, err)

	limit := 1

	results, err := provider.Query(t.Context(), "alpha", &index.QueryOptions{Limit: &limit})

	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "a", results[0].Document.ID)
}

func TestQueryFilters(t *testing.T) {
	provider, err := New(WithEmbedder(fakeEmbedder{}))
	require.NoError(t, err)

	err = provider.Index(t.Context(),
		index.Document{ID: "a", Content: "alpha", Metadata: map[string]string{
			index.KeyTitle:    "Deep Dives Weekly",
			index.KeyFeedName: "Weekly Dispatch",
		}},
		index.Document{ID: "b", Content: "alpha", Metadata: map[string]string{
			index.KeyTitle:    "Other",
			index.KeyFeedName: "Other Feed",
		}},
	)
	require.NoError(t, err)

	t.Run("title substring", func(t *testing.T) {
		results, err := provider.Query(t.Context(), "alpha", &index.QueryOptions{
			Filters: map[string]string{index.KeyTitle: "deep dives"},
		})

		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, "a", results[0].Document.ID)
	})

	t.Run("feed name exact", func(t *testing.T) {
		results, err := provider.Query(t.Context(), "alpha", &index.QueryOptions{
			Filters: map[string]string{index.KeyFeedName: "weekly dispatch"},
		})

		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, "a", results[0].Document.ID)
	})

	t.Run("no match", func(t *testing.T) {
		results, err := provider.Query(t.Context(), "alpha", &index.QueryOptions{
			Filters: map[string]string{index.KeyFeedName: "unknown"},
		})

		require.NoError(t, err)
		require.Empty(t, results)
	})
}

func TestDelete(t *testing.T) {
	provider, err := New(WithEmbedder(fakeEmbedder{}))
	require.NoError(t, err)

	require.NoError(t, provider.Index(t.Context(), index.Document{ID: "a", Content: "alpha"}))
	require.NoError(t, provider.Delete(t.Context(), "a"))

	results, err := provider.Query(t.Context(), "alpha", nil)

	require.NoError(t, err)
	require.Empty(t, results)
}
