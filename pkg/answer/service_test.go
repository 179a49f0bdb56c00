package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/lettera/lettera/pkg/chain"
	"github.com/lettera/lettera/pkg/index"
	"github.com/lettera/lettera/pkg/provider"

	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	results []index.Result
	err     error

	lastOptions *index.QueryOptions
}

func (i *fakeIndex) Index(ctx context.Context, documents ...index.Document) error {
	return nil
}

func (i *fakeIndex) Query(ctx context.Context, query string, options *index.QueryOptions) ([]index.Result, error) {
	i.lastOptions = options

	if i.err != nil {
		return nil, i.err
	}

	return i.results, nil
}

func (i *fakeIndex) Delete(ctx context.Context, ids ...string) error {
	return nil
}

type fakeCompleter struct {
	answer string
}

func (c *fakeCompleter) Complete(ctx context.Context, messages []provider.Message, options *provider.CompleteOptions) (*provider.Completion, error) {
	message := provider.AssistantMessage(c.answer)

	return &provider.Completion{
		Model:   "test-model",
		Message: &message,
	}, nil
}

func testChain(t *testing.T) *chain.Completer {
	t.Helper()

	c, err := chain.New(chain.Provider{
		Name:      "primary",
		Completer: &fakeCompleter{answer: "grounded answer"},
	})

	require.NoError(t, err)

	return c
}

func testResult(title, url, content string) index.Result {
	return index.Result{
		Score: 0.9,
		Document: index.Document{
			ID:      url,
			Content: content,
			Metadata: map[string]string{
				index.KeyTitle:    title,
				index.KeyURL:      url,
				index.KeyFeedName: "Weekly Dispatch",
			},
		},
	}
}

func TestValidate(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		_, _, _, err := validate(Request{Query: "   "})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("top_k out of range", func(t *testing.T) {
		topK := 0
		_, _, _, err := validate(Request{Query: "q", TopK: &topK})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)

		topK = 51
		_, _, _, err = validate(Request{Query: "q", TopK: &topK})
		require.ErrorAs(t, err, &verr)
	})

	t.Run("defaults", func(t *testing.T) {
		query, topK, filters, err := validate(Request{Query: " q "})

		require.NoError(t, err)
		require.Equal(t, "q", query)
		require.Equal(t, defaultTopK, topK)
		require.Nil(t, filters)
	})

	t.Run("unknown filter", func(t *testing.T) {
		_, _, _, err := validate(Request{
			Query:   "q",
			Filters: map[string]string{"language": "en"},
		})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("title filter lowered", func(t *testing.T) {
		_, _, filters, err := validate(Request{
			Query: "q",
			Filters: map[string]string{
				"title":     " Deep Dives ",
				"feed_name": "Weekly Dispatch",
			},
		})

		require.NoError(t, err)
		require.Equal(t, "deep dives", filters[index.KeyTitle])
		require.Equal(t, "Weekly Dispatch", filters[index.KeyFeedName])
	})

	t.Run("empty values dropped", func(t *testing.T) {
		_, _, filters, err := validate(Request{
			Query:   "q",
			Filters: map[string]string{"feed_name": "  "},
		})

		require.NoError(t, err)
		require.Nil(t, filters)
	})
}

func TestSearch(t *testing.T) {
	idx := &fakeIndex{
		results: []index.Result{
			testResult("Issue 1", "https://a.example/1", "about retrieval"),
		},
	}

	service := New(idx, testChain(t))

	passages, err := service.Search(t.Context(), Request{Query: "retrieval"})

	require.NoError(t, err)
	require.Len(t, passages, 1)
	require.Equal(t, "Issue 1", passages[0].Title)
	require.Equal(t, "https://a.example/1", passages[0].URL)
	require.Equal(t, "about retrieval", passages[0].Content)
}

func TestTitlesDeduplicated(t *testing.T) {
	idx := &fakeIndex{
		results: []index.Result{
			testResult("Issue 1", "https://a.example/1", "chunk a"),
			testResult("issue 1", "https://a.example/1", "chunk b"),
			testResult("Issue 2", "https://a.example/2", "chunk c"),
		},
	}

	service := New(idx, testChain(t))

	topK := 2

	titles, err := service.Titles(t.Context(), Request{Query: "q", TopK: &topK})

	require.NoError(t, err)
	require.Len(t, titles, 2)
	require.Equal(t, "Issue 1", titles[0].Title)
	require.Equal(t, "Issue 2", titles[1].Title)

	// chunk query is inflated to survive deduplication
	require.Equal(t, topK*titleFetchFactor, *idx.lastOptions.Limit)
}

func TestAsk(t *testing.T) {
	idx := &fakeIndex{
		results: []index.Result{
			testResult("Issue 1", "https://a.example/1", "about retrieval"),
			testResult("Issue 2", "https://a.example/2", "about indexes"),
		},
	}

	service := New(idx, testChain(t))

	response, err := service.Ask(t.Context(), Request{Query: "how does retrieval work"})

	require.NoError(t, err)
	require.Equal(t, "grounded answer", response.Answer)
	require.Equal(t, "primary", response.Provider)
	require.False(t, response.Degraded)
	require.Len(t, response.Citations, 2)
	require.Len(t, response.Attempts, 1)
	require.Equal(t, chain.StatusSuccess, response.Attempts[0].Status)
}

func TestAskCitationsLimitedToPromptBudget(t *testing.T) {
	idx := &fakeIndex{
		results: []index.Result{
			testResult("Issue 1", "https://a.example/1", "short"),
			testResult("Issue 2", "https://a.example/2", "this passage does not fit the budget"),
		},
	}

	service := New(idx, testChain(t), WithPromptBudget(60))

	response, err := service.Ask(t.Context(), Request{Query: "q"})

	require.NoError(t, err)
	require.Len(t, response.Citations, 1)
	require.Equal(t, "https://a.example/1", response.Citations[0].URL)
}

func TestAskDegraded(t *testing.T) {
	idx := &fakeIndex{
		err: errors.New("index unavailable"),
	}

	service := New(idx, testChain(t))

	response, err := service.Ask(t.Context(), Request{Query: "q"})

	require.NoError(t, err)
	require.True(t, response.Degraded)
	require.Empty(t, response.Citations)
	require.Equal(t, "grounded answer", response.Answer)
}

func TestAskInvalidRequest(t *testing.T) {
	service := New(&fakeIndex{}, testChain(t))

	_, err := service.Ask(t.Context(), Request{Query: ""})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}
