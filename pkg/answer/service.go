package answer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lettera/lettera/pkg/chain"
	"github.com/lettera/lettera/pkg/index"
	"github.com/lettera/lettera/pkg/provider"
)

const (
	defaultTopK = 5
	maxTopK     = 50

	defaultPromptBudget = 12000

	// titles are deduplicated per article, so the chunk query needs
	// headroom over the requested count
	titleFetchFactor = 4
)

var filterKeys = map[string]bool{
	index.KeyFeedAuthor: true,
	index.KeyFeedName:   true,
	index.KeyTitle:      true,
}

type Service struct {
	index index.Provider
	chain *chain.Completer

	promptBudget int
}

type Option func(*Service)

func WithPromptBudget(budget int) Option {
	return func(s *Service) {
		s.promptBudget = budget
	}
}

func New(index index.Provider, chain *chain.Completer, options ...Option) *Service {
	s := &Service{
		index: index,
		chain: chain,

		promptBudget: defaultPromptBudget,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

func (s *Service) Search(ctx context.Context, request Request) ([]Passage, error) {
	query, topK, filters, err := validate(request)

	if err != nil {
		return nil, err
	}

	results, err := s.index.Query(ctx, query, &index.QueryOptions{
		Limit:   &topK,
		Filters: filters,
	})

	if err != nil {
		return nil, err
	}

	passages := make([]Passage, 0, len(results))

	for _, r := range results {
		passages = append(passages, convertPassage(r))
	}

	return passages, nil
}

// Titles returns matching articles, collapsing multiple chunks of the same
// article into one entry keyed by its lowercased title.
func (s *Service) Titles(ctx context.Context, request Request) ([]Title, error) {
	query, topK, filters, err := validate(request)

	if err != nil {
		return nil, err
	}

	fetch := topK * titleFetchFactor

	results, err := s.index.Query(ctx, query, &index.QueryOptions{
		Limit:   &fetch,
		Filters: filters,
	})

	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(results))
	titles := make([]Title, 0, topK)

	for _, r := range results {
		name := strings.ToLower(strings.TrimSpace(r.Document.Metadata[index.KeyTitle]))

		if name == "" || seen[name] {
			continue
		}

		seen[name] = true

		titles = append(titles, Title{
			Score:    r.Score,
			Title:    r.Document.Metadata[index.KeyTitle],
			URL:      r.Document.Metadata[index.KeyURL],
			FeedName: r.Document.Metadata[index.KeyFeedName],
		})

		if len(titles) >= topK {
			break
		}
	}

	return titles, nil
}

func (s *Service) Ask(ctx context.Context, request Request) (*Response, error) {
	return s.ask(ctx, request, nil)
}

// AskStream behaves like Ask but forwards answer deltas to the handler as
// they arrive.
func (s *Service) AskStream(ctx context.Context, request Request, handler provider.StreamHandler) (*Response, error) {
	return s.ask(ctx, request, handler)
}

func (s *Service) ask(ctx context.Context, request Request, handler provider.StreamHandler) (*Response, error) {
	query, topK, filters, err := validate(request)

	if err != nil {
		return nil, err
	}

	var degraded bool

	results, err := s.index.Query(ctx, query, &index.QueryOptions{
		Limit:   &topK,
		Filters: filters,
	})

	if err != nil {
		// retrieval failure degrades the answer instead of aborting it
		slog.WarnContext(ctx, "retrieval failed, answering without sources", "error", err)

		degraded = true
		results = nil
	}

	messages, used := buildPrompt(query, results, s.promptBudget)

	options := &provider.CompleteOptions{}

	if handler != nil {
		options.Stream = handler
	}

	result, err := s.chain.Complete(ctx, messages, options)

	if err != nil {
		return nil, err
	}

	response := &Response{
		Provider: result.Provider,

		Citations: convertCitations(used),
		Attempts:  result.Attempts,

		Degraded: degraded,
	}

	if result.Completion != nil {
		response.Model = result.Completion.Model

		if result.Completion.Message != nil {
			response.Answer = result.Completion.Message.Content
		}
	}

	return response, nil
}

func validate(request Request) (string, int, map[string]string, error) {
	query := strings.TrimSpace(request.Query)

	if query == "" {
		return "", 0, nil, newValidationError("query is required")
	}

	topK := defaultTopK

	if request.TopK != nil {
		topK = *request.TopK
	}

	if topK < 1 || topK > maxTopK {
		return "", 0, nil, newValidationError("top_k must be between 1 and 50")
	}

	filters, err := normalizeFilters(request.Filters)

	if err != nil {
		return "", 0, nil, err
	}

	return query, topK, filters, nil
}

// normalizeFilters rejects unknown keys, trims values, drops empty ones and
// lowercases title values so title matching is case-insensitive.
func normalizeFilters(filters map[string]string) (map[string]string, error) {
	if len(filters) == 0 {
		return nil, nil
	}

	normalized := make(map[string]string, len(filters))

	for key, value := range filters {
		key = strings.ToLower(strings.TrimSpace(key))

		if !filterKeys[key] {
			return nil, newValidationError("unknown filter: " + key)
		}

		value = strings.TrimSpace(value)

		if value == "" {
			continue
		}

		if key == index.KeyTitle {
			value = strings.ToLower(value)
		}

		normalized[key] = value
	}

	if len(normalized) == 0 {
		return nil, nil
	}

	return normalized, nil
}

func convertPassage(result index.Result) Passage {
	return Passage{
		Score: result.Score,

		Title:      result.Document.Metadata[index.KeyTitle],
		URL:        result.Document.Metadata[index.KeyURL],
		FeedName:   result.Document.Metadata[index.KeyFeedName],
		FeedAuthor: result.Document.Metadata[index.KeyFeedAuthor],

		PublishedAt: result.Document.Metadata[index.KeyPublishedAt],

		Content: result.Document.Content,
	}
}

func convertCitations(used []index.Result) []Citation {
	seen := make(map[string]bool, len(used))
	citations := make([]Citation, 0, len(used))

	for _, r := range used {
		url := r.Document.Metadata[index.KeyURL]

		if url == "" || seen[url] {
			continue
		}

		seen[url] = true

		citations = append(citations, Citation{
			Title:    r.Document.Metadata[index.KeyTitle],
			URL:      url,
			FeedName: r.Document.Metadata[index.KeyFeedName],
		})
	}

	return citations
}
