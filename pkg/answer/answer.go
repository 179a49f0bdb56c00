package answer

import (
	"github.com/lettera/lettera/pkg/chain"
)

type Request struct {
	Query string `json:"query"`

	TopK *int `json:"top_k,omitempty"`

	Filters map[string]string `json:"filters,omitempty"`
}

// Passage is one retrieved chunk, returned by plain search.
type Passage struct {
	Score float32 `json:"score"`

	Title      string `json:"title"`
	URL        string `json:"url"`
	FeedName   string `json:"feed_name,omitempty"`
	FeedAuthor string `json:"feed_author,omitempty"`

	PublishedAt string `json:"published_at,omitempty"`

	Content string `json:"content"`
}

// Title is a deduplicated article reference, for browsing without chunk
// contents.
type Title struct {
	Score float32 `json:"score"`

	Title    string `json:"title"`
	URL      string `json:"url"`
	FeedName string `json:"feed_name,omitempty"`
}

// Citation references an article whose text was part of the prompt. Only
// passages that actually made it into the prompt are cited.
type Citation struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	FeedName string `json:"feed_name,omitempty"`
}

type Response struct {
	Answer string `json:"answer"`

	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`

	Citations []Citation `json:"citations"`

	Attempts []chain.Attempt `json:"attempts"`

	// Degraded is set when retrieval failed and the answer was generated
	// without supporting passages.
	Degraded bool `json:"degraded,omitempty"`
}

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(message string) *ValidationError {
	return &ValidationError{
		Message: message,
	}
}
