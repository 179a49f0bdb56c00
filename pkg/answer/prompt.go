package answer

import (
	"fmt"
	"strings"

	"github.com/lettera/lettera/pkg/index"
	"github.com/lettera/lettera/pkg/provider"
)

const systemPrompt = `You are a research assistant answering questions about a library of newsletter articles.

Ground your answer in the numbered sources below. Reference sources by their number, like [1]. If the sources do not cover the question, say so instead of inventing facts.`

const degradedPrompt = `You are a research assistant answering questions about a library of newsletter articles.

No supporting sources could be retrieved for this question. Answer from general knowledge and state clearly that the article library was unavailable.`

// buildPrompt renders the retrieval results into messages and returns the
// subset of results that fit the character budget. Citations must be built
// from the returned subset, never from the full result list.
func buildPrompt(query string, results []index.Result, budget int) ([]provider.Message, []index.Result) {
	if len(results) == 0 {
		return []provider.Message{
			provider.SystemMessage(degradedPrompt),
			provider.UserMessage(query),
		}, nil
	}

	var sources strings.Builder
	var used []index.Result

	for _, result := range results {
		block := renderSource(len(used)+1, result)

		if sources.Len()+len(block) > budget && len(used) > 0 {
			break
		}

		sources.WriteString(block)
		used = append(used, result)
	}

	prompt := fmt.Sprintf("Sources:\n\n%s\nQuestion: %s", sources.String(), query)

	return []provider.Message{
		provider.SystemMessage(systemPrompt),
		provider.UserMessage(prompt),
	}, used
}

func renderSource(number int, result index.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%d] %s", number, result.Document.Metadata[index.KeyTitle])

	if feed := result.Document.Metadata[index.KeyFeedName]; feed != "" {
		fmt.Fprintf(&b, " (%s)", feed)
	}

	b.WriteString("\n")

	if url := result.Document.Metadata[index.KeyURL]; url != "" {
		b.WriteString(url)
		b.WriteString("\n")
	}

	b.WriteString(result.Document.Content)
	b.WriteString("\n\n")

	return b.String()
}
