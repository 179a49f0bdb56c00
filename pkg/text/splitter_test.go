package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitShort(t *testing.T) {
	splitter := NewSplitter()

	chunks := splitter.Split("a short note")

	require.Equal(t, []string{"a short note"}, chunks)
}

func TestSplitEmpty(t *testing.T) {
	splitter := NewSplitter()

	require.Nil(t, splitter.Split("   \n  "))
}

func TestSplitParagraphs(t *testing.T) {
	splitter := Splitter{
		ChunkSize:    40,
		ChunkOverlap: 10,
	}

	text := "first paragraph about retrieval systems\n\nsecond paragraph about vector indexes"

	chunks := splitter.Split(text)

	require.GreaterOrEqual(t, len(chunks), 2)

	for _, chunk := range chunks {
		require.LessOrEqual(t, len([]rune(chunk)), splitter.ChunkSize)
		require.NotEmpty(t, chunk)
	}
}

func TestSplitSentences(t *testing.T) {
	splitter := Splitter{
		ChunkSize:    25,
		ChunkOverlap: 0,
	}

	text := "Dense vectors rank well. Sparse terms match. Fusion blends both."

	chunks := splitter.Split(text)

	require.Equal(t, []string{
		"Dense vectors rank well.",
		"Sparse terms match.",
		"Fusion blends both.",
	}, chunks)
}

func TestSplitLongParagraph(t *testing.T) {
	splitter := Splitter{
		ChunkSize:    50,
		ChunkOverlap: 10,
	}

	text := strings.Repeat("retrieval ", 30)

	chunks := splitter.Split(text)

	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		require.LessOrEqual(t, len([]rune(chunk)), splitter.ChunkSize)
	}
}
