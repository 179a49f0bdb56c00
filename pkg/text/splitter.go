package text

import (
	"strings"
	"unicode"
)

type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
}

func NewSplitter() Splitter {
	return Splitter{
		ChunkSize:    1500,
		ChunkOverlap: 200,
	}
}

// Split cuts text into chunks of at most ChunkSize runes, preferring
// paragraph boundaries, then sentence boundaries within oversized
// paragraphs, and carrying ChunkOverlap runes of trailing context into the
// next chunk. Only sentences longer than ChunkSize are cut at hard offsets.
func (s Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)

	if text == "" {
		return nil
	}

	if len([]rune(text)) <= s.ChunkSize {
		return []string{text}
	}

	var chunks []string
	var current []rune

	for _, segment := range s.segments(text) {
		runes := []rune(segment)

		if len(current)+len(runes) > s.ChunkSize && len(current) > 0 {
			chunks = append(chunks, strings.TrimSpace(string(current)))
			current = tail(current, s.ChunkOverlap)
		}

		for len(runes) > s.ChunkSize {
			chunks = append(chunks, strings.TrimSpace(string(runes[:s.ChunkSize])))
			runes = runes[s.ChunkSize-s.ChunkOverlap:]
		}

		// The overlap carry may leave less room than a full chunk.
		if len(current)+len(runes) > s.ChunkSize {
			current = tail(current, s.ChunkSize-len(runes))
		}

		current = append(current, runes...)
	}

	if chunk := strings.TrimSpace(string(current)); chunk != "" {
		chunks = append(chunks, chunk)
	}

	return chunks
}

// segments yields paragraphs, breaking paragraphs that exceed ChunkSize
// down to sentences.
func (s Splitter) segments(text string) []string {
	var result []string

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)

		if paragraph == "" {
			continue
		}

		withBreak := paragraph + "\n\n"

		if len([]rune(withBreak)) <= s.ChunkSize {
			result = append(result, withBreak)
			continue
		}

		result = append(result, sentences(paragraph)...)
	}

	return result
}

func sentences(paragraph string) []string {
	var result []string

	runes := []rune(paragraph)
	start := 0

	for i := 0; i < len(runes)-1; i++ {
		if !isTerminator(runes[i]) || !unicode.IsSpace(runes[i+1]) {
			continue
		}

		result = append(result, string(runes[start:i+2]))
		start = i + 2
	}

	if start < len(runes) {
		result = append(result, string(runes[start:]))
	}

	return result
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func tail(runes []rune, overlap int) []rune {
	if len(runes) <= overlap {
		return append([]rune(nil), runes...)
	}

	return append([]rune(nil), runes[len(runes)-overlap:]...)
}
