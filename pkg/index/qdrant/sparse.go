package qdrant

import (
	"hash/fnv"
	"strings"
	"unicode"
)

// sparseVector encodes text as hashed term frequencies. IDF weighting
// happens server-side, so the values here are plain counts.
func sparseVector(text string) ([]uint32, []float32) {
	counts := map[uint32]float32{}

	for _, token := range tokenize(text) {
		counts[hashToken(token)]++
	}

	indices := make([]uint32, 0, len(counts))
	values := make([]float32, 0, len(counts))

	for index, count := range counts {
		indices = append(indices, index)
		values = append(values, count)
	}

	return indices, values
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func hashToken(token string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(token))

	return h.Sum32()
}
