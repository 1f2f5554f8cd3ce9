package testutil

import (
	"strings"
	"sync"
)

// WordTokenizer is a fake token codec for tests: every whitespace-separated
// word is one token. Decode joins words with single spaces, so any
// single-spaced input round-trips exactly. Safe for concurrent use.
type WordTokenizer struct {
	mu    sync.Mutex
	ids   map[string]int
	words []string
}

// NewWordTokenizer creates an empty WordTokenizer.
func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{ids: make(map[string]int)}
}

func (w *WordTokenizer) Encode(text string) []int {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	tokens := make([]int, len(fields))
	for i, f := range fields {
		id, ok := w.ids[f]
		if !ok {
			id = len(w.words)
			w.ids[f] = id
			w.words = append(w.words, f)
		}
		tokens[i] = id
	}
	return tokens
}

func (w *WordTokenizer) Decode(tokens []int) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	words := make([]string, 0, len(tokens))
	for _, id := range tokens {
		if id >= 0 && id < len(w.words) {
			words = append(words, w.words[id])
		}
	}
	return strings.Join(words, " ")
}

func (w *WordTokenizer) Count(text string) int {
	return len(strings.Fields(text))
}
