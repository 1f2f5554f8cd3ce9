package pipeline

import (
	"errors"

	"github.com/skimworks/skim-api/internal/core"
)

// ErrChunkerTokenizerRequired indicates a chunker cannot be constructed without a tokenizer.
var ErrChunkerTokenizerRequired = errors.New("chunker tokenizer is required")

// ErrInvalidChunkBudget indicates the per-chunk token budget is not positive.
var ErrInvalidChunkBudget = errors.New("chunk max tokens must be positive")

// ErrInvalidChunkOverlap indicates the overlap is negative or would prevent the
// window from advancing.
var ErrInvalidChunkOverlap = errors.New("chunk overlap must be non-negative and smaller than max tokens")

// Chunker splits article text into overlapping windows of at most maxTokens
// tokens each. Consecutive windows share overlap tokens so context that spans
// a boundary survives in at least one chunk.
type Chunker struct {
	tok       core.Tokenizer
	maxTokens int
	overlap   int
}

// NewChunker constructs a Chunker. It fails when overlap >= maxTokens, which
// would stall the window instead of advancing it.
func NewChunker(tok core.Tokenizer, maxTokens, overlap int) (*Chunker, error) {
	if tok == nil {
		return nil, ErrChunkerTokenizerRequired
	}
	if maxTokens <= 0 {
		return nil, ErrInvalidChunkBudget
	}
	if overlap < 0 || overlap >= maxTokens {
		return nil, ErrInvalidChunkOverlap
	}
	return &Chunker{tok: tok, maxTokens: maxTokens, overlap: overlap}, nil
}

// Split tokenizes text once and cuts the token sequence into windows of
// maxTokens tokens, stepping maxTokens-overlap tokens each time. Text that
// fits the budget comes back as a single chunk, unchanged.
func (c *Chunker) Split(text string) []string {
	tokens := c.tok.Encode(text)
	if len(tokens) <= c.maxTokens {
		return []string{text}
	}

	stride := c.maxTokens - c.overlap
	chunks := make([]string, 0, (len(tokens)-c.overlap+stride-1)/stride)
	for start := 0; ; start += stride {
		end := min(start+c.maxTokens, len(tokens))
		chunks = append(chunks, c.tok.Decode(tokens[start:end]))
		if end == len(tokens) {
			break
		}
	}
	return chunks
}
