// Package tokenizer adapts a tiktoken BPE encoding to the token codec used by
// the summarization pipeline.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/skimworks/skim-api/internal/core"
)

// DefaultEncoding is the encoding used when none is configured.
const DefaultEncoding = "cl100k_base"

// Codec wraps a tiktoken encoding. Encode and Decode round-trip exactly, so
// text can be split on token boundaries and stitched back together.
type Codec struct {
	enc *tiktoken.Tiktoken
}

// New loads the named encoding. The first load fetches the BPE ranks and
// caches them on disk (TIKTOKEN_CACHE_DIR overrides the location).
func New(encoding string) (*Codec, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %q: %w", encoding, err)
	}
	return &Codec{enc: enc}, nil
}

func (c *Codec) Encode(text string) []int {
	return c.enc.Encode(text, nil, nil)
}

func (c *Codec) Decode(tokens []int) string {
	return c.enc.Decode(tokens)
}

func (c *Codec) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

var _ core.Tokenizer = (*Codec)(nil)
