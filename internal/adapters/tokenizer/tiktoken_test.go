package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadCodec skips the test when the BPE ranks cannot be loaded, for example
// on machines without the cache and without network access.
func loadCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := New(DefaultEncoding)
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}
	return c
}

func TestNew_UnknownEncoding(t *testing.T) {
	c, err := New("no-such-encoding")
	require.Error(t, err)
	assert.Nil(t, c)
}

func TestCodec_RoundTrip(t *testing.T) {
	c := loadCodec(t)

	text := "The quick brown fox jumps over the lazy dog. Числа и símbolos too."
	tokens := c.Encode(text)
	require.NotEmpty(t, tokens)
	assert.Equal(t, text, c.Decode(tokens))
}

func TestCodec_CountMatchesEncode(t *testing.T) {
	c := loadCodec(t)

	text := "counting tokens should agree with encoding them"
	assert.Equal(t, len(c.Encode(text)), c.Count(text))
	assert.Zero(t, c.Count(""))
}
