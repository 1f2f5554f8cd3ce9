package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply_Strict(t *testing.T) {
	p := ParseReply(`{"summary": "Short overview of Go scheduling.", "tags": ["go", "concurrency"]}`)

	assert.Equal(t, ParseOutcomeStrict, p.Outcome)
	assert.False(t, p.Degraded())
	assert.Equal(t, "Short overview of Go scheduling.", p.Summary)
	assert.Equal(t, []string{"go", "concurrency"}, p.Tags)
	assert.Empty(t, p.Raw)
}

func TestParseReply_EmptyTagsAllowed(t *testing.T) {
	p := ParseReply(`{"summary": "s", "tags": []}`)

	assert.Equal(t, ParseOutcomeStrict, p.Outcome)
	assert.Empty(t, p.Tags)
	assert.NotNil(t, p.Tags)
}

func TestParseReply_WrappedVariantsDecodeIdentically(t *testing.T) {
	clean := `{"summary": "A survey of caching strategies.", "tags": ["caching", "performance"]}`
	want := ParseReply(clean)
	require.Equal(t, ParseOutcomeStrict, want.Outcome)

	tests := []struct {
		name    string
		raw     string
		outcome ParseOutcome
	}{
		{name: "fenced with language tag", raw: "```json\n" + clean + "\n```", outcome: ParseOutcomeSanitized},
		{name: "fenced without language tag", raw: "```\n" + clean + "\n```", outcome: ParseOutcomeSanitized},
		{name: "uppercase language tag", raw: "```JSON\n" + clean + "\n```", outcome: ParseOutcomeSanitized},
		{name: "surrounding whitespace", raw: "\n  " + clean + "  \n", outcome: ParseOutcomeSanitized},
		{name: "embedded in prose", raw: "Here is the result you asked for: " + clean + " Hope this helps!", outcome: ParseOutcomeExtracted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseReply(tt.raw)
			require.Equal(t, tt.outcome, p.Outcome)
			assert.Equal(t, want.Summary, p.Summary)
			assert.Equal(t, want.Tags, p.Tags)
		})
	}
}

func TestParseReply_Degraded(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "free text", raw: "I could not summarize this article, sorry."},
		{name: "empty reply", raw: ""},
		{name: "missing tags", raw: `{"summary": "only a summary"}`},
		{name: "missing summary", raw: `{"tags": ["a", "b"]}`},
		{name: "null fields", raw: `{"summary": null, "tags": null}`},
		{name: "wrong types", raw: `{"summary": 42, "tags": "not-a-list"}`},
		{name: "json array", raw: `["summary", "tags"]`},
		{name: "truncated object", raw: `{"summary": "cut off mid`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseReply(tt.raw)
			assert.Equal(t, ParseOutcomeDegraded, p.Outcome)
			assert.True(t, p.Degraded())
			assert.Equal(t, tt.raw, p.Raw)
			assert.Empty(t, p.Summary)
			assert.Nil(t, p.Tags)
		})
	}
}

func TestParseReply_ProseAroundMalformedObject(t *testing.T) {
	raw := "The result is {not json at all} as requested."
	p := ParseReply(raw)

	assert.Equal(t, ParseOutcomeDegraded, p.Outcome)
	assert.Equal(t, raw, p.Raw)
}

func TestStripWrapping(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain object untouched", in: `{"a":1}`, want: `{"a":1}`},
		{name: "fence with tag", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "quoted", in: `'{"a":1}'`, want: `{"a":1}`},
		{name: "whitespace", in: "  {\"a\":1}\t", want: `{"a":1}`},
		{name: "bare json word", in: "json", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripWrapping(tt.in))
		})
	}
}
