package pipeline

import (
	"encoding/json"
	"strings"
)

// parseFailureMessage marks a degraded payload. It travels into the final
// result verbatim, so polling clients can detect the condition.
const parseFailureMessage = "Failed to parse"

// ParseOutcome identifies which strategy in the parse chain produced a result.
type ParseOutcome string

const (
	// ParseOutcomeStrict means the reply decoded as-is.
	ParseOutcomeStrict ParseOutcome = "strict"
	// ParseOutcomeSanitized means the reply decoded after stripping wrapping
	// artifacts such as code fences and quotes.
	ParseOutcomeSanitized ParseOutcome = "sanitized"
	// ParseOutcomeExtracted means the reply decoded after cutting the first
	// embedded JSON object out of surrounding prose.
	ParseOutcomeExtracted ParseOutcome = "extracted"
	// ParseOutcomeDegraded means no strategy succeeded; the raw reply is
	// preserved instead of a structured result.
	ParseOutcomeDegraded ParseOutcome = "degraded"
)

// Parsed is the outcome of parsing one model reply. Every reply parses to
// something: when all strategies fail, Outcome is ParseOutcomeDegraded and
// Raw carries the reply untouched.
type Parsed struct {
	Summary string
	Tags    []string
	Outcome ParseOutcome
	Raw     string
}

// Degraded reports whether the reply resisted all parsing strategies.
func (p Parsed) Degraded() bool {
	return p.Outcome == ParseOutcomeDegraded
}

// ParseReply runs the reply through an ordered chain of total parsing
// strategies and returns the first success. Clean replies never pass through
// the stripping steps, so well-formed output is returned byte-for-byte.
func ParseReply(raw string) Parsed {
	if summary, tags, ok := decodeSummaryObject(raw); ok {
		return Parsed{Summary: summary, Tags: tags, Outcome: ParseOutcomeStrict}
	}

	if cleaned := stripWrapping(raw); cleaned != raw {
		if summary, tags, ok := decodeSummaryObject(cleaned); ok {
			return Parsed{Summary: summary, Tags: tags, Outcome: ParseOutcomeSanitized}
		}
	}

	if embedded, ok := cutObject(raw); ok {
		if summary, tags, ok := decodeSummaryObject(embedded); ok {
			return Parsed{Summary: summary, Tags: tags, Outcome: ParseOutcomeExtracted}
		}
	}

	return Parsed{Outcome: ParseOutcomeDegraded, Raw: raw}
}

// decodeSummaryObject decodes text as a JSON object carrying both a string
// summary and a string-array tags field. Anything else fails the decode.
func decodeSummaryObject(text string) (string, []string, bool) {
	var payload struct {
		Summary *string   `json:"summary"`
		Tags    *[]string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return "", nil, false
	}
	if payload.Summary == nil || payload.Tags == nil {
		return "", nil, false
	}
	return *payload.Summary, *payload.Tags, true
}

// stripWrapping removes the artifacts models commonly wrap JSON in: leading
// and trailing whitespace, code fences with an optional json language tag,
// and stray wrapping quotes.
func stripWrapping(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "`")
	s = strings.TrimSpace(s)
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = strings.TrimSpace(s[4:])
	}
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// cutObject cuts the outermost brace-delimited span out of the reply, for
// responses that bury the JSON object inside prose.
func cutObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}
