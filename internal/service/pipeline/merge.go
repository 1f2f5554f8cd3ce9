package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/skimworks/skim-api/internal/core"
)

// ErrMergerGeneratorRequired indicates a merger cannot be constructed without a generator.
var ErrMergerGeneratorRequired = errors.New("merger generator is required")

const (
	// noSummariesPlaceholder is returned when no chunk produced a summary.
	noSummariesPlaceholder = "No summaries available."
	// maxMergedTags caps the final tag set.
	maxMergedTags = 10
	// summaryRuneLimit is the length above which a merged summary is
	// considered implausible and replaced by the truncation fallback.
	summaryRuneLimit = 500
)

// Merger reduces per-chunk results into one final summary and one final tag
// set. Both reductions consult the model but never depend on it: every model
// failure or unusable reply falls back to a deterministic local computation,
// so the merge stage cannot fail a job.
type Merger struct {
	gen    core.Generator
	logger *slog.Logger
}

// NewMerger constructs a Merger.
func NewMerger(gen core.Generator, logger *slog.Logger) (*Merger, error) {
	if gen == nil {
		return nil, ErrMergerGeneratorRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{gen: gen, logger: logger}, nil
}

// MergeTags consolidates per-chunk tag lists into at most 10 tags. The
// candidate set is normalized (trimmed, lowercased, deduplicated, sorted)
// before the model is asked to compress it; whatever comes back is normalized
// again, so the result never carries duplicates or more than 10 entries.
func (m *Merger) MergeTags(ctx context.Context, tagLists [][]string) []string {
	candidates := normalizeTags(tagLists)
	if len(candidates) == 0 {
		return []string{}
	}

	reply, err := m.gen.Generate(ctx, buildTagFilterPrompt(candidates))
	if err != nil {
		m.logger.WarnContext(ctx, "tag filter call failed, using candidate list", "error", err)
		return capTags(candidates)
	}

	filtered, ok := parseTagArray(reply)
	if !ok {
		m.logger.WarnContext(ctx, "tag filter reply unparsable, using candidate list", "reply", reply)
		return capTags(candidates)
	}
	return capTags(dedupeTags(filtered))
}

// MergeSummaries consolidates per-chunk summaries into one. Zero inputs yield
// a fixed placeholder and a single distinct input is returned verbatim;
// only genuinely different summaries are joined and compressed through the
// model. A missing or implausibly long reply falls back to truncating the
// joined text at its last sentence boundary.
func (m *Merger) MergeSummaries(ctx context.Context, summaries []string) string {
	if len(summaries) == 0 {
		return noSummariesPlaceholder
	}

	unique := dedupeStrings(summaries)
	if len(unique) == 1 {
		return unique[0]
	}

	joined := strings.Join(unique, " ")
	reply, err := m.gen.Generate(ctx, buildMergeSummariesPrompt(joined))
	if err != nil {
		m.logger.WarnContext(ctx, "summary merge call failed, truncating joined text", "error", err)
		return truncateAtSentence(joined)
	}

	merged := strings.TrimSpace(reply)
	if merged == "" || utf8.RuneCountInString(merged) >= summaryRuneLimit {
		return truncateAtSentence(joined)
	}
	return merged
}

// normalizeTags flattens the per-chunk tag lists into a sorted, deduplicated
// candidate set of trimmed lowercase tags.
func normalizeTags(tagLists [][]string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, tags := range tagLists {
		for _, tag := range tags {
			t := strings.ToLower(strings.TrimSpace(tag))
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// dedupeTags normalizes the model's tag reply the same way candidates are
// normalized, preserving the model's ordering.
func dedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func capTags(tags []string) []string {
	if len(tags) > maxMergedTags {
		return tags[:maxMergedTags]
	}
	return tags
}

// dedupeStrings removes exact duplicates preserving first-seen order.
func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// parseTagArray decodes the tag-filter reply as a JSON string array, retrying
// once with wrapping artifacts stripped.
func parseTagArray(raw string) ([]string, bool) {
	if tags, ok := decodeStringArray(raw); ok {
		return tags, true
	}
	if cleaned := stripWrapping(raw); cleaned != raw {
		if tags, ok := decodeStringArray(cleaned); ok {
			return tags, true
		}
	}
	return nil, false
}

func decodeStringArray(text string) ([]string, bool) {
	var tags []string
	if err := json.Unmarshal([]byte(text), &tags); err != nil {
		return nil, false
	}
	if tags == nil {
		return nil, false
	}
	return tags, true
}

// truncateAtSentence cuts text to the summary length limit and drops the
// trailing partial sentence, marking the cut with an ellipsis.
func truncateAtSentence(text string) string {
	runes := []rune(text)
	if len(runes) > summaryRuneLimit {
		runes = runes[:summaryRuneLimit]
	}
	s := string(runes)
	if i := strings.LastIndex(s, "."); i >= 0 {
		s = s[:i]
	}
	return s + "..."
}
