package fetcher

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// minArticleRunes is the minimum text length for the heuristic.
	minArticleRunes = 500
	// minLongSentences is how many substantial sentences an article needs.
	minLongSentences = 5
	// minSentenceWords is the word count a sentence must exceed to be
	// considered substantial.
	minSentenceWords = 6
	// classifierSampleRunes is how much text the model-based check sees.
	classifierSampleRunes = 2000
)

var sentenceSplitRe = regexp.MustCompile(`[.!?]`)

// rejectionMarkers are substrings typical of error pages and consent walls.
var rejectionMarkers = []string{
	"404",
	"page not found",
	"not found",
	"cookies",
	"consent",
	"login required",
	"sign in to continue",
}

// isArticle applies the cheap structural heuristic: enough text, enough
// substantial sentences, none of the error-page markers.
func isArticle(text string) bool {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minArticleRunes {
		return false
	}

	long := 0
	for _, sentence := range sentenceSplitRe.Split(text, -1) {
		if len(strings.Fields(sentence)) > minSentenceWords {
			long++
		}
	}
	if long < minLongSentences {
		return false
	}

	lower := strings.ToLower(text)
	for _, marker := range rejectionMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

const articleClassifierPromptTemplate = `You are a web content classifier.

Determine whether the following page is a real article or not. An article should be at least one paragraph long, written in natural language, and contain meaningful content.

Only respond with a single word: "yes" or "no".

Here is the content:

%s`

func buildClassifierPrompt(text string) string {
	runes := []rune(text)
	if len(runes) > classifierSampleRunes {
		runes = runes[:classifierSampleRunes]
	}
	return fmt.Sprintf(articleClassifierPromptTemplate, string(runes))
}

// isArticleModel asks the model for a yes/no verdict on text the heuristic
// rejected. Any model failure counts as no.
func (f *Fetcher) isArticleModel(ctx context.Context, text string) bool {
	reply, err := f.gen.Generate(ctx, buildClassifierPrompt(text))
	if err != nil {
		f.logger.WarnContext(ctx, "article classifier call failed", "error", err)
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(reply)), "y")
}
