package pipeline

import (
	"encoding/json"
	"fmt"
)

// The prompt templates pin the model to a machine-readable output contract.
// The summarization prompt demands a bare JSON object and the tag filter a
// bare JSON array; the parse chain exists for the replies that ignore this.

const summaryPromptTemplate = `You are a text analyzer.

Given the following text of an article:
1. Write a concise topic-style summary in one English sentence that reflects the article's subject.
   - Do not start with phrases like "This article discusses..." or "The article explains...".
   - Make it a clear, compact statement of the main idea.
   - Example: "Best practices for handling display cutouts in Android edge-to-edge layouts."
2. Generate 5 to 10 general-topic tags, written in English, lowercase, and hyphenated (e.g. "android", "mobile-development", "user-interface").
   - Tags must describe the overall subject area, not specific technologies or methods.
   - Avoid concrete APIs or libraries (e.g. no "recyclerview", "compose").
   - Prefer broad tags like "android", "mobile-ui", "design-principles", "user-experience".

Return the result only as a valid JSON object, without wrapping it in markdown, a code block, or any additional formatting. Just plain JSON. Like this:
{
  "summary": "...",
  "tags": ["...", "..."]
}

Here is the article text:
%s
`

const tagFilterPromptTemplate = `You are a text categorization assistant.

Here is a list of tags extracted from different parts of an article. They may contain duplicates, synonyms, or overly specific variations.

Your task is to:
- return no more than 10 general-topic tags.
- remove tags that are too specific or repetitive in meaning.
- prefer broad, meaningful categories over concrete tools or libraries.
- keep the tags in lowercase and hyphenated (e.g. "machine-learning", "language-models").

Tags:
%s

Return the result as a valid JSON array, like this:
["tag-one", "tag-two", "tag-three"]
`

const mergeSummariesPromptTemplate = `Summarize the following partial summaries into one single coherent summary (in one English sentence):

%s`

// buildSummaryPrompt renders the summarization prompt for one article or
// chunk. The same template serves the direct path, the per-chunk path, and
// the token-count decision between them.
func buildSummaryPrompt(text string) string {
	return fmt.Sprintf(summaryPromptTemplate, text)
}

func buildTagFilterPrompt(candidates []string) string {
	rendered, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		// A []string cannot fail to marshal; keep the stage total anyway.
		rendered = []byte("[]")
	}
	return fmt.Sprintf(tagFilterPromptTemplate, rendered)
}

func buildMergeSummariesPrompt(joined string) string {
	return fmt.Sprintf(mergeSummariesPromptTemplate, joined)
}
