package fetcher

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// chromeSelector matches the page furniture stripped before extraction.
const chromeSelector = "script, style, noscript, iframe, nav, header, footer, aside, form"

// extractArticleText reduces an HTML document to its readable article text.
// It prefers a semantic <article> element, falls back to aggregating
// paragraphs, and finally to the whole body. All whitespace runs collapse to
// single spaces so downstream sentence and token counting see uniform text.
func extractArticleText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find(chromeSelector).Remove()

	if article := doc.Find("article").First(); article.Length() > 0 {
		return normalizeWhitespace(article.Text())
	}

	if paragraphs := doc.Find("p"); paragraphs.Length() > 0 {
		parts := make([]string, 0, paragraphs.Length())
		paragraphs.Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				parts = append(parts, t)
			}
		})
		if len(parts) > 0 {
			return normalizeWhitespace(strings.Join(parts, " "))
		}
	}

	return normalizeWhitespace(doc.Find("body").Text())
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
