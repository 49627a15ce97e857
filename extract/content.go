package extract

import (
	"encoding/json"
	"net/url"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

var contentSelectors = []string{
	"main",
	"[role='main']",
	".main-content",
	".content",
	"article",
	".post-content",
	".entry-content",
}

func Title(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func MetaDescription(doc *goquery.Document) string {
	desc, _ := doc.Find("meta[name='description']").First().Attr("content")
	return strings.TrimSpace(desc)
}

func Canonical(doc *goquery.Document, pageURL string) string {
	href, ok := doc.Find("link[rel='canonical']").First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return ""
	}
	return resolve(pageURL, href)
}

// JSONLDTypes lists the @type values declared in ld+json blocks.
func JSONLDTypes(doc *goquery.Document) []string {
	var types []string
	seen := make(map[string]bool)

	add := func(v any) {
		switch t := v.(type) {
		case string:
			if t != "" && !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok && s != "" && !seen[s] {
					seen[s] = true
					types = append(types, s)
				}
			}
		}
	}

	var walk func(v any)
	walk = func(v any) {
		switch node := v.(type) {
		case map[string]any:
			add(node["@type"])
			if graph, ok := node["@graph"]; ok {
				walk(graph)
			}
		case []any:
			for _, item := range node {
				walk(item)
			}
		}
	}

	doc.Find("script[type='application/ld+json']").Each(func(i int, s *goquery.Selection) {
		var payload any
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return
		}
		walk(payload)
	})

	return types
}

// MainContentOf picks the first matching content container, falling back to body.
func MainContentOf(doc *goquery.Document) MainContent {
	container := doc.Find("body")
	selectors := []string{"body"}

	for _, sel := range contentSelectors {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			container = found
			selectors = []string{sel}
			break
		}
	}

	return MainContent{
		Headings:        Headings(container, maxHeadings),
		FirstParagraphs: truncate(strings.Join(Paragraphs(container, maxParagraphs), " "), maxParagraphChars),
		Selectors:       selectors,
	}
}

func Headings(sel *goquery.Selection, limit int) []string {
	headings := []string{}
	sel.Find("h1, h2, h3").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if text := cleanText(s.Text()); text != "" {
			headings = append(headings, text)
		}
		return len(headings) < limit
	})
	return headings
}

func Paragraphs(sel *goquery.Selection, limit int) []string {
	var paragraphs []string
	sel.Find("p").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := cleanText(s.Text())
		if utf8.RuneCountInString(text) > minParagraphLen {
			paragraphs = append(paragraphs, text)
		}
		return len(paragraphs) < limit
	})
	return paragraphs
}

// Markdown renders the body for the single-page prompt.
func Markdown(doc *goquery.Document) string {
	converter := md.NewConverter("", true, nil)
	converter.Remove("script", "style", "noscript", "svg", "iframe")
	bodyHTML, _ := doc.Find("body").Html()
	markdown, err := converter.ConvertString(bodyHTML)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(markdown)
}

func resolve(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
