package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var navSelectors = []string{
	"nav a[href]",
	"header a[href]",
	".nav a[href]",
	".navigation a[href]",
	".menu a[href]",
}

var ctaSelectors = []string{
	"button[type='submit']",
	".btn-primary",
	".cta",
	"a[href*='signup']",
	"a[href*='sign-up']",
	"a[href*='register']",
	"a[href*='contact']",
	".hero button",
	".hero a",
}

// NavLinks collects navigation anchors, deduplicated by link text.
func NavLinks(doc *goquery.Document, pageURL string) []NavLink {
	links := []NavLink{}
	seen := make(map[string]bool)

	doc.Find(strings.Join(navSelectors, ", ")).EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := truncate(cleanText(s.Text()), maxLabelChars)
		if text == "" || seen[text] {
			return true
		}
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if skipHref(href) {
			return true
		}

		seen[text] = true
		links = append(links, NavLink{Text: text, Href: resolve(pageURL, href)})
		return len(links) < maxNavLinks
	})

	return links
}

func PrimaryCTAs(doc *goquery.Document, pageURL string) []CTA {
	ctas := []CTA{}
	seen := make(map[string]bool)

	for _, sel := range ctaSelectors {
		doc.Find(sel).EachWithBreak(func(i int, s *goquery.Selection) bool {
			text := cleanText(s.Text())
			if text == "" {
				text = cleanText(s.AttrOr("value", ""))
			}
			text = truncate(text, maxLabelChars)
			if text == "" || seen[text] {
				return true
			}
			seen[text] = true

			cta := CTA{Text: text, Selector: sel}
			if href, ok := s.Attr("href"); ok && !skipHref(href) {
				cta.Href = resolve(pageURL, strings.TrimSpace(href))
			}
			ctas = append(ctas, cta)
			return len(ctas) < maxCTAs
		})
		if len(ctas) >= maxCTAs {
			break
		}
	}

	return ctas
}

func Forms(doc *goquery.Document) []Form {
	forms := []Form{}

	doc.Find("form").EachWithBreak(func(i int, s *goquery.Selection) bool {
		fields := []string{}
		seen := make(map[string]bool)

		s.Find("input, select, textarea").EachWithBreak(func(j int, f *goquery.Selection) bool {
			fieldType := strings.ToLower(f.AttrOr("type", goquery.NodeName(f)))
			if fieldType == "hidden" {
				return true
			}
			name := f.AttrOr("name", f.AttrOr("id", ""))
			if name == "" {
				name = f.AttrOr("placeholder", "unnamed")
			}
			field := name + ":" + fieldType
			if !seen[field] {
				seen[field] = true
				fields = append(fields, field)
			}
			return len(fields) < maxFormFields
		})

		forms = append(forms, Form{Selector: formSelector(s, i), Fields: fields})
		return len(forms) < maxForms
	})

	return forms
}

func formSelector(s *goquery.Selection, index int) string {
	if id, ok := s.Attr("id"); ok && id != "" {
		return "form#" + id
	}
	if class, ok := s.Attr("class"); ok {
		if fields := strings.Fields(class); len(fields) > 0 {
			return "form." + fields[0]
		}
	}
	if action, ok := s.Attr("action"); ok && action != "" {
		return fmt.Sprintf("form[action='%s']", action)
	}
	return fmt.Sprintf("form:nth-of-type(%d)", index+1)
}

func skipHref(href string) bool {
	lower := strings.ToLower(href)
	return href == "" || strings.HasPrefix(lower, "javascript:") || strings.Contains(lower, "void(0)")
}
