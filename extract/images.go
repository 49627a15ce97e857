package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// AccessibilityOf records the document language and how many images lack alt text.
func AccessibilityOf(doc *goquery.Document) Accessibility {
	a := Accessibility{Lang: Lang(doc)}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		if _, ok := s.Attr("src"); !ok {
			return
		}
		a.ImagesTotal++
		// alt="" marks a decorative image, which is fine.
		if _, ok := s.Attr("alt"); !ok {
			a.ImagesMissingAlt++
		}
	})

	return a
}

func Lang(doc *goquery.Document) string {
	if lang, ok := doc.Find("html").First().Attr("lang"); ok && strings.TrimSpace(lang) != "" {
		return strings.ToLower(strings.TrimSpace(lang))
	}
	if lang, ok := doc.Find("meta[http-equiv='content-language']").First().Attr("content"); ok {
		return strings.ToLower(strings.TrimSpace(lang))
	}
	return ""
}
