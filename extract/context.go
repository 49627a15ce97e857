package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxNavLinks       = 15
	maxHeadings       = 5
	maxParagraphs     = 3
	minParagraphLen   = 20
	maxParagraphChars = 800
	maxForms          = 3
	maxFormFields     = 10
	maxCTAs           = 5
	maxLabelChars     = 50
)

// PageContext is the compact description of one page that goes into the audit prompt.
type PageContext struct {
	URL           string        `json:"url"`
	Head          Head          `json:"head"`
	Nav           []NavLink     `json:"nav"`
	MainContent   MainContent   `json:"mainContent"`
	FormsAndCTAs  FormsAndCTAs  `json:"formsAndCtas"`
	Accessibility Accessibility `json:"accessibility"`
	Error         string        `json:"error,omitempty"`
}

type Head struct {
	Title           string   `json:"title"`
	MetaDescription string   `json:"metaDescription"`
	Canonical       string   `json:"canonical,omitempty"`
	JSONLD          []string `json:"jsonLd,omitempty"`
}

type NavLink struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

type MainContent struct {
	Headings        []string `json:"headings"`
	FirstParagraphs string   `json:"firstParagraphs"`
	Selectors       []string `json:"selectors"`
}

type FormsAndCTAs struct {
	Forms       []Form `json:"forms"`
	PrimaryCTAs []CTA  `json:"primaryCtas"`
}

type Form struct {
	Selector string   `json:"selector"`
	Fields   []string `json:"fields"`
}

type CTA struct {
	Text     string `json:"text"`
	Selector string `json:"selector"`
	Href     string `json:"href,omitempty"`
}

type Accessibility struct {
	Lang             string `json:"lang,omitempty"`
	ImagesTotal      int    `json:"imagesTotal"`
	ImagesMissingAlt int    `json:"imagesMissingAlt"`
}

// EmptyPageContext stands in for a page that could not be fetched or parsed.
func EmptyPageContext(pageURL string, err error) PageContext {
	pc := PageContext{
		URL: pageURL,
		Nav: []NavLink{},
		MainContent: MainContent{
			Headings:  []string{},
			Selectors: []string{},
		},
		FormsAndCTAs: FormsAndCTAs{
			Forms:       []Form{},
			PrimaryCTAs: []CTA{},
		},
	}
	if err != nil {
		pc.Error = err.Error()
	}
	return pc
}

func PageContextFromDocument(doc *goquery.Document, pageURL string) PageContext {
	pc := EmptyPageContext(pageURL, nil)

	pc.Head = Head{
		Title:           Title(doc),
		MetaDescription: MetaDescription(doc),
		Canonical:       Canonical(doc, pageURL),
		JSONLD:          JSONLDTypes(doc),
	}
	pc.Nav = NavLinks(doc, pageURL)
	pc.MainContent = MainContentOf(doc)
	pc.FormsAndCTAs = FormsAndCTAs{
		Forms:       Forms(doc),
		PrimaryCTAs: PrimaryCTAs(doc, pageURL),
	}
	pc.Accessibility = AccessibilityOf(doc)

	return pc
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
