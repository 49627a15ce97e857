package extract

import (
	"fmt"
	"strings"
	"testing"
)

func bigPage(url string) PageContext {
	pc := EmptyPageContext(url, nil)
	pc.Head.Title = "Title"
	pc.MainContent.FirstParagraphs = strings.Repeat("a", 800)
	for i := 0; i < 5; i++ {
		pc.MainContent.Headings = append(pc.MainContent.Headings, fmt.Sprintf("Heading %d", i))
	}
	for i := 0; i < 15; i++ {
		pc.Nav = append(pc.Nav, NavLink{Text: fmt.Sprintf("Link %d", i), Href: fmt.Sprintf("%s/l%d", url, i)})
	}
	for i := 0; i < 3; i++ {
		pc.FormsAndCTAs.Forms = append(pc.FormsAndCTAs.Forms, Form{Selector: "form", Fields: []string{"email:email"}})
	}
	for i := 0; i < 5; i++ {
		pc.FormsAndCTAs.PrimaryCTAs = append(pc.FormsAndCTAs.PrimaryCTAs, CTA{Text: fmt.Sprintf("CTA %d", i), Selector: ".cta"})
	}
	return pc
}

func TestOptimizeForTokensUnderBudget(t *testing.T) {
	pages := []PageContext{bigPage("https://a.com"), bigPage("https://a.com/b")}

	out := OptimizeForTokens(pages, 100000)

	if len(out) != 2 {
		t.Fatalf("Expected both pages kept, got %d", len(out))
	}
	if len(out[0].Nav) != 15 {
		t.Errorf("Nav should be untouched, got %d", len(out[0].Nav))
	}
}

func TestOptimizeForTokensDropsTrailingPagesFirst(t *testing.T) {
	pages := []PageContext{bigPage("https://a.com"), bigPage("https://a.com/b"), bigPage("https://a.com/c")}
	one := EstimateTokens([]PageContext{pages[0]})

	out := OptimizeForTokens(pages, one+10)

	if len(out) != 1 {
		t.Fatalf("Expected one page left, got %d", len(out))
	}
	if out[0].URL != "https://a.com" {
		t.Errorf("First page must survive, got %s", out[0].URL)
	}
	if len(out[0].Nav) != 15 {
		t.Errorf("Fields should not be trimmed when dropping pages was enough")
	}
	if len(pages) != 3 || len(pages[0].Nav) != 15 {
		t.Error("Input must not be modified")
	}
}

func TestOptimizeForTokensTrimsFields(t *testing.T) {
	pages := []PageContext{bigPage("https://a.com"), bigPage("https://a.com/b")}

	out := OptimizeForTokens(pages, 10)

	if len(out) != 1 {
		t.Fatalf("Expected one page left, got %d", len(out))
	}
	p := out[0]
	if len(p.MainContent.FirstParagraphs) != trimParagraphChars {
		t.Errorf("Paragraphs = %d chars", len(p.MainContent.FirstParagraphs))
	}
	if len(p.MainContent.Headings) != trimHeadings || len(p.Nav) != trimNav ||
		len(p.FormsAndCTAs.Forms) != trimForms || len(p.FormsAndCTAs.PrimaryCTAs) != trimCTAs {
		t.Errorf("Unexpected trimmed sizes: %+v", p)
	}
	if len(pages[0].Nav) != 15 {
		t.Error("Input must not be modified")
	}
}

func TestOptimizeForTokensIdempotent(t *testing.T) {
	pages := []PageContext{bigPage("https://a.com"), bigPage("https://a.com/b")}

	first := OptimizeForTokens(pages, 10)
	second := OptimizeForTokens(first, 10)

	if EstimateTokens(first) != EstimateTokens(second) {
		t.Errorf("Second pass changed size: %d -> %d", EstimateTokens(first), EstimateTokens(second))
	}

	small := OptimizeForTokens(pages, 100000)
	again := OptimizeForTokens(small, 100000)
	if EstimateTokens(small) != EstimateTokens(again) {
		t.Error("Second pass over a small context list must not truncate")
	}
}
