package extract

import "encoding/json"

const (
	DefaultTokenBudget = 6000

	trimParagraphChars = 400
	trimHeadings       = 3
	trimNav            = 8
	trimForms          = 2
	trimCTAs           = 3
)

// EstimateTokens approximates prompt tokens as serialized length / 4.
func EstimateTokens(v any) int {
	data, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return (len(data) + 3) / 4
}

// OptimizeForTokens shrinks pages until they fit maxTokens. Extra pages are
// dropped from the end first; the first page is never dropped. If that is not
// enough every remaining page has its fields trimmed. The input is not modified.
func OptimizeForTokens(pages []PageContext, maxTokens int) []PageContext {
	if maxTokens <= 0 {
		maxTokens = DefaultTokenBudget
	}

	out := make([]PageContext, len(pages))
	copy(out, pages)

	for len(out) > 1 && EstimateTokens(out) > maxTokens {
		out = out[:len(out)-1]
	}

	if EstimateTokens(out) <= maxTokens {
		return out
	}

	for i := range out {
		out[i] = trimPage(out[i])
	}
	return out
}

func trimPage(p PageContext) PageContext {
	p.MainContent.FirstParagraphs = truncate(p.MainContent.FirstParagraphs, trimParagraphChars)
	p.MainContent.Headings = capSlice(p.MainContent.Headings, trimHeadings)
	p.Nav = capSlice(p.Nav, trimNav)
	p.FormsAndCTAs.Forms = capSlice(p.FormsAndCTAs.Forms, trimForms)
	p.FormsAndCTAs.PrimaryCTAs = capSlice(p.FormsAndCTAs.PrimaryCTAs, trimCTAs)
	return p
}

// capSlice returns a fresh slice so trimming never aliases the caller's data.
func capSlice[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	out := make([]T, n)
	copy(out, s[:n])
	return out
}
