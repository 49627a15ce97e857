package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ux-auditor/extract"
)

func TestBuildContextualPrompt(t *testing.T) {
	audited := extract.EmptyPageContext("https://ex.com/pricing", nil)
	audited.Head.Title = "Pricing"
	home := extract.EmptyPageContext("https://ex.com/", nil)

	prompt := BuildContextualPrompt(ContextualPromptInput{
		AuditURL: "https://ex.com/pricing",
		Sitemap:  []string{"https://ex.com/", "https://ex.com/pricing"},
		Pages:    []extract.PageContext{audited, home},
		HasImage: true,
		Context:  AuditContext{TargetAudience: "Small business owners"},
	})

	assert.Contains(t, prompt, "https://ex.com/pricing")
	assert.Contains(t, prompt, "Audited page 1 (https://ex.com/pricing)")
	assert.Contains(t, prompt, "Context page 2 (https://ex.com/)")
	assert.Contains(t, prompt, `"title":"Pricing"`)
	assert.Contains(t, prompt, "Target audience: Small business owners")
	assert.Contains(t, prompt, "screenshot")
	assert.True(t, strings.HasSuffix(prompt, SchemaInstructions()))
}

func TestBuildBaselinePromptTruncatesMarkdown(t *testing.T) {
	prompt := BuildBaselinePrompt(BaselinePromptInput{
		URL:      "https://ex.com",
		Markdown: strings.Repeat("m", maxMarkdownLength+10),
	})

	assert.Contains(t, prompt, "(Markdown truncated for length)")
	assert.NotContains(t, prompt, "Business context")
}

func TestBuildBaselinePromptImageOnly(t *testing.T) {
	prompt := BuildBaselinePrompt(BaselinePromptInput{HasImage: true})

	assert.Contains(t, prompt, "attached screenshot")
	assert.Contains(t, prompt, `"heuristicViolations"`)
}
