package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"ux-auditor/extract"
)

const (
	SystemPrompt = "You are a senior UX auditor. You evaluate websites against Nielsen's heuristics, " +
		"established UX laws, copywriting best practice and WCAG accessibility guidelines. " +
		"Respond with a single JSON object and nothing else."

	maxMarkdownLength = 8000
	maxSitemapLines   = 50
)

// AuditContext is optional business context supplied by the person requesting the audit.
type AuditContext struct {
	TargetAudience     string
	UserGoals          string
	BusinessObjectives string
}

func (c AuditContext) empty() bool {
	return c.TargetAudience == "" && c.UserGoals == "" && c.BusinessObjectives == ""
}

type ContextualPromptInput struct {
	AuditURL string
	Sitemap  []string
	Pages    []extract.PageContext
	HasImage bool
	Context  AuditContext
}

type BaselinePromptInput struct {
	URL      string
	Page     *extract.PageContext
	Markdown string
	HasImage bool
	Context  AuditContext
}

func SchemaInstructions() string {
	return `Return JSON with exactly this structure:
{
  "executiveSummary": "2-3 sentence overview of the experience",
  "confidence": 0.0-1.0,
  "scores": {
    "heuristics":    {"score": 0-5, "maxScore": 5},
    "uxLaws":        {"score": 0-5, "maxScore": 5},
    "copywriting":   {"score": 0-5, "maxScore": 5},
    "accessibility": {"score": 0-5, "maxScore": 5}
  },
  "keyInsights": ["short insight", "..."],
  "personaDrivenJourney": {
    "persona": "name and one-line description",
    "personaDescription": "who they are and what they want",
    "steps": [
      {"step": 1, "action": "what the persona does", "userGoal": "...", "emotionalState": "...",
       "issues": ["..."], "improvements": ["..."]}
    ],
    "overallExperience": "..."
  },
  "heuristicViolations": [
    {"heuristic": "Nielsen heuristic name", "element": "where on the page", "violation": "what is wrong",
     "severity": "high|medium|low", "recommendation": "how to fix", "evidence": "what you observed"}
  ],
  "prioritizedFixes": [
    {"title": "...", "description": "...", "priority": "high|medium|low", "category": "heuristics|uxLaws|copywriting|accessibility",
     "impact": "high|medium|low", "effort": "high|medium|low", "estimatedTime": "e.g. 2 hours", "recommendation": "..."}
  ],
  "issues": [
    {"title": "...", "description": "...", "severity": "high|medium|low", "category": "heuristics|uxLaws|copywriting|accessibility",
     "recommendation": "...", "evidence": "...", "impact": "high|medium|low", "effort": "high|medium|low"}
  ]
}
Base every finding on evidence visible in the supplied material. Do not invent page elements.`
}

func BuildContextualPrompt(in ContextualPromptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Perform a contextual UX audit of %s.\n", in.AuditURL)
	fmt.Fprintf(&b, "The first page below is the page being audited; the others give site context.\n\n")

	if len(in.Sitemap) > 0 {
		b.WriteString("Site structure (from sitemap):\n")
		for i, u := range in.Sitemap {
			if i == maxSitemapLines {
				fmt.Fprintf(&b, "... and %d more pages\n", len(in.Sitemap)-maxSitemapLines)
				break
			}
			fmt.Fprintf(&b, "- %s\n", u)
		}
		b.WriteString("\n")
	}

	for i, page := range in.Pages {
		data, err := json.Marshal(page)
		if err != nil {
			continue
		}
		label := "Context page"
		if i == 0 {
			label = "Audited page"
		}
		fmt.Fprintf(&b, "%s %d (%s):\n%s\n\n", label, i+1, page.URL, data)
	}

	writeAuditContext(&b, in.Context)

	if in.HasImage {
		b.WriteString("A screenshot of the audited page above the fold is attached. Use it for visual hierarchy, layout and contrast findings.\n\n")
	}

	b.WriteString(SchemaInstructions())
	return b.String()
}

func BuildBaselinePrompt(in BaselinePromptInput) string {
	var b strings.Builder

	if in.URL != "" {
		fmt.Fprintf(&b, "Perform a UX audit of %s.\n\n", in.URL)
	} else {
		b.WriteString("Perform a UX audit of the interface shown in the attached screenshot.\n\n")
	}

	if in.Page != nil && in.Page.Error == "" {
		fmt.Fprintf(&b, "Title: %s\n", in.Page.Head.Title)
		if in.Page.Head.MetaDescription != "" {
			fmt.Fprintf(&b, "Meta description: %s\n", in.Page.Head.MetaDescription)
		}
		if len(in.Page.MainContent.Headings) > 0 {
			b.WriteString("Headings:\n")
			for _, h := range in.Page.MainContent.Headings {
				fmt.Fprintf(&b, "- %s\n", h)
			}
		}
		b.WriteString("\n")
	}

	if in.Markdown != "" {
		b.WriteString("Page content (markdown):\n")
		if r := []rune(in.Markdown); len(r) > maxMarkdownLength {
			b.WriteString(string(r[:maxMarkdownLength]))
			b.WriteString("\n... (Markdown truncated for length)\n\n")
		} else {
			b.WriteString(in.Markdown)
			b.WriteString("\n\n")
		}
	}

	writeAuditContext(&b, in.Context)

	if in.HasImage {
		b.WriteString("A screenshot is attached. Base visual findings on it.\n\n")
	}

	b.WriteString(SchemaInstructions())
	return b.String()
}

func writeAuditContext(b *strings.Builder, c AuditContext) {
	if c.empty() {
		return
	}
	b.WriteString("Business context:\n")
	if c.TargetAudience != "" {
		fmt.Fprintf(b, "- Target audience: %s\n", c.TargetAudience)
	}
	if c.UserGoals != "" {
		fmt.Fprintf(b, "- User goals: %s\n", c.UserGoals)
	}
	if c.BusinessObjectives != "" {
		fmt.Fprintf(b, "- Business objectives: %s\n", c.BusinessObjectives)
	}
	b.WriteString("Weigh findings against this context.\n\n")
}
