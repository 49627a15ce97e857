package audit

import (
	"encoding/json"
	"time"
)

// demoAudit is served only when AUDIT_DEMO_FALLBACK is on and every AI call
// failed. It is always returned as a degraded outcome.
const demoAudit = `{
  "executiveSummary": "AI analysis was unavailable, so this is a sample report showing the structure of a real audit. The findings below are generic and were not derived from the requested page.",
  "confidence": 0.1,
  "scores": {
    "heuristics":    {"score": 3, "maxScore": 5},
    "uxLaws":        {"score": 3, "maxScore": 5},
    "copywriting":   {"score": 3, "maxScore": 5},
    "accessibility": {"score": 3, "maxScore": 5}
  },
  "keyInsights": [
    "Primary calls to action should be visible above the fold",
    "Navigation labels should describe destinations, not internal jargon",
    "Form fields need visible labels in addition to placeholders"
  ],
  "personaDrivenJourney": {
    "persona": "First-time visitor",
    "personaDescription": "Arrives from search and wants to understand the offer quickly",
    "steps": [
      {"step": 1, "action": "Lands on the page", "userGoal": "Understand what is offered", "emotionalState": "Curious",
       "issues": ["Value proposition is not immediately clear"], "improvements": ["Lead with a one-sentence benefit statement"]},
      {"step": 2, "action": "Looks for the next step", "userGoal": "Find how to get started", "emotionalState": "Uncertain",
       "issues": ["Several competing buttons"], "improvements": ["Use one visually dominant primary action"]}
    ],
    "overallExperience": "Sample journey for illustration only."
  },
  "heuristicViolations": [
    {"heuristic": "Visibility of system status", "element": "Forms", "violation": "No feedback after submission",
     "severity": "medium", "recommendation": "Show inline confirmation or progress", "evidence": "Sample finding"}
  ],
  "prioritizedFixes": [
    {"title": "Clarify the primary call to action", "description": "Reduce competing actions in the hero area",
     "priority": "high", "category": "uxLaws", "impact": "high", "effort": "low", "estimatedTime": "2 hours",
     "recommendation": "Keep one primary button and demote the rest"}
  ],
  "issues": [
    {"title": "Unclear value proposition", "description": "Headline does not state the user benefit",
     "severity": "medium", "category": "copywriting", "recommendation": "Rewrite the headline around the outcome users get"}
  ]
}`

// DemoReport builds the sample report for pageURL.
func DemoReport(pageURL string, processing time.Duration) *AuditData {
	meta := Metadata{
		Model:          "demo",
		ProcessingTime: processing.Milliseconds(),
		AuditType:      AuditTypeDemo,
	}
	if pageURL != "" {
		meta.PagesAnalyzed = []string{pageURL}
	}
	report, err := Normalize(json.RawMessage(demoAudit), meta)
	if err != nil {
		panic("audit: demo report does not normalize: " + err.Error())
	}
	report.URL = pageURL
	return report
}
