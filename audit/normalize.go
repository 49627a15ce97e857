package audit

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"ux-auditor/ai"
)

const (
	defaultEvidence   = "Observed during automated analysis of the page."
	defaultConfidence = 0.7
)

type rawAudit struct {
	ExecutiveSummary flexString  `json:"executiveSummary"`
	Summary          flexString  `json:"summary"`
	Confidence       *flexFloat  `json:"confidence"`
	KeyInsights      flexStrings `json:"keyInsights"`
	Scores           struct {
		Heuristics    *rawScore `json:"heuristics"`
		UXLaws        *rawScore `json:"uxLaws"`
		Copywriting   *rawScore `json:"copywriting"`
		Accessibility *rawScore `json:"accessibility"`
	} `json:"scores"`
	PersonaDrivenJourney *struct {
		Persona            flexString `json:"persona"`
		PersonaDescription flexString `json:"personaDescription"`
		Steps              []struct {
			Step           flexFloat   `json:"step"`
			Action         flexString  `json:"action"`
			UserGoal       flexString  `json:"userGoal"`
			EmotionalState flexString  `json:"emotionalState"`
			Issues         flexStrings `json:"issues"`
			Improvements   flexStrings `json:"improvements"`
		} `json:"steps"`
		OverallExperience flexString `json:"overallExperience"`
	} `json:"personaDrivenJourney"`
	HeuristicViolations []struct {
		ID             flexString `json:"id"`
		Heuristic      flexString `json:"heuristic"`
		Element        flexString `json:"element"`
		Violation      flexString `json:"violation"`
		Severity       flexString `json:"severity"`
		Recommendation flexString `json:"recommendation"`
		Evidence       flexString `json:"evidence"`
	} `json:"heuristicViolations"`
	PrioritizedFixes []struct {
		ID             flexString `json:"id"`
		Title          flexString `json:"title"`
		Description    flexString `json:"description"`
		Priority       flexString `json:"priority"`
		Category       flexString `json:"category"`
		Impact         flexString `json:"impact"`
		Effort         flexString `json:"effort"`
		EstimatedTime  flexString `json:"estimatedTime"`
		Recommendation flexString `json:"recommendation"`
	} `json:"prioritizedFixes"`
	Issues []struct {
		ID             flexString `json:"id"`
		Title          flexString `json:"title"`
		Description    flexString `json:"description"`
		Severity       flexString `json:"severity"`
		Category       flexString `json:"category"`
		Recommendation flexString `json:"recommendation"`
		Evidence       flexString `json:"evidence"`
		Impact         flexString `json:"impact"`
		Effort         flexString `json:"effort"`
	} `json:"issues"`
}

// Normalize turns a provider's JSON answer into an AuditData. Percentages,
// grades, the overall score and the maturity level are always recomputed.
// Every provider feeds its extracted JSON through here.
func Normalize(raw json.RawMessage, meta Metadata) (*AuditData, error) {
	var in rawAudit
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrInvalidJSON, err)
	}

	summary := string(in.ExecutiveSummary)
	if summary == "" {
		summary = string(in.Summary)
	}

	confidence := defaultConfidence
	if in.Confidence != nil {
		confidence = normalizeConfidence(float64(*in.Confidence))
	}
	meta.Confidence = confidence
	if meta.PagesAnalyzed == nil {
		meta.PagesAnalyzed = []string{}
	}

	out := &AuditData{
		ID:                  uuid.NewString(),
		Timestamp:           time.Now().UTC(),
		ExecutiveSummary:    summary,
		Summary:             summary,
		Confidence:          confidence,
		KeyInsights:         nonNil([]string(in.KeyInsights)),
		Issues:              []Issue{},
		HeuristicViolations: []HeuristicViolation{},
		PrioritizedFixes:    []Fix{},
		AnalysisMetadata:    meta,
		Status:              StatusOK,
	}

	out.Scores = Scores{
		Heuristics:    categoryScore(in.Scores.Heuristics),
		UXLaws:        categoryScore(in.Scores.UXLaws),
		Copywriting:   categoryScore(in.Scores.Copywriting),
		Accessibility: categoryScore(in.Scores.Accessibility),
	}
	out.Scores.Overall = overallScore(out.Scores)
	out.MaturityLevel = MaturityLevel(out.Scores.Overall.Percentage)

	if j := in.PersonaDrivenJourney; j != nil {
		journey := &PersonaJourney{
			Persona:            string(j.Persona),
			PersonaDescription: string(j.PersonaDescription),
			OverallExperience:  string(j.OverallExperience),
			Steps:              make([]JourneyStep, 0, len(j.Steps)),
		}
		for i, st := range j.Steps {
			n := int(st.Step)
			if n <= 0 {
				n = i + 1
			}
			journey.Steps = append(journey.Steps, JourneyStep{
				Step:           n,
				Action:         string(st.Action),
				UserGoal:       string(st.UserGoal),
				EmotionalState: string(st.EmotionalState),
				Issues:         nonNil([]string(st.Issues)),
				Improvements:   nonNil([]string(st.Improvements)),
			})
		}
		out.PersonaDrivenJourney = journey
	}

	for _, v := range in.HeuristicViolations {
		out.HeuristicViolations = append(out.HeuristicViolations, HeuristicViolation{
			ID:             orID(string(v.ID)),
			Heuristic:      string(v.Heuristic),
			Element:        string(v.Element),
			Violation:      string(v.Violation),
			Severity:       normalizeLevel(string(v.Severity), "medium"),
			Recommendation: string(v.Recommendation),
			Evidence:       orDefault(string(v.Evidence), defaultEvidence),
		})
	}

	for _, f := range in.PrioritizedFixes {
		priority := normalizeLevel(string(f.Priority), "medium")
		out.PrioritizedFixes = append(out.PrioritizedFixes, Fix{
			ID:             orID(string(f.ID)),
			Title:          string(f.Title),
			Description:    string(f.Description),
			Priority:       priority,
			Category:       normalizeCategory(string(f.Category)),
			Impact:         normalizeLevel(string(f.Impact), priority),
			Effort:         normalizeLevel(string(f.Effort), "medium"),
			EstimatedTime:  string(f.EstimatedTime),
			Recommendation: string(f.Recommendation),
		})
	}

	for _, is := range in.Issues {
		severity := normalizeLevel(string(is.Severity), "medium")
		out.Issues = append(out.Issues, Issue{
			ID:             orID(string(is.ID)),
			Title:          string(is.Title),
			Description:    string(is.Description),
			Severity:       severity,
			Category:       normalizeCategory(string(is.Category)),
			Recommendation: string(is.Recommendation),
			Evidence:       orDefault(string(is.Evidence), defaultEvidence),
			Impact:         normalizeLevel(string(is.Impact), severity),
			Effort:         normalizeLevel(string(is.Effort), "medium"),
		})
	}
	// Older prompts only asked for violations.
	if len(out.Issues) == 0 {
		for _, v := range out.HeuristicViolations {
			out.Issues = append(out.Issues, Issue{
				ID:             uuid.NewString(),
				Title:          orDefault(v.Heuristic, "Heuristic violation"),
				Description:    v.Violation,
				Severity:       v.Severity,
				Category:       CategoryHeuristics,
				Recommendation: v.Recommendation,
				Evidence:       v.Evidence,
				Impact:         v.Severity,
				Effort:         "medium",
			})
		}
	}

	return out, nil
}

func categoryScore(r *rawScore) *Score {
	if r == nil {
		return nil
	}
	maxScore := r.MaxScore
	if maxScore <= 0 {
		maxScore = 5
		if r.Score > 5 {
			maxScore = 100
		}
	}
	score := math.Max(0, math.Min(r.Score, maxScore))
	pct := score / maxScore * 100
	return &Score{
		Score:      score,
		MaxScore:   maxScore,
		Percentage: pct,
		Grade:      CalculateGrade(pct),
	}
}

// overallScore sums the present categories. With none present the overall
// score is zero out of 100.
func overallScore(s Scores) Score {
	var sum, maxSum float64
	for _, c := range s.Categories() {
		sum += c.Score.Score
		maxSum += c.Score.MaxScore
	}
	if maxSum == 0 {
		return Score{Score: 0, MaxScore: 100, Percentage: 0, Grade: CalculateGrade(0)}
	}
	pct := math.Round(100 * sum / maxSum)
	return Score{
		Score:      sum,
		MaxScore:   maxSum,
		Percentage: pct,
		Grade:      CalculateGrade(pct),
	}
}

// CalculateGrade maps a percentage to a letter grade. Lower bounds are inclusive.
func CalculateGrade(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}

func MaturityLevel(percentage float64) string {
	switch {
	case percentage >= 90:
		return "expert"
	case percentage >= 80:
		return "advanced"
	case percentage >= 70:
		return "proficient"
	case percentage >= 60:
		return "developing"
	default:
		return "novice"
	}
}

// normalizeConfidence accepts 0-1 or 0-100 and clamps to 0-1.
func normalizeConfidence(c float64) float64 {
	if c > 1 && c <= 100 {
		c /= 100
	}
	return math.Max(0, math.Min(c, 1))
}

func normalizeLevel(v, fallback string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "critical", "high", "major", "severe":
		return "high"
	case "medium", "moderate":
		return "medium"
	case "low", "minor":
		return "low"
	}
	return fallback
}

func normalizeCategory(v string) string {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(v)))
	switch key {
	case "", "heuristic", "heuristics", "usability":
		return CategoryHeuristics
	case "uxlaws", "uxlaw", "laws":
		return CategoryUXLaws
	case "copy", "copywriting", "content":
		return CategoryCopywriting
	case "accessibility", "a11y":
		return CategoryAccessibility
	}
	return strings.TrimSpace(v)
}

func orID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
