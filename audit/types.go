package audit

import "time"

// Score is one category (or the overall) score. Percentage and Grade are
// always derived from Score and MaxScore, never taken from the model.
type Score struct {
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"maxScore"`
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`
}

type Scores struct {
	Overall       Score  `json:"overall"`
	Heuristics    *Score `json:"heuristics,omitempty"`
	UXLaws        *Score `json:"uxLaws,omitempty"`
	Copywriting   *Score `json:"copywriting,omitempty"`
	Accessibility *Score `json:"accessibility,omitempty"`
}

type NamedScore struct {
	Name  string
	Score *Score
}

// Categories returns the category scores that are present, in display order.
func (s Scores) Categories() []NamedScore {
	var out []NamedScore
	for _, name := range CategoryOrder {
		if sc := s.category(name); sc != nil {
			out = append(out, NamedScore{Name: name, Score: sc})
		}
	}
	return out
}

func (s Scores) category(name string) *Score {
	switch name {
	case CategoryHeuristics:
		return s.Heuristics
	case CategoryUXLaws:
		return s.UXLaws
	case CategoryCopywriting:
		return s.Copywriting
	case CategoryAccessibility:
		return s.Accessibility
	}
	return nil
}

const (
	CategoryHeuristics    = "heuristics"
	CategoryUXLaws        = "uxLaws"
	CategoryCopywriting   = "copywriting"
	CategoryAccessibility = "accessibility"
)

// CategoryOrder is the order categories are shown in reports.
var CategoryOrder = []string{CategoryHeuristics, CategoryUXLaws, CategoryCopywriting, CategoryAccessibility}

type Issue struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Severity       string `json:"severity"`
	Category       string `json:"category"`
	Recommendation string `json:"recommendation"`
	Evidence       string `json:"evidence"`
	Impact         string `json:"impact"`
	Effort         string `json:"effort"`
}

type JourneyStep struct {
	Step           int      `json:"step"`
	Action         string   `json:"action"`
	UserGoal       string   `json:"userGoal"`
	EmotionalState string   `json:"emotionalState"`
	Issues         []string `json:"issues"`
	Improvements   []string `json:"improvements"`
}

type PersonaJourney struct {
	Persona            string        `json:"persona"`
	PersonaDescription string        `json:"personaDescription"`
	Steps              []JourneyStep `json:"steps"`
	OverallExperience  string        `json:"overallExperience"`
}

type HeuristicViolation struct {
	ID             string `json:"id"`
	Heuristic      string `json:"heuristic"`
	Element        string `json:"element"`
	Violation      string `json:"violation"`
	Severity       string `json:"severity"`
	Recommendation string `json:"recommendation"`
	Evidence       string `json:"evidence"`
}

type Fix struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Priority       string `json:"priority"`
	Category       string `json:"category"`
	Impact         string `json:"impact"`
	Effort         string `json:"effort"`
	EstimatedTime  string `json:"estimatedTime"`
	Recommendation string `json:"recommendation"`
}

type Metadata struct {
	Model           string   `json:"model"`
	ProcessingTime  int64    `json:"processingTime"`
	PagesAnalyzed   []string `json:"pagesAnalyzed"`
	DiscoveredPages int      `json:"discoveredPages"`
	Confidence      float64  `json:"confidence"`
	AuditType       string   `json:"auditType"`
	ImageAnalyzed   bool     `json:"imageAnalyzed"`
	FaviconURL      string   `json:"faviconUrl,omitempty"`
}

const (
	AuditTypeContextual = "contextual"
	AuditTypeBaseline   = "baseline"
	AuditTypeImage      = "image"
	AuditTypeDemo       = "demo"
)

// AuditData is the report returned to clients. It is built once by Normalize
// and not modified afterwards except for request-level metadata.
type AuditData struct {
	ID                   string               `json:"id"`
	URL                  string               `json:"url,omitempty"`
	Timestamp            time.Time            `json:"timestamp"`
	ExecutiveSummary     string               `json:"executiveSummary"`
	Summary              string               `json:"summary"`
	Confidence           float64              `json:"confidence"`
	MaturityLevel        string               `json:"maturityLevel"`
	Scores               Scores               `json:"scores"`
	Issues               []Issue              `json:"issues"`
	KeyInsights          []string             `json:"keyInsights"`
	PersonaDrivenJourney *PersonaJourney      `json:"personaDrivenJourney,omitempty"`
	HeuristicViolations  []HeuristicViolation `json:"heuristicViolations"`
	PrioritizedFixes     []Fix                `json:"prioritizedFixes"`
	AnalysisMetadata     Metadata             `json:"analysisMetadata"`
	Status               Status               `json:"status"`
	DegradedReason       string               `json:"degradedReason,omitempty"`
}
