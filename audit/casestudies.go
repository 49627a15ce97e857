package audit

import (
	"sort"
	"strings"
	"unicode"
)

type CaseStudy struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Industry string   `json:"industry"`
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
	Priority int      `json:"priority"`
}

type CaseStudyQuery struct {
	Industry string
	Text     string
}

// CaseStudyWeights are the points each kind of match contributes.
type CaseStudyWeights struct {
	IndustryExact   float64
	IndustryPartial float64
	Keyword         float64
	Title           float64
	Priority        float64
}

var DefaultCaseStudyWeights = CaseStudyWeights{
	IndustryExact:   10,
	IndustryPartial: 5,
	Keyword:         3,
	Title:           2,
	Priority:        1,
}

const DefaultCaseStudyLimit = 3

var caseStudies = []CaseStudy{
	{
		ID: "fintech-onboarding", Title: "Cutting drop-off in a fintech onboarding flow",
		URL: "/case-studies/fintech-onboarding", Industry: "fintech",
		Summary:  "Reworked identity verification and account setup into a guided, resumable flow.",
		Keywords: []string{"onboarding", "signup", "kyc", "banking", "forms", "trust"}, Priority: 5,
	},
	{
		ID: "ecommerce-checkout", Title: "Simplifying checkout for a fashion retailer",
		URL: "/case-studies/ecommerce-checkout", Industry: "ecommerce",
		Summary:  "Reduced checkout to a single page with guest purchase and inline validation.",
		Keywords: []string{"checkout", "cart", "payment", "conversion", "retail", "forms"}, Priority: 5,
	},
	{
		ID: "saas-dashboard", Title: "Making a B2B analytics dashboard scannable",
		URL: "/case-studies/saas-dashboard", Industry: "saas",
		Summary:  "Restructured information hierarchy and empty states for a reporting product.",
		Keywords: []string{"dashboard", "analytics", "b2b", "data", "navigation", "onboarding"}, Priority: 4,
	},
	{
		ID: "healthcare-booking", Title: "Accessible appointment booking for a clinic network",
		URL: "/case-studies/healthcare-booking", Industry: "healthcare",
		Summary:  "Brought the booking journey to WCAG AA and halved time to book.",
		Keywords: []string{"booking", "appointments", "accessibility", "wcag", "forms", "patients"}, Priority: 4,
	},
	{
		ID: "edtech-course-discovery", Title: "Helping learners find the right course",
		URL: "/case-studies/edtech-course-discovery", Industry: "education",
		Summary:  "Introduced faceted search and outcome-led course pages.",
		Keywords: []string{"search", "courses", "learning", "filters", "content", "navigation"}, Priority: 3,
	},
	{
		ID: "travel-search", Title: "Clearer pricing in a travel search experience",
		URL: "/case-studies/travel-search", Industry: "travel",
		Summary:  "Removed hidden fees from results and made comparison easier.",
		Keywords: []string{"search", "pricing", "booking", "comparison", "trust", "mobile"}, Priority: 3,
	},
	{
		ID: "nonprofit-donations", Title: "Raising recurring donations for a charity",
		URL: "/case-studies/nonprofit-donations", Industry: "nonprofit",
		Summary:  "Rewrote donation copy and defaults to favour monthly giving.",
		Keywords: []string{"donation", "copywriting", "forms", "conversion", "trust", "landing"}, Priority: 2,
	},
	{
		ID: "realestate-listings", Title: "Mobile-first property listings",
		URL: "/case-studies/realestate-listings", Industry: "real estate",
		Summary:  "Redesigned listing cards and map interactions for small screens.",
		Keywords: []string{"listings", "mobile", "search", "maps", "filters", "images"}, Priority: 2,
	},
	{
		ID: "media-paywall", Title: "A paywall readers did not hate",
		URL: "/case-studies/media-paywall", Industry: "media",
		Summary:  "Metered access with transparent prompts improved subscriptions.",
		Keywords: []string{"subscription", "paywall", "content", "copywriting", "conversion", "pricing"}, Priority: 1,
	},
}

// CaseStudies returns a copy of the catalog.
func CaseStudies() []CaseStudy {
	out := make([]CaseStudy, len(caseStudies))
	copy(out, caseStudies)
	return out
}

func MatchCaseStudies(q CaseStudyQuery, limit int) []CaseStudy {
	return MatchCaseStudiesWith(caseStudies, q, limit, DefaultCaseStudyWeights)
}

// MatchCaseStudiesWith ranks catalog entries by additive match points. Ties
// keep catalog order. Entries with no industry or text match are only
// returned when the query is empty.
func MatchCaseStudiesWith(catalog []CaseStudy, q CaseStudyQuery, limit int, w CaseStudyWeights) []CaseStudy {
	if limit <= 0 {
		limit = DefaultCaseStudyLimit
	}

	industry := strings.ToLower(strings.TrimSpace(q.Industry))
	terms := tokenize(q.Text)
	emptyQuery := industry == "" && len(terms) == 0

	type scored struct {
		study CaseStudy
		score float64
	}
	var ranked []scored

	for _, cs := range catalog {
		var match float64
		csIndustry := strings.ToLower(cs.Industry)
		switch {
		case industry == "":
		case csIndustry == industry:
			match += w.IndustryExact
		case strings.Contains(csIndustry, industry) || strings.Contains(industry, csIndustry):
			match += w.IndustryPartial
		}

		title := strings.ToLower(cs.Title)
		for _, term := range terms {
			for _, kw := range cs.Keywords {
				if kw == term || strings.HasPrefix(term, kw) || strings.HasPrefix(kw, term) {
					match += w.Keyword
					break
				}
			}
			if strings.Contains(title, term) {
				match += w.Title
			}
		}

		if match == 0 && !emptyQuery {
			continue
		}
		ranked = append(ranked, scored{study: cs, score: match + w.Priority*float64(cs.Priority)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]CaseStudy, 0, limit)
	for _, r := range ranked {
		if len(out) == limit {
			break
		}
		out = append(out, r.study)
	}
	return out
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "our": true, "your": true,
	"that": true, "this": true, "are": true, "from": true, "www": true, "http": true, "https": true, "com": true,
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool)
	var out []string
	for _, f := range fields {
		if len(f) < 3 || stopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
