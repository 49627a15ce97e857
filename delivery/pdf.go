package delivery

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"ux-auditor/audit"
)

const (
	pageMargin = 15.0
	lineHeight = 5.5
)

var categoryLabels = map[string]string{
	audit.CategoryHeuristics:    "Usability heuristics",
	audit.CategoryUXLaws:        "UX laws",
	audit.CategoryCopywriting:   "Copywriting",
	audit.CategoryAccessibility: "Accessibility",
}

// RenderPDF lays the report out as an A4 document.
func RenderPDF(report *audit.AuditData, platformName string) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("render pdf: no report")
	}
	if platformName == "" {
		platformName = "UX Auditor"
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin+5)
	pdf.AliasNbPages("")
	pdf.SetTitle(tr("UX Audit Report"), false)
	pdf.SetCreator(tr(platformName), false)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pageMargin)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("%s - page %d/{nb}", platformName, pdf.PageNo())), "", 0, "C", false, 0, "")
	})

	r := &renderer{pdf: pdf, tr: tr}
	pdf.AddPage()

	r.title(report, platformName)
	r.scores(report.Scores)
	r.section("Executive summary")
	r.paragraph(report.ExecutiveSummary)

	if len(report.KeyInsights) > 0 {
		r.section("Key insights")
		for _, in := range report.KeyInsights {
			r.bullet(in)
		}
	}

	if len(report.PrioritizedFixes) > 0 {
		r.section("Prioritized fixes")
		for i, f := range report.PrioritizedFixes {
			r.heading(fmt.Sprintf("%d. %s", i+1, f.Title))
			r.meta(fmt.Sprintf("Priority: %s | Impact: %s | Effort: %s", f.Priority, f.Impact, f.Effort), f.EstimatedTime)
			r.paragraph(f.Description)
			if f.Recommendation != "" {
				r.paragraph("Recommendation: " + f.Recommendation)
			}
		}
	}

	if len(report.Issues) > 0 {
		r.section("Issues")
		for _, is := range report.Issues {
			r.heading(fmt.Sprintf("[%s] %s", strings.ToUpper(is.Severity), is.Title))
			r.meta("Category: "+labelFor(is.Category), "")
			r.paragraph(is.Description)
			if is.Recommendation != "" {
				r.paragraph("Recommendation: " + is.Recommendation)
			}
		}
	}

	if len(report.HeuristicViolations) > 0 {
		r.section("Heuristic violations")
		for _, v := range report.HeuristicViolations {
			r.heading(fmt.Sprintf("%s (%s)", v.Heuristic, v.Severity))
			if v.Element != "" {
				r.meta("Element: "+v.Element, "")
			}
			r.paragraph(v.Violation)
			if v.Recommendation != "" {
				r.paragraph("Recommendation: " + v.Recommendation)
			}
		}
	}

	if j := report.PersonaDrivenJourney; j != nil && len(j.Steps) > 0 {
		r.section("Persona journey: " + j.Persona)
		r.paragraph(j.PersonaDescription)
		for _, st := range j.Steps {
			r.heading(fmt.Sprintf("Step %d: %s", st.Step, st.Action))
			if st.EmotionalState != "" {
				r.meta("Feeling: "+st.EmotionalState, "")
			}
			for _, is := range st.Issues {
				r.bullet("Issue: " + is)
			}
			for _, im := range st.Improvements {
				r.bullet("Improve: " + im)
			}
		}
		r.paragraph(j.OverallExperience)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type renderer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (r *renderer) title(report *audit.AuditData, platformName string) {
	r.pdf.SetFont("Helvetica", "B", 20)
	r.pdf.SetTextColor(33, 37, 41)
	r.pdf.CellFormat(0, 10, r.tr("UX Audit Report"), "", 1, "L", false, 0, "")

	r.pdf.SetFont("Helvetica", "", 10)
	r.pdf.SetTextColor(108, 117, 125)
	target := report.URL
	if target == "" {
		target = "Uploaded screenshot"
	}
	r.pdf.CellFormat(0, 6, r.tr(target), "", 1, "L", false, 0, "")
	r.pdf.CellFormat(0, 6, r.tr(fmt.Sprintf("%s | %s", platformName, report.Timestamp.Format("2 January 2006"))), "", 1, "L", false, 0, "")
	r.pdf.Ln(4)
}

func (r *renderer) scores(s audit.Scores) {
	r.pdf.SetFont("Helvetica", "B", 14)
	r.pdf.SetTextColor(33, 37, 41)
	r.pdf.CellFormat(0, 8, r.tr(fmt.Sprintf("Overall score: %.0f%% (%s)", s.Overall.Percentage, s.Overall.Grade)), "", 1, "L", false, 0, "")
	r.pdf.Ln(1)

	r.pdf.SetFont("Helvetica", "B", 10)
	r.pdf.SetFillColor(233, 236, 239)
	r.pdf.CellFormat(90, 7, "Category", "1", 0, "L", true, 0, "")
	r.pdf.CellFormat(30, 7, "Score", "1", 0, "C", true, 0, "")
	r.pdf.CellFormat(30, 7, "Percent", "1", 0, "C", true, 0, "")
	r.pdf.CellFormat(30, 7, "Grade", "1", 1, "C", true, 0, "")

	r.pdf.SetFont("Helvetica", "", 10)
	for _, c := range s.Categories() {
		r.pdf.CellFormat(90, 7, r.tr(labelFor(c.Name)), "1", 0, "L", false, 0, "")
		r.pdf.CellFormat(30, 7, fmt.Sprintf("%g / %g", c.Score.Score, c.Score.MaxScore), "1", 0, "C", false, 0, "")
		r.pdf.CellFormat(30, 7, fmt.Sprintf("%.0f%%", c.Score.Percentage), "1", 0, "C", false, 0, "")
		r.pdf.CellFormat(30, 7, c.Score.Grade, "1", 1, "C", false, 0, "")
	}
	r.pdf.Ln(4)
}

func (r *renderer) section(name string) {
	r.pdf.Ln(2)
	r.pdf.SetFont("Helvetica", "B", 13)
	r.pdf.SetTextColor(13, 110, 253)
	r.pdf.CellFormat(0, 8, r.tr(name), "B", 1, "L", false, 0, "")
	r.pdf.Ln(2)
}

func (r *renderer) heading(text string) {
	r.pdf.SetFont("Helvetica", "B", 11)
	r.pdf.SetTextColor(33, 37, 41)
	r.pdf.MultiCell(0, lineHeight+0.5, r.tr(text), "", "L", false)
}

func (r *renderer) meta(text, extra string) {
	if extra != "" {
		text += " | " + extra
	}
	r.pdf.SetFont("Helvetica", "I", 9)
	r.pdf.SetTextColor(108, 117, 125)
	r.pdf.MultiCell(0, lineHeight, r.tr(text), "", "L", false)
}

func (r *renderer) paragraph(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	r.pdf.SetFont("Helvetica", "", 10)
	r.pdf.SetTextColor(33, 37, 41)
	r.pdf.MultiCell(0, lineHeight, r.tr(text), "", "L", false)
	r.pdf.Ln(1.5)
}

func (r *renderer) bullet(text string) {
	r.pdf.SetFont("Helvetica", "", 10)
	r.pdf.SetTextColor(33, 37, 41)
	r.pdf.CellFormat(5, lineHeight, "-", "", 0, "L", false, 0, "")
	r.pdf.MultiCell(0, lineHeight, r.tr(text), "", "L", false)
}

func labelFor(category string) string {
	if l, ok := categoryLabels[category]; ok {
		return l
	}
	return category
}
