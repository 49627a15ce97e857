package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/mail"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"ux-auditor/audit"
)

var ErrInvalidShareRequest = errors.New("invalid share request")

const (
	DBStatusSaved   = "saved"
	DBStatusFailed  = "failed"
	DBStatusSkipped = "skipped"
)

type Mailer interface {
	Send(ctx context.Context, email Email) error
}

type ReportArchiver interface {
	Archive(ctx context.Context, rec ArchiveRecord) error
}

type ShareRequest struct {
	AuditData      *audit.AuditData `json:"auditData"`
	RecipientEmail string           `json:"recipientEmail"`
	RecipientName  string           `json:"recipientName"`
	PlatformName   string           `json:"platformName"`
}

type ShareResult struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
	DBStatus  string    `json:"dbStatus"`
}

// Sharer renders a report to PDF, emails it and archives a copy. Email
// failure fails the share; archive failure is only logged.
type Sharer struct {
	mailer   Mailer
	archiver ReportArchiver
	logger   *log.Logger
}

// NewSharer accepts a nil archiver, in which case archiving is skipped.
func NewSharer(mailer Mailer, archiver ReportArchiver, logger *log.Logger) *Sharer {
	return &Sharer{
		mailer:   mailer,
		archiver: archiver,
		logger:   logger.With("component", "share"),
	}
}

func (s *Sharer) Share(ctx context.Context, req ShareRequest) (*ShareResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	platform := req.PlatformName
	if platform == "" {
		platform = "UX Auditor"
	}

	pdf, err := RenderPDF(req.AuditData, platform)
	if err != nil {
		return nil, err
	}
	fileName := ReportFileName(req.AuditData)

	html, err := renderEmail(emailView{
		Name:     req.RecipientName,
		Platform: platform,
		URL:      req.AuditData.URL,
		Score:    fmt.Sprintf("%.0f%%", req.AuditData.Scores.Overall.Percentage),
		Grade:    req.AuditData.Scores.Overall.Grade,
		Summary:  req.AuditData.ExecutiveSummary,
	})
	if err != nil {
		return nil, err
	}

	var (
		wg         sync.WaitGroup
		emailErr   error
		archiveErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		emailErr = s.mailer.Send(ctx, Email{
			To:          req.RecipientEmail,
			ToName:      req.RecipientName,
			Subject:     fmt.Sprintf("Your UX audit report from %s", platform),
			HTML:        html,
			Attachments: []Attachment{{Name: fileName, Content: pdf}},
		})
	}()

	dbStatus := DBStatusSkipped
	if s.archiver != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			archiveErr = s.archiver.Archive(ctx, ArchiveRecord{
				Timestamp:      time.Now().UTC(),
				RecipientEmail: req.RecipientEmail,
				RecipientName:  req.RecipientName,
				PlatformName:   platform,
				URL:            req.AuditData.URL,
				Score:          req.AuditData.Scores.Overall.Percentage,
				Grade:          req.AuditData.Scores.Overall.Grade,
				FileName:       fileName,
				PDF:            pdf,
			})
		}()
	}
	wg.Wait()

	if s.archiver != nil {
		switch {
		case errors.Is(archiveErr, ErrArchiveNotConfigured):
		case archiveErr != nil:
			dbStatus = DBStatusFailed
			s.logger.Warn("Archiving report failed", "file", fileName, "err", archiveErr)
		default:
			dbStatus = DBStatusSaved
		}
	}

	if emailErr != nil {
		return nil, fmt.Errorf("send report email: %w", emailErr)
	}

	s.logger.Info("Report shared", "to", req.RecipientEmail, "dbStatus", dbStatus, "pdfBytes", len(pdf))
	return &ShareResult{
		Success:   true,
		Message:   "Report sent successfully",
		To:        req.RecipientEmail,
		Timestamp: time.Now().UTC(),
		DBStatus:  dbStatus,
	}, nil
}

func (r ShareRequest) validate() error {
	if r.AuditData == nil {
		return fmt.Errorf("%w: auditData is required", ErrInvalidShareRequest)
	}
	if strings.TrimSpace(r.RecipientEmail) == "" {
		return fmt.Errorf("%w: recipientEmail is required", ErrInvalidShareRequest)
	}
	if _, err := mail.ParseAddress(r.RecipientEmail); err != nil {
		return fmt.Errorf("%w: recipientEmail is not a valid address", ErrInvalidShareRequest)
	}
	return nil
}

// ReportFileName is ux-audit-<host>-<date>.pdf, or ux-audit-<date>.pdf for
// image audits.
func ReportFileName(report *audit.AuditData) string {
	date := report.Timestamp.Format("2006-01-02")
	if report.Timestamp.IsZero() {
		date = time.Now().UTC().Format("2006-01-02")
	}
	if u, err := url.Parse(report.URL); err == nil && u.Hostname() != "" {
		host := strings.ReplaceAll(strings.TrimPrefix(u.Hostname(), "www."), ".", "-")
		return fmt.Sprintf("ux-audit-%s-%s.pdf", host, date)
	}
	return fmt.Sprintf("ux-audit-%s.pdf", date)
}

type emailView struct {
	Name     string
	Platform string
	URL      string
	Score    string
	Grade    string
	Summary  string
}

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html><body style="font-family: Helvetica, Arial, sans-serif; color: #212529;">
<p>Hi{{if .Name}} {{.Name}}{{end}},</p>
<p>Your UX audit report from {{.Platform}}{{if .URL}} for <a href="{{.URL}}">{{.URL}}</a>{{end}} is attached as a PDF.</p>
<p><strong>Overall score: {{.Score}} ({{.Grade}})</strong></p>
{{if .Summary}}<p>{{.Summary}}</p>{{end}}
<p>Thanks,<br>{{.Platform}}</p>
</body></html>`))

func renderEmail(v emailView) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}
