package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ux-auditor/audit"
	"ux-auditor/logging"
)

func sampleReport(t *testing.T) *audit.AuditData {
	t.Helper()
	report := audit.DemoReport("https://www.example.com/pricing", time.Second)
	report.Timestamp = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	return report
}

func TestRenderPDF(t *testing.T) {
	report := sampleReport(t)
	report.ExecutiveSummary = "Résumé with “smart quotes” and accents"

	data, err := RenderPDF(report, "Acme UX")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "output should be a PDF")
	assert.Greater(t, len(data), 1000)

	_, err = RenderPDF(nil, "x")
	assert.Error(t, err)
}

func TestReportFileName(t *testing.T) {
	report := sampleReport(t)
	assert.Equal(t, "ux-audit-example-com-2025-03-14.pdf", ReportFileName(report))

	report.URL = ""
	assert.Equal(t, "ux-audit-2025-03-14.pdf", ReportFileName(report))
}

func TestBrevoMailerSend(t *testing.T) {
	var got brevoMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/smtp/email", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"messageId":"<abc@brevo>"}`)
	}))
	defer srv.Close()

	m := NewBrevoMailer(EmailConfig{APIKey: "secret", BaseURL: srv.URL + "/v3", From: "audits@example.com", FromName: "Audits"}, logging.Discard())
	err := m.Send(context.Background(), Email{
		To: "jo@example.com", ToName: "Jo", Subject: "Report", HTML: "<p>hi</p>",
		Attachments: []Attachment{{Name: "r.pdf", Content: []byte("%PDF-1.3")}},
	})
	require.NoError(t, err)

	assert.Equal(t, "audits@example.com", got.Sender.Email)
	require.Len(t, got.To, 1)
	assert.Equal(t, "jo@example.com", got.To[0].Email)
	require.Len(t, got.Attachment, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF-1.3")), got.Attachment[0].Content)
}

func TestBrevoMailerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"code":"unauthorized","message":"Key not found"}`)
	}))
	defer srv.Close()

	m := NewBrevoMailer(EmailConfig{APIKey: "bad", BaseURL: srv.URL, From: "a@b.c"}, logging.Discard())
	err := m.Send(context.Background(), Email{To: "x@y.z"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Key not found")

	unconfigured := NewBrevoMailer(EmailConfig{}, logging.Discard())
	assert.ErrorIs(t, unconfigured.Send(context.Background(), Email{To: "x@y.z"}), ErrEmailNotConfigured)
}

func TestArchiver(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewArchiver(srv.URL, time.Second, logging.Discard())
	err := a.Archive(context.Background(), ArchiveRecord{FileName: "r.pdf", RecipientEmail: "jo@example.com", PDF: []byte("pdf")})
	require.NoError(t, err)
	assert.Equal(t, "r.pdf", payload["fileName"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("pdf")), payload["pdfBase64"])
	assert.NotContains(t, payload, "PDF")

	var nilArchiver *Archiver
	assert.ErrorIs(t, nilArchiver.Archive(context.Background(), ArchiveRecord{}), ErrArchiveNotConfigured)
}

func TestArchiverStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewArchiver(srv.URL, time.Second, logging.Discard()).Archive(context.Background(), ArchiveRecord{})
	assert.ErrorContains(t, err, "502")
}

type fakeMailer struct {
	err   error
	calls atomic.Int32
	last  Email
}

func (f *fakeMailer) Send(_ context.Context, e Email) error {
	f.calls.Add(1)
	f.last = e
	return f.err
}

type fakeArchiver struct{ err error }

func (f fakeArchiver) Archive(context.Context, ArchiveRecord) error { return f.err }

func TestShare(t *testing.T) {
	tests := []struct {
		name       string
		mailErr    error
		archiver   ReportArchiver
		wantErr    bool
		wantStatus string
	}{
		{"saved", nil, fakeArchiver{}, false, DBStatusSaved},
		{"archive failure is not fatal", nil, fakeArchiver{err: errors.New("down")}, false, DBStatusFailed},
		{"archive not configured", nil, fakeArchiver{err: ErrArchiveNotConfigured}, false, DBStatusSkipped},
		{"no archiver", nil, nil, false, DBStatusSkipped},
		{"email failure is fatal", errors.New("smtp down"), fakeArchiver{}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := &fakeMailer{err: tt.mailErr}
			s := NewSharer(mailer, tt.archiver, logging.Discard())

			res, err := s.Share(context.Background(), ShareRequest{
				AuditData:      sampleReport(t),
				RecipientEmail: "jo@example.com",
				RecipientName:  "Jo <script>",
				PlatformName:   "Acme UX",
			})
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			assert.True(t, res.Success)
			assert.Equal(t, "jo@example.com", res.To)
			assert.Equal(t, tt.wantStatus, res.DBStatus)

			require.Equal(t, int32(1), mailer.calls.Load())
			assert.Contains(t, mailer.last.Subject, "Acme UX")
			assert.Contains(t, mailer.last.HTML, "Jo &lt;script&gt;")
			require.Len(t, mailer.last.Attachments, 1)
			assert.Equal(t, "ux-audit-example-com-2025-03-14.pdf", mailer.last.Attachments[0].Name)
		})
	}
}

func TestShareValidation(t *testing.T) {
	s := NewSharer(&fakeMailer{}, nil, logging.Discard())

	_, err := s.Share(context.Background(), ShareRequest{RecipientEmail: "jo@example.com"})
	assert.ErrorIs(t, err, ErrInvalidShareRequest)

	_, err = s.Share(context.Background(), ShareRequest{AuditData: sampleReport(t), RecipientEmail: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidShareRequest)
}
