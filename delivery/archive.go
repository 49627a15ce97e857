package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

var ErrArchiveNotConfigured = errors.New("admin endpoint is not configured")

// ArchiveRecord is what the admin endpoint stores for each shared report.
type ArchiveRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	RecipientEmail string    `json:"recipientEmail"`
	RecipientName  string    `json:"recipientName"`
	PlatformName   string    `json:"platformName"`
	URL            string    `json:"url"`
	Score          float64   `json:"score"`
	Grade          string    `json:"grade"`
	FileName       string    `json:"fileName"`
	PDF            []byte    `json:"-"`
}

type archivePayload struct {
	ArchiveRecord
	PDFBase64 string `json:"pdfBase64"`
}

// Archiver posts shared reports to an external admin endpoint.
type Archiver struct {
	endpoint string
	client   *http.Client
	logger   *log.Logger
}

func NewArchiver(endpoint string, timeout time.Duration, logger *log.Logger) *Archiver {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Archiver{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With("component", "archive"),
	}
}

func (a *Archiver) Configured() bool {
	return a != nil && a.endpoint != ""
}

func (a *Archiver) Archive(ctx context.Context, rec ArchiveRecord) error {
	if !a.Configured() {
		return ErrArchiveNotConfigured
	}

	jsonData, err := json.Marshal(archivePayload{
		ArchiveRecord: rec,
		PDFBase64:     base64.StdEncoding.EncodeToString(rec.PDF),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("admin endpoint failed with status: %d", resp.StatusCode)
	}
	a.logger.Info("Report archived", "file", rec.FileName, "recipient", rec.RecipientEmail)
	return nil
}
