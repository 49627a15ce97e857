package ai

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"
)

// Provider sends one completion request to a specific model.
type Provider interface {
	Name() string
	Complete(ctx context.Context, model string, req Request) (string, error)
}

type Request struct {
	System      string
	Prompt      string
	Image       []byte
	ImageMIME   string
	Temperature float64
	MaxTokens   int
}

func (r Request) HasImage() bool {
	return len(r.Image) > 0
}

func (r Request) withoutImage() Request {
	r.Image = nil
	r.ImageMIME = ""
	return r
}

func (r Request) imageMIME() string {
	if r.ImageMIME == "" {
		return "image/jpeg"
	}
	return r.ImageMIME
}

func (r Request) imageDataURI() string {
	return "data:" + r.imageMIME() + ";base64," + base64.StdEncoding.EncodeToString(r.Image)
}

type Config struct {
	APIKey   string
	BaseURL  string
	AppURL   string
	AppTitle string
	Timeout  time.Duration
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
