package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"ux-auditor/logging"
)

type Response struct {
	Raw          json.RawMessage
	Model        string
	ImageDropped bool
}

// Client runs a request against an ordered model list, moving to the next
// model only when the current one is rate limited or out of credit.
type Client struct {
	provider       Provider
	models         []string
	temperature    float64
	maxTokens      int
	attemptTimeout time.Duration
	logger         *log.Logger
}

type ClientConfig struct {
	Model          string
	FallbackModels []string
	Temperature    float64
	MaxTokens      int
	AttemptTimeout time.Duration
}

func NewClient(provider Provider, cfg ClientConfig, logger *log.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}

	var models []string
	seen := make(map[string]bool)
	for _, m := range append([]string{cfg.Model}, cfg.FallbackModels...) {
		if m != "" && !seen[m] {
			seen[m] = true
			models = append(models, m)
		}
	}

	return &Client{
		provider:       provider,
		models:         models,
		temperature:    cfg.Temperature,
		maxTokens:      cfg.MaxTokens,
		attemptTimeout: cfg.AttemptTimeout,
		logger:         logger.With("component", "ai", "provider", provider.Name()),
	}
}

func (c *Client) Models() []string {
	return c.models
}

func (c *Client) Analyze(ctx context.Context, req Request) (*Response, error) {
	if len(c.models) == 0 {
		return nil, errors.New("no AI model configured")
	}
	if req.Temperature == 0 {
		req.Temperature = c.temperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.maxTokens
	}

	var lastErr error
	for _, model := range c.models {
		text, dropped, err := c.completeWithImageRetry(ctx, model, req)
		if err != nil {
			lastErr = err
			if IsRateLimited(err) && ctx.Err() == nil {
				c.logger.Warn("model rate limited, trying next", "model", model, "err", err)
				continue
			}
			return nil, err
		}

		raw, err := ExtractJSON(text)
		if err != nil {
			c.logger.Error("unparseable AI response", "model", model, "err", err)
			return nil, err
		}

		c.logger.Info("AI analysis complete", "model", model, "imageDropped", dropped, "bytes", len(raw))
		return &Response{Raw: raw, Model: model, ImageDropped: dropped}, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrRateLimited, lastErr)
}

func (c *Client) completeWithImageRetry(ctx context.Context, model string, req Request) (string, bool, error) {
	text, err := c.attempt(ctx, model, req)
	if err == nil || !req.HasImage() || !IsImageUnsupported(err) || IsRateLimited(err) {
		return text, false, err
	}

	c.logger.Warn("model rejected image, retrying text only", "model", model, "err", err)
	text, err = c.attempt(ctx, model, req.withoutImage())
	return text, true, err
}

func (c *Client) attempt(ctx context.Context, model string, req Request) (string, error) {
	if c.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.provider.Complete(ctx, model, req)
	c.logger.Debug("AI attempt", "model", model, "image", req.HasImage(), "duration", time.Since(start), "err", err)
	return text, err
}
