package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type OpenRouterProvider struct {
	config Config
	client *http.Client
}

func NewOpenRouterProvider(config Config) *OpenRouterProvider {
	if config.BaseURL == "" {
		config.BaseURL = "https://openrouter.ai/api/v1"
	}
	return &OpenRouterProvider{
		config: config,
		client: newHTTPClient(config.Timeout),
	}
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func (p *OpenRouterProvider) buildBody(model string, req Request) chatRequest {
	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}

	if req.HasImage() {
		messages = append(messages, chatMessage{
			Role: "user",
			Content: []chatContentPart{
				{Type: "text", Text: req.Prompt},
				{Type: "image_url", ImageURL: &chatImageURL{URL: req.imageDataURI()}},
			},
		})
	} else {
		messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})
	}

	return chatRequest{
		Model:          model,
		Messages:       messages,
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
}

func (p *OpenRouterProvider) Complete(ctx context.Context, model string, req Request) (string, error) {
	payload, err := json.Marshal(p.buildBody(model, req))
	if err != nil {
		return "", fmt.Errorf("error marshaling payload: %w", err)
	}

	endpoint := strings.TrimRight(p.config.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	if p.config.AppURL != "" {
		httpReq.Header.Set("HTTP-Referer", p.config.AppURL)
	}
	if p.config.AppTitle != "" {
		httpReq.Header.Set("X-Title", p.config.AppTitle)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openrouter request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("read openrouter response: %w", err)
	}

	var parsed chatResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if decodeErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", &APIError{Provider: p.Name(), StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode openrouter response: %w", decodeErr)
	}
	// OpenRouter sometimes reports upstream failures inside a 200 body.
	if parsed.Error != nil && parsed.Error.Message != "" {
		status := http.StatusBadGateway
		if code, ok := parsed.Error.Code.(float64); ok && code >= 400 {
			status = int(code)
		}
		return "", &APIError{Provider: p.Name(), StatusCode: status, Message: parsed.Error.Message}
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	return parsed.Choices[0].Message.Content, nil
}
