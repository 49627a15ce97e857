package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiComplete(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "key1", r.URL.Query().Get("key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"a\":"},{"text":"1}"}]}}]}`))
	}))
	defer srv.Close()

	p := NewGeminiProvider(Config{APIKey: "key1", BaseURL: srv.URL})
	text, err := p.Complete(context.Background(), "gemini-test", Request{System: "sys", Prompt: "hi", Image: []byte("x"), ImageMIME: "image/png"})

	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, text)
	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 2)
	assert.Equal(t, "image/png", got.Contents[0].Parts[1].InlineData.MimeType)
	assert.Equal(t, "sys", got.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "application/json", got.GenerationConfig["responseMimeType"])
}

func TestGeminiRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted (e.g. check quota).","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	p := NewGeminiProvider(Config{APIKey: "k", BaseURL: srv.URL})
	_, err := p.Complete(context.Background(), "m", Request{Prompt: "p"})

	assert.True(t, IsRateLimited(err))
}
