package config

import (
	"errors"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-key")

	cfg := fromEnv()

	if cfg.Server.Port != "3001" {
		t.Errorf("Expected default port 3001, got %s", cfg.Server.Port)
	}

	if cfg.Audit.TokenBudget != 6000 {
		t.Errorf("Expected default token budget 6000, got %d", cfg.Audit.TokenBudget)
	}

	if cfg.Audit.MaxPages != 3 {
		t.Errorf("Expected default max pages 3, got %d", cfg.Audit.MaxPages)
	}

	if cfg.AI.Provider != "openrouter" {
		t.Errorf("Expected default provider openrouter, got %s", cfg.AI.Provider)
	}

	if len(cfg.AI.FallbackModels) == 0 {
		t.Error("Expected default fallback models")
	}

	if cfg.Audit.DemoFallback {
		t.Error("Expected demo fallback to be disabled by default")
	}
}

func TestFromEnvWithEnvVars(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("REQUESTS_PER_SECOND", "2.5")
	t.Setenv("OPENROUTER_FALLBACK_MODELS", "a/one, b/two ,,")
	t.Setenv("AUDIT_DEMO_FALLBACK", "true")

	cfg := fromEnv()

	if cfg.Server.Port != "9000" {
		t.Errorf("Expected port 9000 from env, got %s", cfg.Server.Port)
	}

	if cfg.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("Expected rate limit 2.5 from env, got %f", cfg.RateLimit.RequestsPerSecond)
	}

	if len(cfg.AI.FallbackModels) != 2 || cfg.AI.FallbackModels[1] != "b/two" {
		t.Errorf("Unexpected fallback models %v", cfg.AI.FallbackModels)
	}

	if !cfg.Audit.DemoFallback {
		t.Error("Expected demo fallback enabled from env")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr error
	}{
		{
			name:   "Valid openrouter",
			mutate: func(s *Settings) { s.AI.OpenRouterAPIKey = "k" },
		},
		{
			name:    "Missing openrouter key",
			mutate:  func(s *Settings) { s.AI.OpenRouterAPIKey = "" },
			wantErr: ErrMissingOpenRouterKey,
		},
		{
			name: "Missing gemini key",
			mutate: func(s *Settings) {
				s.AI.Provider = "gemini"
				s.AI.GeminiAPIKey = ""
			},
			wantErr: ErrMissingGeminiKey,
		},
		{
			name: "Unknown provider",
			mutate: func(s *Settings) {
				s.AI.Provider = "other"
			},
			wantErr: ErrUnknownProvider,
		},
		{
			name: "Bad port",
			mutate: func(s *Settings) {
				s.AI.OpenRouterAPIKey = "k"
				s.Server.Port = "abc"
			},
			wantErr: ErrInvalidPort,
		},
		{
			name: "Zero token budget",
			mutate: func(s *Settings) {
				s.AI.OpenRouterAPIKey = "k"
				s.Audit.TokenBudget = 0
			},
			wantErr: ErrInvalidTokenBudget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fromEnv()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsProduction(t *testing.T) {
	cfg := fromEnv()
	cfg.Env.NodeEnv = "production"
	if !cfg.IsProduction() {
		t.Error("Expected production for NODE_ENV=production")
	}

	cfg.Env.NodeEnv = "development"
	cfg.Env.VercelEnv = "production"
	if !cfg.IsProduction() {
		t.Error("Expected production for VERCEL_ENV=production")
	}
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("TEST_DURATION", "5s")
	duration := getDurationEnv("TEST_DURATION", 10*time.Second)
	if duration != 5*time.Second {
		t.Errorf("Expected 5s, got %v", duration)
	}

	t.Setenv("TEST_DURATION", "invalid")
	duration = getDurationEnv("TEST_DURATION", 10*time.Second)
	if duration != 10*time.Second {
		t.Errorf("Expected default 10s for invalid duration, got %v", duration)
	}

	t.Setenv("TEST_DURATION", "")
	duration = getDurationEnv("TEST_DURATION", 15*time.Second)
	if duration != 15*time.Second {
		t.Errorf("Expected default 15s for missing env var, got %v", duration)
	}
}
