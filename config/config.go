package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingOpenRouterKey = errors.New("OPENROUTER_API_KEY is required")
	ErrMissingGeminiKey     = errors.New("GEMINI_API_KEY is required")
	ErrUnknownProvider      = errors.New("unknown AI provider")
	ErrInvalidPort          = errors.New("invalid port")
	ErrInvalidTokenBudget   = errors.New("token budget must be positive")
)

type Settings struct {
	Server     ServerConfig
	Env        EnvConfig
	Crawler    CrawlerConfig
	Colly      CollyConfig
	AI         AIConfig
	Screenshot ScreenshotConfig
	Audit      AuditConfig
	Email      EmailConfig
	Admin      AdminConfig
	RateLimit  RateLimitConfig
	Favicon    FaviconConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	StaticDir       string
	MaxUploadBytes  int64
}

type EnvConfig struct {
	NodeEnv   string
	GinMode   string
	LogLevel  string
	VercelURL string
	VercelEnv string
}

type CrawlerConfig struct {
	UserAgent           string
	Timeout             time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
	MaxResponseBytes    int64
	SitemapMaxURLs      int
	SitemapMaxChildren  int
	ParseConcurrency    int
}

type CollyConfig struct {
	Enabled      bool
	UserAgent    string
	Delay        time.Duration
	RandomDelay  time.Duration
	Parallelism  int
	DomainGlob   string
	DebugMode    bool
	CacheEnabled bool
	CacheDir     string
	CacheTTL     time.Duration
}

type AIConfig struct {
	Provider          string
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string
	FallbackModels    []string
	GeminiAPIKey      string
	GeminiBaseURL     string
	GeminiModel       string
	Temperature       float64
	MaxTokens         int
	Timeout           time.Duration
	AppURL            string
	AppTitle          string
}

type ScreenshotConfig struct {
	Enabled      bool
	NavTimeout   time.Duration
	RetryTimeout time.Duration
	IdleWindow   time.Duration
	IdleCeiling  time.Duration
	SettleDelay  time.Duration
	ChromePath   string
	UserAgent    string
}

type AuditConfig struct {
	TokenBudget        int
	MaxPages           int
	Timeout            time.Duration
	DemoFallback       bool
	LinkDiscovery      bool
	MaxDiscoveredLinks int
}

type EmailConfig struct {
	BrevoAPIKey  string
	BrevoBaseURL string
	From         string
	FromName     string
	Timeout      time.Duration
}

type AdminConfig struct {
	Endpoint string
	Timeout  time.Duration
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type FaviconConfig struct {
	CacheTTL time.Duration
	Timeout  time.Duration
}

// Load reads .env files when present, then the process environment.
func Load() (*Settings, error) {
	_ = godotenv.Load(".env.development")
	_ = godotenv.Load(".env")

	cfg := fromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Settings {
	return &Settings{
		Server: ServerConfig{
			Port:            getEnv("PORT", "3001"),
			ReadTimeout:     getDurationEnv("READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("WRITE_TIMEOUT", 180*time.Second),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 15*time.Second),
			StaticDir:       getEnv("STATIC_DIR", "./public"),
			MaxUploadBytes:  int64(getIntEnv("MAX_UPLOAD_BYTES", 10<<20)),
		},
		Env: EnvConfig{
			NodeEnv:   getEnv("NODE_ENV", getEnv("APP_ENV", "development")),
			GinMode:   getEnv("GIN_MODE", ""),
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			VercelURL: getEnv("VERCEL_URL", ""),
			VercelEnv: getEnv("VERCEL_ENV", ""),
		},
		Crawler: CrawlerConfig{
			UserAgent:           getEnv("USER_AGENT", "Mozilla/5.0 (compatible; UXAuditor/1.0)"),
			Timeout:             getDurationEnv("CRAWLER_TIMEOUT", 10*time.Second),
			MaxIdleConns:        getIntEnv("MAX_IDLE_CONNS", 100),
			MaxIdleConnsPerHost: getIntEnv("MAX_IDLE_CONNS_PER_HOST", 10),
			IdleConnTimeout:     getDurationEnv("IDLE_CONN_TIMEOUT", 30*time.Second),
			TLSHandshakeTimeout: getDurationEnv("TLS_HANDSHAKE_TIMEOUT", 10*time.Second),
			MaxResponseBytes:    int64(getIntEnv("MAX_RESPONSE_BYTES", 5<<20)),
			SitemapMaxURLs:      getIntEnv("SITEMAP_MAX_URLS", 500),
			SitemapMaxChildren:  getIntEnv("SITEMAP_MAX_CHILDREN", 5),
			ParseConcurrency:    getIntEnv("PARSE_CONCURRENCY", 3),
		},
		Colly: CollyConfig{
			Enabled:      getBoolEnv("COLLY_ENABLED", true),
			UserAgent:    getEnv("COLLY_USER_AGENT", "Mozilla/5.0 (compatible; UXAuditor-Colly/1.0)"),
			Delay:        getDurationEnv("COLLY_DELAY", 0),
			RandomDelay:  getDurationEnv("COLLY_RANDOM_DELAY", 0),
			Parallelism:  getIntEnv("COLLY_PARALLELISM", 3),
			DomainGlob:   getEnv("COLLY_DOMAIN_GLOB", "*"),
			DebugMode:    getBoolEnv("COLLY_DEBUG", false),
			CacheEnabled: getBoolEnv("COLLY_CACHE_ENABLED", false),
			CacheDir:     getEnv("COLLY_CACHE_DIR", "./cache"),
			CacheTTL:     getDurationEnv("COLLY_CACHE_TTL", time.Hour),
		},
		AI: AIConfig{
			Provider:          strings.ToLower(getEnv("AI_PROVIDER", "openrouter")),
			OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
			OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			OpenRouterModel:   getEnv("OPENROUTER_MODEL", "google/gemini-2.0-flash-001"),
			FallbackModels: getListEnv("OPENROUTER_FALLBACK_MODELS", []string{
				"anthropic/claude-3.5-haiku",
				"openai/gpt-4o-mini",
			}),
			GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
			GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Temperature:   getFloatEnv("AI_TEMPERATURE", 0.3),
			MaxTokens:     getIntEnv("AI_MAX_TOKENS", 8000),
			Timeout:       getDurationEnv("AI_TIMEOUT", 120*time.Second),
			AppURL:        getEnv("APP_URL", "http://localhost:3001"),
			AppTitle:      getEnv("APP_TITLE", "UX Auditor"),
		},
		Screenshot: ScreenshotConfig{
			Enabled:      getBoolEnv("SCREENSHOT_ENABLED", true),
			NavTimeout:   getDurationEnv("SCREENSHOT_NAV_TIMEOUT", 30*time.Second),
			RetryTimeout: getDurationEnv("SCREENSHOT_RETRY_TIMEOUT", 15*time.Second),
			IdleWindow:   getDurationEnv("SCREENSHOT_IDLE_WINDOW", 500*time.Millisecond),
			IdleCeiling:  getDurationEnv("SCREENSHOT_IDLE_CEILING", 5*time.Second),
			SettleDelay:  getDurationEnv("SCREENSHOT_SETTLE_DELAY", 300*time.Millisecond),
			ChromePath:   getEnv("CHROME_PATH", ""),
			UserAgent: getEnv("SCREENSHOT_USER_AGENT",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"),
		},
		Audit: AuditConfig{
			TokenBudget:        getIntEnv("AUDIT_TOKEN_BUDGET", 6000),
			MaxPages:           getIntEnv("AUDIT_MAX_PAGES", 3),
			Timeout:            getDurationEnv("AUDIT_TIMEOUT", 170*time.Second),
			DemoFallback:       getBoolEnv("AUDIT_DEMO_FALLBACK", false),
			LinkDiscovery:      getBoolEnv("AUDIT_LINK_DISCOVERY", true),
			MaxDiscoveredLinks: getIntEnv("AUDIT_MAX_DISCOVERED_LINKS", 50),
		},
		Email: EmailConfig{
			BrevoAPIKey:  getEnv("BREVO_API_KEY", ""),
			BrevoBaseURL: getEnv("BREVO_BASE_URL", "https://api.brevo.com/v3"),
			From:         getEnv("EMAIL_FROM", ""),
			FromName:     getEnv("EMAIL_FROM_NAME", "UX Auditor"),
			Timeout:      getDurationEnv("EMAIL_TIMEOUT", 30*time.Second),
		},
		Admin: AdminConfig{
			Endpoint: getEnv("ADMIN_ENDPOINT", ""),
			Timeout:  getDurationEnv("ADMIN_TIMEOUT", 15*time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getFloatEnv("REQUESTS_PER_SECOND", 2.0),
			Burst:             getIntEnv("RATE_LIMIT_BURST", 10),
		},
		Favicon: FaviconConfig{
			CacheTTL: getDurationEnv("FAVICON_CACHE_TTL", 24*time.Hour),
			Timeout:  getDurationEnv("FAVICON_TIMEOUT", 5*time.Second),
		},
	}
}

func (s *Settings) Validate() error {
	port, err := strconv.Atoi(s.Server.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("%w: %q", ErrInvalidPort, s.Server.Port)
	}
	if s.Audit.TokenBudget <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTokenBudget, s.Audit.TokenBudget)
	}

	switch s.AI.Provider {
	case "openrouter":
		if s.AI.OpenRouterAPIKey == "" {
			return ErrMissingOpenRouterKey
		}
	case "gemini":
		if s.AI.GeminiAPIKey == "" {
			return ErrMissingGeminiKey
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, s.AI.Provider)
	}
	return nil
}

func (s *Settings) IsProduction() bool {
	return s.Env.NodeEnv == "production" || s.Env.VercelEnv == "production"
}

func (s *Settings) EmailEnabled() bool {
	return s.Email.BrevoAPIKey != "" && s.Email.From != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
