package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"ux-auditor/ai"
	"ux-auditor/audit"
	"ux-auditor/cache"
	"ux-auditor/config"
	"ux-auditor/crawler"
	"ux-auditor/delivery"
	"ux-auditor/screenshot"
)

type Auditor interface {
	AuditURL(ctx context.Context, req audit.Request) audit.Outcome
	AuditImage(ctx context.Context, req audit.Request) audit.Outcome
}

type ReportSharer interface {
	Share(ctx context.Context, req delivery.ShareRequest) (*delivery.ShareResult, error)
}

type FaviconResolver interface {
	Resolve(ctx context.Context, pageURL string) (string, bool)
}

// Services is everything the HTTP layer calls into.
type Services struct {
	Auditor  Auditor
	Sharer   ReportSharer
	Favicons FaviconResolver

	pages *cache.PageStore
	icons *cache.TTL[string]
	shots *screenshot.Service

	closeOnce sync.Once
}

// Close releases the browser and the favicon cache.
func (s *Services) Close() {
	s.closeOnce.Do(func() {
		s.shots.Close()
		if s.icons != nil {
			_ = s.icons.Close()
		}
	})
}

func newProvider(cfg config.AIConfig) (ai.Provider, ai.ClientConfig, error) {
	clientCfg := ai.ClientConfig{
		Temperature:    cfg.Temperature,
		MaxTokens:      cfg.MaxTokens,
		AttemptTimeout: cfg.Timeout,
	}
	providerCfg := ai.Config{AppURL: cfg.AppURL, AppTitle: cfg.AppTitle, Timeout: cfg.Timeout}

	switch cfg.Provider {
	case "openrouter":
		providerCfg.APIKey = cfg.OpenRouterAPIKey
		providerCfg.BaseURL = cfg.OpenRouterBaseURL
		clientCfg.Model = cfg.OpenRouterModel
		clientCfg.FallbackModels = cfg.FallbackModels
		return ai.NewOpenRouterProvider(providerCfg), clientCfg, nil
	case "gemini":
		providerCfg.APIKey = cfg.GeminiAPIKey
		providerCfg.BaseURL = cfg.GeminiBaseURL
		clientCfg.Model = cfg.GeminiModel
		return ai.NewGeminiProvider(providerCfg), clientCfg, nil
	}
	return nil, clientCfg, fmt.Errorf("%w: %s", config.ErrUnknownProvider, cfg.Provider)
}

func newServices(cfg *config.Settings, logger *log.Logger) (*Services, error) {
	pages, err := cache.NewPageStore(cfg.Colly.CacheDir, cfg.Colly.CacheTTL, cfg.Colly.CacheEnabled)
	if err != nil {
		return nil, fmt.Errorf("page cache: %w", err)
	}

	fetcher := crawler.NewPageFetcher(crawler.FetcherConfig{
		UserAgent:           cfg.Crawler.UserAgent,
		Timeout:             cfg.Crawler.Timeout,
		MaxIdleConns:        cfg.Crawler.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Crawler.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.Crawler.IdleConnTimeout,
		TLSHandshakeTimeout: cfg.Crawler.TLSHandshakeTimeout,
		MaxResponseBytes:    cfg.Crawler.MaxResponseBytes,
	}, pages, logger)

	collyCfg := crawler.CollyConfig{
		Enabled:        cfg.Colly.Enabled,
		UserAgent:      cfg.Colly.UserAgent,
		Delay:          cfg.Colly.Delay,
		RandomDelay:    cfg.Colly.RandomDelay,
		Parallelism:    cfg.Colly.Parallelism,
		DomainGlob:     cfg.Colly.DomainGlob,
		DebugMode:      cfg.Colly.DebugMode,
		RequestTimeout: cfg.Crawler.Timeout,
		MaxBodySize:    int(cfg.Crawler.MaxResponseBytes),
	}
	docs := crawler.NewPageFetcherWithBackend(cfg.Colly.Enabled, collyCfg, fetcher)

	provider, clientCfg, err := newProvider(cfg.AI)
	if err != nil {
		return nil, err
	}
	client := ai.NewClient(provider, clientCfg, logger)

	shots := screenshot.NewService(screenshot.Config{
		Enabled:      cfg.Screenshot.Enabled,
		NavTimeout:   cfg.Screenshot.NavTimeout,
		RetryTimeout: cfg.Screenshot.RetryTimeout,
		IdleWindow:   cfg.Screenshot.IdleWindow,
		IdleCeiling:  cfg.Screenshot.IdleCeiling,
		SettleDelay:  cfg.Screenshot.SettleDelay,
		ChromePath:   cfg.Screenshot.ChromePath,
		UserAgent:    cfg.Screenshot.UserAgent,
	}, logger)

	icons, err := cache.NewTTL[string](cfg.Favicon.CacheTTL)
	if err != nil {
		return nil, err
	}
	favicons := crawler.NewFaviconResolver(docs, fetcher, icons, logger).WithTimeout(cfg.Favicon.Timeout)

	auditor := audit.NewService(audit.Config{
		TokenBudget:   cfg.Audit.TokenBudget,
		MaxPages:      cfg.Audit.MaxPages,
		Timeout:       cfg.Audit.Timeout,
		DemoFallback:  cfg.Audit.DemoFallback,
		LinkDiscovery: cfg.Audit.LinkDiscovery,
	}, audit.Deps{
		Sitemaps: crawler.NewSitemapService(fetcher, crawler.SitemapConfig{
			MaxURLs:     cfg.Crawler.SitemapMaxURLs,
			MaxChildren: cfg.Crawler.SitemapMaxChildren,
		}, logger),
		Parser:      crawler.NewHTMLParser(docs, cfg.Crawler.ParseConcurrency, cfg.Crawler.Timeout, logger),
		Links:       crawler.NewLinkDiscoverer(collyCfg, cfg.Audit.MaxDiscoveredLinks, logger),
		Screenshots: shots,
		Favicons:    favicons,
		Analyzer:    client,
	}, logger)

	mailer := delivery.NewBrevoMailer(delivery.EmailConfig{
		APIKey:   cfg.Email.BrevoAPIKey,
		BaseURL:  cfg.Email.BrevoBaseURL,
		From:     cfg.Email.From,
		FromName: cfg.Email.FromName,
		Timeout:  cfg.Email.Timeout,
	}, logger)
	if !mailer.Configured() {
		logger.Warn("Email is not configured; share-report requests will fail")
	}
	archiver := delivery.NewArchiver(cfg.Admin.Endpoint, cfg.Admin.Timeout, logger)

	logger.Info("Services ready",
		"provider", provider.Name(),
		"models", client.Models(),
		"colly", cfg.Colly.Enabled,
		"screenshots", shots.Enabled(),
		"pageCache", pages.Enabled(),
		"archive", archiver.Configured(),
	)

	return &Services{
		Auditor:  auditor,
		Sharer:   delivery.NewSharer(mailer, archiver, logger),
		Favicons: favicons,
		pages:    pages,
		icons:    icons,
		shots:    shots,
	}, nil
}

// sweepPageCache drops expired page cache entries until ctx is done.
func (s *Services) sweepPageCache(ctx context.Context, every time.Duration, logger *log.Logger) {
	if !s.pages.Enabled() || every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.pages.CleanExpired()
			if err != nil {
				logger.Warn("Page cache sweep failed", "err", err)
				continue
			}
			stats := s.pages.Stats()
			logger.Debug("Page cache swept", "removed", removed, "files", stats.TotalFiles, "bytes", stats.TotalSize)
		}
	}
}
