package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"ux-auditor/cache"
	"ux-auditor/logging"
)

type FetcherConfig struct {
	UserAgent           string
	Timeout             time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
	MaxResponseBytes    int64
}

// Page is a raw HTTP response body with the headers callers care about.
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Getter fetches raw bodies. Sitemap and robots discovery only need this.
type Getter interface {
	Get(ctx context.Context, pageURL string) (*Page, error)
}

// DocumentFetcher fetches and parses an HTML page.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error)
}

type PageFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	store     *cache.PageStore
	logger    *log.Logger
}

func NewPageFetcher(cfg FetcherConfig, store *cache.PageStore, logger *log.Logger) *PageFetcher {
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = 5 << 20
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (compatible; UXAuditor/1.0)"
	}

	return &PageFetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        cfg.MaxIdleConns,
				MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
				IdleConnTimeout:     cfg.IdleConnTimeout,
				TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
				ForceAttemptHTTP2:   true,
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxResponseBytes,
		store:     store,
		logger:    logger.With("component", "fetcher"),
	}
}

// NewPageFetcherWithBackend picks colly or plain net/http for HTML pages.
func NewPageFetcherWithBackend(useColly bool, collyConfig CollyConfig, fetcher *PageFetcher) DocumentFetcher {
	if useColly {
		return NewCollyPageFetcher(collyConfig, fetcher.store, fetcher.logger)
	}
	return fetcher
}

func (f *PageFetcher) Get(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,text/plain;q=0.8,*/*;q=0.7")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Page{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// Probe reports whether a HEAD request for pageURL succeeds.
func (f *PageFetcher) Probe(ctx context.Context, pageURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, pageURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (f *PageFetcher) FetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if entry, ok := f.store.Get(pageURL); ok {
		f.logger.Debug("page cache hit", "url", pageURL)
		return goquery.NewDocumentFromReader(strings.NewReader(entry.Body))
	}

	page, err := f.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if ct := strings.ToLower(page.ContentType); ct != "" && !strings.Contains(ct, "html") {
		return nil, fmt.Errorf("response is not HTML: content-type %s", page.ContentType)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	if f.store.Enabled() {
		if err := f.store.Put(pageURL, string(page.Body), map[string]string{"Content-Type": page.ContentType}); err != nil {
			f.logger.Warn("page cache write failed", "url", pageURL, "err", err)
		}
	}

	return doc, nil
}
