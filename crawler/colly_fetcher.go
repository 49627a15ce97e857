package crawler

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/debug"

	"ux-auditor/cache"
	"ux-auditor/logging"
)

type CollyConfig struct {
	Enabled        bool
	UserAgent      string
	Delay          time.Duration
	RandomDelay    time.Duration
	Parallelism    int
	DomainGlob     string
	DebugMode      bool
	RequestTimeout time.Duration
	MaxBodySize    int
}

type CollyPageFetcher struct {
	config CollyConfig
	store  *cache.PageStore
	logger *log.Logger
}

func NewCollyPageFetcher(config CollyConfig, store *cache.PageStore, logger *log.Logger) *CollyPageFetcher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &CollyPageFetcher{
		config: config,
		store:  store,
		logger: logger.With("component", "colly-fetcher"),
	}
}

// newCollector builds a fresh collector per call so callbacks never leak between requests.
func newCollector(ctx context.Context, config CollyConfig) *colly.Collector {
	c := colly.NewCollector(colly.StdlibContext(ctx))

	if config.UserAgent != "" {
		c.UserAgent = config.UserAgent
	}

	if config.Delay > 0 || config.Parallelism > 0 {
		glob := config.DomainGlob
		if glob == "" {
			glob = "*"
		}
		_ = c.Limit(&colly.LimitRule{
			DomainGlob:  glob,
			Parallelism: config.Parallelism,
			Delay:       config.Delay,
			RandomDelay: config.RandomDelay,
		})
	}

	if config.DebugMode {
		c.SetDebugger(&debug.LogDebugger{})
	}

	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c.SetRequestTimeout(timeout)

	if config.MaxBodySize > 0 {
		c.MaxBodySize = config.MaxBodySize
	}

	return c
}

func (cpf *CollyPageFetcher) FetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if entry, ok := cpf.store.Get(pageURL); ok {
		return goquery.NewDocumentFromReader(strings.NewReader(entry.Body))
	}

	c := newCollector(ctx, cpf.config)

	var body []byte
	var contentType string
	var fetchError error

	c.OnResponse(func(r *colly.Response) {
		contentType = r.Headers.Get("Content-Type")
		if !strings.Contains(strings.ToLower(contentType), "html") {
			fetchError = fmt.Errorf("response is not HTML: content-type %s", contentType)
			return
		}
		body = r.Body
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchError = fmt.Errorf("colly fetch error for %s: %w", r.Request.URL, err)
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("colly visit failed: %w", err)
	}
	c.Wait()

	if fetchError != nil {
		return nil, fetchError
	}
	if body == nil {
		return nil, fmt.Errorf("no document retrieved for %s", pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	if cpf.store.Enabled() {
		if err := cpf.store.Put(pageURL, string(body), map[string]string{"Content-Type": contentType}); err != nil {
			cpf.logger.Warn("page cache write failed", "url", pageURL, "err", err)
		}
	}

	return doc, nil
}
