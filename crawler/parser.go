package crawler

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"ux-auditor/extract"
	"ux-auditor/logging"
)

type HTMLParser struct {
	fetcher     DocumentFetcher
	concurrency int
	pageTimeout time.Duration
	logger      *log.Logger
}

func NewHTMLParser(fetcher DocumentFetcher, concurrency int, pageTimeout time.Duration, logger *log.Logger) *HTMLParser {
	if logger == nil {
		logger = logging.Discard()
	}
	if concurrency <= 0 {
		concurrency = 3
	}
	if pageTimeout <= 0 {
		pageTimeout = 10 * time.Second
	}
	return &HTMLParser{
		fetcher:     fetcher,
		concurrency: concurrency,
		pageTimeout: pageTimeout,
		logger:      logger.With("component", "html-parser"),
	}
}

func (p *HTMLParser) ParsePage(ctx context.Context, pageURL string) (extract.PageContext, error) {
	ctx, cancel := context.WithTimeout(ctx, p.pageTimeout)
	defer cancel()

	doc, err := p.fetcher.FetchDocument(ctx, pageURL)
	if err != nil {
		return extract.EmptyPageContext(pageURL, err), err
	}
	return extract.PageContextFromDocument(doc, pageURL), nil
}

// ParseMultiplePages returns one PageContext per URL in input order. A page
// that cannot be fetched becomes an empty PageContext instead of an error.
func (p *HTMLParser) ParseMultiplePages(ctx context.Context, urls []string) []extract.PageContext {
	results := make([]extract.PageContext, len(urls))

	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)

	for i, pageURL := range urls {
		g.Go(func() error {
			pc, err := p.ParsePage(ctx, pageURL)
			if err != nil {
				p.logger.Warn("page parse failed, using empty context", "url", pageURL, "err", err)
			}
			results[i] = pc
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// PageMarkdown returns the page body as markdown for the single-page prompt.
func (p *HTMLParser) PageMarkdown(ctx context.Context, pageURL string) (extract.PageContext, string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.pageTimeout)
	defer cancel()

	doc, err := p.fetcher.FetchDocument(ctx, pageURL)
	if err != nil {
		return extract.EmptyPageContext(pageURL, err), "", err
	}
	return extract.PageContextFromDocument(doc, pageURL), extract.Markdown(doc), nil
}
