package crawler

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gocolly/colly/v2"

	"ux-auditor/logging"
)

// linkSources are the places a site keeps links to its important pages.
var linkSources = []struct {
	selector string
	context  string
}{
	{"nav a[href]", "navigation"},
	{"header a[href]", "header"},
	{"footer a[href]", "footer"},
	{".menu a[href]", "menu-class"},
	{".nav a[href]", "nav-class"},
	{".navbar a[href]", "navbar-class"},
	{".main-nav a[href]", "main-nav-class"},
	{".breadcrumb a[href]", "breadcrumb"},
	{"main a[href]", "main-content"},
	{"article a[href]", "articles"},
	{".cta[href]", "cta-class"},
	{".btn[href]", "btn-class"},
	{"link[rel='alternate'][hreflang]", "hreflang"},
}

// LinkDiscoverer collects same-site links from a single page. It backs the
// audit when a site publishes no sitemap.
type LinkDiscoverer struct {
	config   CollyConfig
	maxLinks int
	logger   *log.Logger
}

func NewLinkDiscoverer(config CollyConfig, maxLinks int, logger *log.Logger) *LinkDiscoverer {
	if logger == nil {
		logger = logging.Discard()
	}
	if maxLinks <= 0 {
		maxLinks = 50
	}
	return &LinkDiscoverer{
		config:   config,
		maxLinks: maxLinks,
		logger:   logger.With("component", "link-discovery"),
	}
}

func (ld *LinkDiscoverer) DiscoverLinks(ctx context.Context, pageURL string) ([]string, error) {
	base, err := parseHTTPURL(pageURL)
	if err != nil {
		return nil, err
	}

	c := newCollector(ctx, ld.config)
	c.MaxDepth = 1

	var mu sync.Mutex
	found := make(map[string]string)

	for _, source := range linkSources {
		via := source.context
		c.OnHTML(source.selector, func(e *colly.HTMLElement) {
			href := e.Attr("href")
			if shouldSkipURL(href) {
				return
			}

			parsed, err := url.Parse(e.Request.AbsoluteURL(href))
			if err != nil || !isSameDomain(parsed, base) {
				return
			}
			parsed.Fragment = ""
			parsed.RawQuery = ""
			clean := parsed.String()
			if !isPageURL(clean) {
				return
			}

			mu.Lock()
			if _, ok := found[NormalizeURL(clean)]; !ok {
				found[NormalizeURL(clean)] = clean
				ld.logger.Debug("link found", "via", via, "url", clean)
			}
			mu.Unlock()
		})
	}

	var visitErr error
	c.OnError(func(r *colly.Response, err error) {
		visitErr = fmt.Errorf("link discovery failed for %s: %w", r.Request.URL, err)
	})

	if err := c.Visit(base.String()); err != nil {
		return nil, fmt.Errorf("failed to start link discovery: %w", err)
	}
	c.Wait()

	if visitErr != nil {
		return nil, visitErr
	}

	self := NormalizeURL(base.String())
	links := make([]string, 0, len(found))
	for key, u := range found {
		if key != self {
			links = append(links, u)
		}
	}
	sort.Strings(links)
	if len(links) > ld.maxLinks {
		links = links[:ld.maxLinks]
	}

	ld.logger.Info("links discovered", "url", pageURL, "count", len(links))
	return links, nil
}

// AsSitemap turns discovered links into candidates for page selection.
func AsSitemap(links []string) []SitemapURL {
	out := make([]SitemapURL, len(links))
	for i, l := range links {
		out[i] = SitemapURL{URL: l, Priority: DefaultPriority}
	}
	return out
}
