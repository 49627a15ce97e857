package crawler

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"ux-auditor/cache"
	"ux-auditor/logging"
)

var iconSelectors = []string{
	"link[rel='icon']",
	"link[rel='shortcut icon']",
	"link[rel='apple-touch-icon']",
	"link[rel~='icon']",
}

type prober interface {
	Probe(ctx context.Context, pageURL string) bool
}

// FaviconResolver finds a site's icon URL. Results are cached per origin.
type FaviconResolver struct {
	docs    DocumentFetcher
	probe   prober
	cache   *cache.TTL[string]
	timeout time.Duration
	logger  *log.Logger
}

func NewFaviconResolver(docs DocumentFetcher, probe prober, c *cache.TTL[string], logger *log.Logger) *FaviconResolver {
	if logger == nil {
		logger = logging.Discard()
	}
	return &FaviconResolver{
		docs:   docs,
		probe:  probe,
		cache:  c,
		logger: logger.With("component", "favicon"),
	}
}

// WithTimeout bounds each uncached lookup. Zero leaves only the caller's deadline.
func (r *FaviconResolver) WithTimeout(d time.Duration) *FaviconResolver {
	r.timeout = d
	return r
}

// GoogleFaviconURL is the last-resort icon for a host.
func GoogleFaviconURL(host string) string {
	return "https://www.google.com/s2/favicons?domain=" + url.QueryEscape(host) + "&sz=64"
}

// Resolve returns the icon URL and whether it came from the cache. It always
// returns a usable URL.
func (r *FaviconResolver) Resolve(ctx context.Context, pageURL string) (string, bool) {
	base, err := origin(pageURL)
	if err != nil {
		return GoogleFaviconURL(pageURL), false
	}
	key := base.String()

	if icon, ok := r.cache.Get(key); ok {
		return icon, true
	}

	icon := r.lookup(ctx, base)
	r.cache.Set(key, icon)
	return icon, false
}

func (r *FaviconResolver) lookup(ctx context.Context, base *url.URL) string {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if doc, err := r.docs.FetchDocument(ctx, base.String()+"/"); err == nil {
		for _, sel := range iconSelectors {
			href, ok := doc.Find(sel).First().Attr("href")
			href = strings.TrimSpace(href)
			if !ok || href == "" {
				continue
			}
			if ref, err := url.Parse(href); err == nil {
				return base.ResolveReference(ref).String()
			}
		}
	} else {
		r.logger.Debug("favicon page fetch failed", "origin", base.String(), "err", err)
	}

	ico := base.ResolveReference(&url.URL{Path: "/favicon.ico"}).String()
	if r.probe != nil && r.probe.Probe(ctx, ico) {
		return ico
	}

	return GoogleFaviconURL(base.Hostname())
}
