package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/charmbracelet/log"
	"github.com/temoto/robotstxt"
	"golang.org/x/sync/errgroup"

	"ux-auditor/logging"
)

const (
	DefaultPriority  = 0.5
	MaxSelectedPages = 3
	maxIndexDepth    = 2
)

type SitemapURL struct {
	URL        string  `json:"url"`
	Priority   float64 `json:"priority"`
	LastMod    string  `json:"lastmod,omitempty"`
	ChangeFreq string  `json:"changefreq,omitempty"`
}

type SitemapConfig struct {
	MaxURLs     int
	MaxChildren int
}

type sourceKind int

const (
	sourceXML sourceKind = iota
	sourceText
	sourceRobots
)

var sitemapSources = []struct {
	path string
	kind sourceKind
}{
	{"/sitemap.xml", sourceXML},
	{"/sitemap_index.xml", sourceXML},
	{"/sitemap.txt", sourceText},
	{"/robots.txt", sourceRobots},
}

type SitemapService struct {
	getter Getter
	config SitemapConfig
	logger *log.Logger
}

func NewSitemapService(getter Getter, config SitemapConfig, logger *log.Logger) *SitemapService {
	if logger == nil {
		logger = logging.Discard()
	}
	if config.MaxURLs <= 0 {
		config.MaxURLs = 500
	}
	if config.MaxChildren <= 0 {
		config.MaxChildren = 5
	}
	return &SitemapService{
		getter: getter,
		config: config,
		logger: logger.With("component", "sitemap"),
	}
}

// FallbackSitemap is what ExtractSitemap returns when no source yields URLs.
func FallbackSitemap(baseURL string) []SitemapURL {
	return []SitemapURL{{URL: baseURL, Priority: 1.0}}
}

// IsFallback reports whether urls is the single-entry result of a failed discovery.
func IsFallback(urls []SitemapURL, baseURL string) bool {
	return len(urls) == 1 && urls[0].URL == baseURL && urls[0].Priority == 1.0
}

// ExtractSitemap tries sitemap.xml, sitemap_index.xml, sitemap.txt and
// robots.txt in that order; the first source yielding URLs wins. It never
// fails: on total failure it returns FallbackSitemap(baseURL).
func (s *SitemapService) ExtractSitemap(ctx context.Context, baseURL string) []SitemapURL {
	base, err := origin(baseURL)
	if err != nil {
		s.logger.Warn("sitemap skipped", "url", baseURL, "err", err)
		return FallbackSitemap(baseURL)
	}

	for _, src := range sitemapSources {
		if ctx.Err() != nil {
			break
		}
		sourceURL := base.ResolveReference(&url.URL{Path: src.path}).String()

		page, err := s.getter.Get(ctx, sourceURL)
		if err != nil {
			s.logger.Debug("sitemap source unavailable", "source", sourceURL, "err", err)
			continue
		}

		var found []SitemapURL
		switch src.kind {
		case sourceXML:
			found, err = s.parseXML(ctx, page.Body, 0)
		case sourceText:
			found = parseText(page.Body)
		case sourceRobots:
			found, err = s.parseRobots(ctx, page.Body)
		}
		if err != nil {
			s.logger.Debug("sitemap source unparseable", "source", sourceURL, "err", err)
			continue
		}

		found = s.clean(found, base)
		if len(found) > 0 {
			s.logger.Info("sitemap discovered", "source", sourceURL, "urls", len(found))
			return found
		}
	}

	s.logger.Info("no sitemap found, using audited URL only", "url", baseURL)
	return FallbackSitemap(baseURL)
}

func (s *SitemapService) parseXML(ctx context.Context, data []byte, depth int) ([]SitemapURL, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse sitemap XML: %w", err)
	}

	var children []string
	for _, loc := range xmlquery.Find(doc, "//*[local-name()='sitemap']/*[local-name()='loc']") {
		if text := strings.TrimSpace(loc.InnerText()); text != "" {
			children = append(children, text)
		}
	}
	if len(children) > 0 {
		if depth >= maxIndexDepth {
			return nil, nil
		}
		return s.fetchChildren(ctx, children, depth+1), nil
	}

	var urls []SitemapURL
	for _, n := range xmlquery.Find(doc, "//*[local-name()='url']") {
		loc := xmlquery.FindOne(n, "./*[local-name()='loc']")
		if loc == nil {
			continue
		}
		entry := SitemapURL{
			URL:      strings.TrimSpace(loc.InnerText()),
			Priority: DefaultPriority,
		}
		if p := xmlquery.FindOne(n, "./*[local-name()='priority']"); p != nil {
			if v, err := strconv.ParseFloat(strings.TrimSpace(p.InnerText()), 64); err == nil && v >= 0 && v <= 1 {
				entry.Priority = v
			}
		}
		if lm := xmlquery.FindOne(n, "./*[local-name()='lastmod']"); lm != nil {
			entry.LastMod = strings.TrimSpace(lm.InnerText())
		}
		if cf := xmlquery.FindOne(n, "./*[local-name()='changefreq']"); cf != nil {
			entry.ChangeFreq = strings.TrimSpace(cf.InnerText())
		}
		urls = append(urls, entry)
	}
	return urls, nil
}

// fetchChildren loads child sitemaps concurrently and concatenates them in input order.
func (s *SitemapService) fetchChildren(ctx context.Context, locs []string, depth int) []SitemapURL {
	if len(locs) > s.config.MaxChildren {
		locs = locs[:s.config.MaxChildren]
	}

	results := make([][]SitemapURL, len(locs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)

	for i, loc := range locs {
		g.Go(func() error {
			page, err := s.getter.Get(gctx, loc)
			if err != nil {
				s.logger.Debug("child sitemap unavailable", "source", loc, "err", err)
				return nil
			}
			if looksLikeXML(loc, page) {
				found, err := s.parseXML(gctx, page.Body, depth)
				if err != nil {
					s.logger.Debug("child sitemap unparseable", "source", loc, "err", err)
					return nil
				}
				results[i] = found
			} else {
				results[i] = parseText(page.Body)
			}
			return nil
		})
	}
	_ = g.Wait()

	var all []SitemapURL
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

// parseRobots follows every Sitemap: directive and waits for all of them.
func (s *SitemapService) parseRobots(ctx context.Context, data []byte) ([]SitemapURL, error) {
	robots, err := robotstxt.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	if len(robots.Sitemaps) == 0 {
		return nil, nil
	}
	return s.fetchChildren(ctx, robots.Sitemaps, 0), nil
}

func parseText(data []byte) []SitemapURL {
	var urls []SitemapURL
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			urls = append(urls, SitemapURL{URL: line, Priority: DefaultPriority})
		}
	}
	return urls
}

func looksLikeXML(loc string, page *Page) bool {
	if strings.Contains(strings.ToLower(page.ContentType), "xml") {
		return true
	}
	if strings.HasSuffix(strings.ToLower(loc), ".xml") {
		return true
	}
	return bytes.HasPrefix(bytes.TrimSpace(page.Body), []byte("<"))
}

// clean keeps same-site page URLs, drops duplicates and applies the size cap.
func (s *SitemapService) clean(urls []SitemapURL, base *url.URL) []SitemapURL {
	out := make([]SitemapURL, 0, len(urls))
	seen := make(map[string]bool)

	for _, u := range urls {
		parsed, err := url.Parse(u.URL)
		if err != nil || !isSameDomain(parsed, base) || !isPageURL(u.URL) {
			continue
		}
		key := NormalizeURL(u.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, u)
		if len(out) >= s.config.MaxURLs {
			break
		}
	}
	return out
}

// RankWeights are the tunable constants of the URL relevance score.
type RankWeights struct {
	ExactMatch    float64
	Home          float64
	SameSection   float64
	DeepPath      float64
	DeepPathDepth int
	Query         float64
	Limit         int
}

var DefaultRankWeights = RankWeights{
	ExactMatch:    10,
	Home:          5,
	SameSection:   3,
	DeepPath:      -1,
	DeepPathDepth: 3,
	Query:         -0.5,
	Limit:         10,
}

func ScoreURL(candidate SitemapURL, auditURL string, w RankWeights) float64 {
	score := candidate.Priority

	cu, err := url.Parse(candidate.URL)
	if err != nil {
		return score
	}
	au, _ := url.Parse(auditURL)

	if NormalizeURL(candidate.URL) == NormalizeURL(auditURL) {
		score += w.ExactMatch
	}
	if isRootPath(cu) {
		score += w.Home
	}
	if au != nil {
		if seg := firstSegment(au); seg != "" && firstSegment(cu) == seg {
			score += w.SameSection
		}
	}
	if len(pathSegments(cu)) > w.DeepPathDepth {
		score += w.DeepPath
	}
	if cu.RawQuery != "" {
		score += w.Query
	}
	return score
}

// PrioritizeURLs ranks urls by relevance to auditURL and keeps the top ten.
// Ties keep their sitemap order.
func PrioritizeURLs(urls []SitemapURL, auditURL string) []SitemapURL {
	return PrioritizeURLsWith(urls, auditURL, DefaultRankWeights)
}

func PrioritizeURLsWith(urls []SitemapURL, auditURL string, w RankWeights) []SitemapURL {
	type scored struct {
		url   SitemapURL
		score float64
	}

	ranked := make([]scored, len(urls))
	for i, u := range urls {
		ranked[i] = scored{url: u, score: ScoreURL(u, auditURL, w)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	limit := w.Limit
	if limit <= 0 || limit > len(ranked) {
		limit = len(ranked)
	}
	out := make([]SitemapURL, limit)
	for i := range out {
		out[i] = ranked[i].url
	}
	return out
}

// OptimalPageSelection returns the audited URL first, then the home page when
// the sitemap has a distinct one, then one sibling from the same section or
// with priority above 0.8. The result never exceeds MaxSelectedPages.
func OptimalPageSelection(urls []SitemapURL, auditURL string, maxPages int) []string {
	if maxPages <= 0 || maxPages > MaxSelectedPages {
		maxPages = MaxSelectedPages
	}

	selected := []string{auditURL}
	seen := map[string]bool{NormalizeURL(auditURL): true}

	au, err := url.Parse(auditURL)
	if err != nil {
		return selected
	}
	ranked := PrioritizeURLs(urls, auditURL)

	add := func(u string) {
		if len(selected) < maxPages {
			selected = append(selected, u)
			seen[NormalizeURL(u)] = true
		}
	}

	for _, r := range ranked {
		cu, err := url.Parse(r.URL)
		if err != nil || seen[NormalizeURL(r.URL)] {
			continue
		}
		if isRootPath(cu) && isSameDomain(cu, au) {
			add(r.URL)
			break
		}
	}

	section := firstSegment(au)
	for _, r := range ranked {
		cu, err := url.Parse(r.URL)
		if err != nil || seen[NormalizeURL(r.URL)] {
			continue
		}
		if (section != "" && firstSegment(cu) == section) || r.Priority > 0.8 {
			add(r.URL)
			break
		}
	}

	return selected
}
