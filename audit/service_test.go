package audit

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ux-auditor/ai"
	"ux-auditor/crawler"
	"ux-auditor/extract"
	"ux-auditor/logging"
)

const validAudit = `{"executiveSummary":"ok","scores":{"heuristics":4,"uxLaws":4,"copywriting":4,"accessibility":4},"issues":[{"title":"x"}]}`

type fakeSitemaps struct{ urls []crawler.SitemapURL }

func (f fakeSitemaps) ExtractSitemap(_ context.Context, base string) []crawler.SitemapURL {
	if f.urls == nil {
		return crawler.FallbackSitemap(base)
	}
	return f.urls
}

type fakeParser struct {
	failTarget bool
	failAll    bool
}

func (f fakeParser) page(u string) extract.PageContext {
	pc := extract.EmptyPageContext(u, nil)
	pc.Head.Title = "Title of " + u
	return pc
}

func (f fakeParser) ParsePage(_ context.Context, u string) (extract.PageContext, error) {
	if f.failTarget || f.failAll {
		err := errors.New("connection refused")
		return extract.EmptyPageContext(u, err), err
	}
	return f.page(u), nil
}

func (f fakeParser) ParseMultiplePages(_ context.Context, urls []string) []extract.PageContext {
	out := make([]extract.PageContext, len(urls))
	for i, u := range urls {
		if f.failAll {
			out[i] = extract.EmptyPageContext(u, errors.New("connection refused"))
			continue
		}
		out[i] = f.page(u)
	}
	return out
}

func (f fakeParser) PageMarkdown(_ context.Context, u string) (extract.PageContext, string, error) {
	if f.failAll {
		err := errors.New("connection refused")
		return extract.EmptyPageContext(u, err), "", err
	}
	return f.page(u), "# Heading", nil
}

type fakeLinks struct{ links []string }

func (f fakeLinks) DiscoverLinks(context.Context, string) ([]string, error) { return f.links, nil }

type fakeShots struct {
	enabled bool
	err     error
}

func (f fakeShots) Enabled() bool { return f.enabled }

func (f fakeShots) CaptureWebsite(context.Context, string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("jpeg"), nil
}

type fakeFavicons struct{}

func (fakeFavicons) Resolve(context.Context, string) (string, bool) {
	return "https://example.com/favicon.ico", false
}

// scriptedAnalyzer answers each call with the next scripted result and
// records the requests it saw.
type scriptedAnalyzer struct {
	mu       sync.Mutex
	results  []error
	requests []ai.Request
}

func (a *scriptedAnalyzer) Analyze(_ context.Context, req ai.Request) (*ai.Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.requests)
	a.requests = append(a.requests, req)
	if n < len(a.results) && a.results[n] != nil {
		return nil, a.results[n]
	}
	return &ai.Response{Raw: []byte(validAudit), Model: "test-model"}, nil
}

func newTestService(cfg Config, deps Deps) *Service {
	if deps.Sitemaps == nil {
		deps.Sitemaps = fakeSitemaps{}
	}
	if deps.Analyzer == nil {
		deps.Analyzer = &scriptedAnalyzer{}
	}
	return NewService(cfg, deps, logging.Discard())
}

func TestAuditURLContextual(t *testing.T) {
	analyzer := &scriptedAnalyzer{}
	svc := newTestService(Config{}, Deps{
		Sitemaps: fakeSitemaps{urls: []crawler.SitemapURL{
			{URL: "https://example.com/", Priority: 1},
			{URL: "https://example.com/pricing", Priority: 0.9},
			{URL: "https://example.com/blog/post", Priority: 0.3},
		}},
		Parser:      fakeParser{},
		Screenshots: fakeShots{enabled: true},
		Favicons:    fakeFavicons{},
		Analyzer:    analyzer,
	})

	out := svc.AuditURL(context.Background(), Request{URL: "https://example.com/pricing"})
	require.Equal(t, StatusOK, out.Status, out.Reason)

	meta := out.Report.AnalysisMetadata
	assert.Equal(t, AuditTypeContextual, meta.AuditType)
	assert.Equal(t, "https://example.com/pricing", meta.PagesAnalyzed[0])
	assert.Contains(t, meta.PagesAnalyzed, "https://example.com/")
	assert.LessOrEqual(t, len(meta.PagesAnalyzed), 3)
	assert.Equal(t, 3, meta.DiscoveredPages)
	assert.True(t, meta.ImageAnalyzed)
	assert.Equal(t, "https://example.com/favicon.ico", meta.FaviconURL)
	assert.Equal(t, "https://example.com/pricing", out.Report.URL)
	assert.Equal(t, StatusOK, out.Report.Status)

	require.Len(t, analyzer.requests, 1)
	req := analyzer.requests[0]
	assert.Equal(t, []byte("jpeg"), req.Image)
	assert.Contains(t, req.Prompt, "Audited page 1 (https://example.com/pricing)")
	assert.Contains(t, req.Prompt, "- https://example.com/blog/post")
}

func TestAuditURLScreenshotFailureIsNotFatal(t *testing.T) {
	analyzer := &scriptedAnalyzer{}
	svc := newTestService(Config{}, Deps{
		Parser:      fakeParser{},
		Screenshots: fakeShots{enabled: true, err: errors.New("chrome crashed")},
		Analyzer:    analyzer,
	})

	out := svc.AuditURL(context.Background(), Request{URL: "https://example.com"})
	require.Equal(t, StatusOK, out.Status)
	assert.False(t, out.Report.AnalysisMetadata.ImageAnalyzed)
	assert.Empty(t, analyzer.requests[0].Image)
}

func TestAuditURLUsesDiscoveredLinksWhenSitemapMissing(t *testing.T) {
	analyzer := &scriptedAnalyzer{}
	svc := newTestService(Config{LinkDiscovery: true}, Deps{
		Parser:   fakeParser{},
		Links:    fakeLinks{links: []string{"https://example.com/", "https://example.com/about"}},
		Analyzer: analyzer,
	})

	out := svc.AuditURL(context.Background(), Request{URL: "https://example.com/contact"})
	require.Equal(t, StatusOK, out.Status)
	assert.Equal(t, 3, out.Report.AnalysisMetadata.DiscoveredPages)
	assert.Contains(t, out.Report.AnalysisMetadata.PagesAnalyzed, "https://example.com/")
}

func TestAuditURLFallsBackToBaseline(t *testing.T) {
	analyzer := &scriptedAnalyzer{results: []error{errors.New("upstream 500")}}
	svc := newTestService(Config{}, Deps{Parser: fakeParser{}, Analyzer: analyzer})

	out := svc.AuditURL(context.Background(), Request{URL: "https://example.com"})
	require.Equal(t, StatusDegraded, out.Status)
	assert.Contains(t, out.Reason, "upstream 500")
	assert.Equal(t, AuditTypeBaseline, out.Report.AnalysisMetadata.AuditType)
	assert.Equal(t, []string{"https://example.com"}, out.Report.AnalysisMetadata.PagesAnalyzed)
	assert.Equal(t, StatusDegraded, out.Report.Status)

	require.Len(t, analyzer.requests, 2)
	assert.Contains(t, analyzer.requests[1].Prompt, "# Heading")
}

func TestAuditURLTargetFailureFallsBack(t *testing.T) {
	analyzer := &scriptedAnalyzer{}
	svc := newTestService(Config{}, Deps{Parser: fakeParser{failTarget: true}, Analyzer: analyzer})

	out := svc.AuditURL(context.Background(), Request{URL: "https://example.com"})
	require.Equal(t, StatusDegraded, out.Status)
	assert.Contains(t, out.Reason, "connection refused")
	assert.Len(t, analyzer.requests, 1)
}

func TestAuditURLFailsWhenEverythingFails(t *testing.T) {
	analyzer := &scriptedAnalyzer{results: []error{ai.ErrRateLimited, ai.ErrRateLimited}}
	svc := newTestService(Config{}, Deps{Parser: fakeParser{}, Analyzer: analyzer})

	out := svc.AuditURL(context.Background(), Request{URL: "https://example.com"})
	require.True(t, out.Failed())
	assert.Nil(t, out.Report)
	assert.True(t, errors.Is(out.Err, ai.ErrRateLimited))
}

func TestAuditURLDemoFallbackIsDegraded(t *testing.T) {
	analyzer := &scriptedAnalyzer{results: []error{ai.ErrInvalidJSON, ai.ErrInvalidJSON}}
	svc := newTestService(Config{DemoFallback: true}, Deps{Parser: fakeParser{}, Analyzer: analyzer})

	out := svc.AuditURL(context.Background(), Request{URL: "https://example.com"})
	require.Equal(t, StatusDegraded, out.Status)
	assert.Equal(t, AuditTypeDemo, out.Report.AnalysisMetadata.AuditType)
	assert.True(t, strings.HasPrefix(out.Reason, "AI analysis unavailable"))
}

func TestAuditURLUnreachableTargetKeepsSiteContext(t *testing.T) {
	analyzer := &scriptedAnalyzer{}
	svc := newTestService(Config{}, Deps{
		Sitemaps: fakeSitemaps{urls: []crawler.SitemapURL{
			{URL: "https://example.com/", Priority: 1},
			{URL: "https://example.com/pricing/team", Priority: 0.9},
		}},
		Parser:   fakeParser{failTarget: true},
		Analyzer: analyzer,
	})

	out := svc.AuditURL(context.Background(), Request{URL: "https://example.com/pricing"})
	require.False(t, out.Failed(), out.Reason)
	assert.Equal(t, StatusOK, out.Status)
	assert.Equal(t, AuditTypeContextual, out.Report.AnalysisMetadata.AuditType)

	require.Len(t, analyzer.requests, 1)
	prompt := analyzer.requests[0].Prompt
	assert.Contains(t, prompt, "connection refused")
	assert.Contains(t, prompt, "Title of https://example.com/")
	assert.Equal(t, "https://example.com/pricing", out.Report.AnalysisMetadata.PagesAnalyzed[0])
}

func TestAuditURLFailsWhenNoPageIsReachable(t *testing.T) {
	analyzer := &scriptedAnalyzer{}
	svc := newTestService(Config{}, Deps{
		Sitemaps: fakeSitemaps{urls: []crawler.SitemapURL{
			{URL: "https://example.com/", Priority: 1},
			{URL: "https://example.com/pricing/team", Priority: 0.9},
		}},
		Parser:   fakeParser{failAll: true},
		Analyzer: analyzer,
	})

	out := svc.AuditURL(context.Background(), Request{URL: "https://example.com/pricing"})
	require.True(t, out.Failed())
	assert.Empty(t, analyzer.requests)
}

func TestAuditURLRequiresURL(t *testing.T) {
	svc := newTestService(Config{}, Deps{Parser: fakeParser{}})
	out := svc.AuditURL(context.Background(), Request{})
	assert.True(t, errors.Is(out.Err, ErrMissingURL))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(64, 32, color.White)))
	return buf.Bytes()
}

func TestAuditImage(t *testing.T) {
	analyzer := &scriptedAnalyzer{}
	svc := newTestService(Config{}, Deps{Parser: fakeParser{}, Analyzer: analyzer})

	out := svc.AuditImage(context.Background(), Request{Image: pngBytes(t), ImageMIME: "image/png"})
	require.Equal(t, StatusOK, out.Status, out.Reason)
	assert.Equal(t, AuditTypeImage, out.Report.AnalysisMetadata.AuditType)
	assert.True(t, out.Report.AnalysisMetadata.ImageAnalyzed)
	assert.Empty(t, out.Report.AnalysisMetadata.PagesAnalyzed)

	require.Len(t, analyzer.requests, 1)
	assert.Equal(t, "image/jpeg", analyzer.requests[0].ImageMIME)
	assert.Contains(t, analyzer.requests[0].Prompt, "attached screenshot")
}

func TestAuditImageValidation(t *testing.T) {
	svc := newTestService(Config{}, Deps{Parser: fakeParser{}})

	out := svc.AuditImage(context.Background(), Request{})
	assert.True(t, errors.Is(out.Err, ErrMissingImage))

	out = svc.AuditImage(context.Background(), Request{Image: []byte("not an image")})
	assert.True(t, errors.Is(out.Err, ErrInvalidImage))
}
