package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"ux-auditor/ai"
	"ux-auditor/crawler"
	"ux-auditor/extract"
	"ux-auditor/logging"
	"ux-auditor/screenshot"
)

var (
	ErrMissingURL   = errors.New("url is required for url audit")
	ErrMissingImage = errors.New("image file is required for image audit")
	ErrInvalidImage = errors.New("uploaded file is not a supported image")
)

type SitemapSource interface {
	ExtractSitemap(ctx context.Context, baseURL string) []crawler.SitemapURL
}

type PageParser interface {
	ParsePage(ctx context.Context, pageURL string) (extract.PageContext, error)
	ParseMultiplePages(ctx context.Context, urls []string) []extract.PageContext
	PageMarkdown(ctx context.Context, pageURL string) (extract.PageContext, string, error)
}

type LinkSource interface {
	DiscoverLinks(ctx context.Context, pageURL string) ([]string, error)
}

type Screenshotter interface {
	Enabled() bool
	CaptureWebsite(ctx context.Context, url string) ([]byte, error)
}

type FaviconSource interface {
	Resolve(ctx context.Context, pageURL string) (string, bool)
}

type Analyzer interface {
	Analyze(ctx context.Context, req ai.Request) (*ai.Response, error)
}

type Config struct {
	TokenBudget   int
	MaxPages      int
	Timeout       time.Duration
	DemoFallback  bool
	LinkDiscovery bool
}

// Deps wires the collaborators. Links, Screenshots and Favicons are optional.
type Deps struct {
	Sitemaps    SitemapSource
	Parser      PageParser
	Links       LinkSource
	Screenshots Screenshotter
	Favicons    FaviconSource
	Analyzer    Analyzer
}

type Request struct {
	URL       string
	Image     []byte
	ImageMIME string
	Context   ai.AuditContext
}

// Service runs contextual audits and falls back to the single-page baseline
// audit when the contextual pipeline fails.
type Service struct {
	config Config
	deps   Deps
	logger *log.Logger
}

func NewService(config Config, deps Deps, logger *log.Logger) *Service {
	if config.TokenBudget <= 0 {
		config.TokenBudget = extract.DefaultTokenBudget
	}
	if config.MaxPages <= 0 {
		config.MaxPages = crawler.MaxSelectedPages
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		config: config,
		deps:   deps,
		logger: logger.With("component", "audit"),
	}
}

// gathered holds the results of the independent fan-out tasks. Each field
// has a usable zero value when its task failed.
type gathered struct {
	sitemap   []crawler.SitemapURL
	target    extract.PageContext
	targetErr error
	image     []byte
	favicon   string
}

func (s *Service) AuditURL(ctx context.Context, req Request) Outcome {
	if req.URL == "" {
		return Failed(ErrMissingURL)
	}
	start := time.Now()
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	s.logger.Info("Starting contextual audit", "url", req.URL)
	g := s.gather(ctx, req)

	report, err := s.contextual(ctx, req, g)
	if err == nil {
		return Ok(s.finish(report, req.URL, start))
	}
	s.logger.Warn("Contextual audit failed, falling back to single page", "url", req.URL, "err", err)

	report, baseErr := s.baseline(ctx, req.URL, g.image, req.Context, AuditTypeBaseline)
	if baseErr == nil {
		report.AnalysisMetadata.FaviconURL = g.favicon
		return Degraded(s.finish(report, req.URL, start), "contextual analysis failed: "+err.Error())
	}
	return s.failure(req.URL, baseErr, start)
}

// AuditImage analyzes an uploaded screenshot without fetching anything.
func (s *Service) AuditImage(ctx context.Context, req Request) Outcome {
	if len(req.Image) == 0 {
		return Failed(ErrMissingImage)
	}
	start := time.Now()
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	img, err := screenshot.ProcessUploadedImage(req.Image)
	if err != nil {
		return Failed(fmt.Errorf("%w: %v", ErrInvalidImage, err))
	}

	s.logger.Info("Starting image audit", "bytes", len(img))
	report, err := s.baseline(ctx, "", img, req.Context, AuditTypeImage)
	if err != nil {
		return s.failure("", err, start)
	}
	return Ok(s.finish(report, "", start))
}

func (s *Service) gather(ctx context.Context, req Request) gathered {
	var g gathered
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		g.sitemap = s.deps.Sitemaps.ExtractSitemap(ctx, req.URL)
		return nil
	})
	eg.Go(func() error {
		g.target, g.targetErr = s.deps.Parser.ParsePage(ctx, req.URL)
		return nil
	})

	switch {
	case len(req.Image) > 0:
		g.image = req.Image
	case s.deps.Screenshots != nil && s.deps.Screenshots.Enabled():
		eg.Go(func() error {
			img, err := s.deps.Screenshots.CaptureWebsite(ctx, req.URL)
			if err != nil {
				s.logger.Warn("Screenshot failed, continuing text only", "url", req.URL, "err", err)
				return nil
			}
			g.image = img
			return nil
		})
	}

	if s.deps.Favicons != nil {
		eg.Go(func() error {
			g.favicon, _ = s.deps.Favicons.Resolve(ctx, req.URL)
			return nil
		})
	}

	_ = eg.Wait()
	return g
}

func (s *Service) contextual(ctx context.Context, req Request, g gathered) (*AuditData, error) {
	if g.targetErr != nil {
		s.logger.Warn("Audited page unreachable, continuing with site context", "url", req.URL, "err", g.targetErr)
	}

	candidates := g.sitemap
	if crawler.IsFallback(candidates, req.URL) && s.config.LinkDiscovery && s.deps.Links != nil {
		links, err := s.deps.Links.DiscoverLinks(ctx, req.URL)
		if err != nil {
			s.logger.Debug("Link discovery failed", "url", req.URL, "err", err)
		} else if len(links) > 0 {
			candidates = append(candidates, crawler.AsSitemap(links)...)
		}
	}

	selected := crawler.OptimalPageSelection(candidates, req.URL, s.config.MaxPages)
	pages := []extract.PageContext{g.target}
	if len(selected) > 1 {
		pages = append(pages, s.deps.Parser.ParseMultiplePages(ctx, selected[1:])...)
	}
	if !anyParsed(pages) && len(g.image) == 0 {
		if g.targetErr != nil {
			return nil, fmt.Errorf("no page content to analyze: %w", g.targetErr)
		}
		return nil, errors.New("no page content to analyze")
	}
	pages = extract.OptimizeForTokens(pages, s.config.TokenBudget)

	sitemapURLs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		sitemapURLs = append(sitemapURLs, c.URL)
	}

	prompt := ai.BuildContextualPrompt(ai.ContextualPromptInput{
		AuditURL: req.URL,
		Sitemap:  sitemapURLs,
		Pages:    pages,
		HasImage: len(g.image) > 0,
		Context:  req.Context,
	})
	s.logger.Debug("Contextual prompt built", "pages", len(pages), "sitemap", len(sitemapURLs), "tokens", extract.EstimateTokens(prompt))

	resp, err := s.deps.Analyzer.Analyze(ctx, ai.Request{
		System:    ai.SystemPrompt,
		Prompt:    prompt,
		Image:     g.image,
		ImageMIME: imageMIME(req),
	})
	if err != nil {
		return nil, err
	}

	analyzed := make([]string, 0, len(pages))
	for _, p := range pages {
		analyzed = append(analyzed, p.URL)
	}
	return Normalize(resp.Raw, Metadata{
		Model:           resp.Model,
		PagesAnalyzed:   analyzed,
		DiscoveredPages: len(candidates),
		AuditType:       AuditTypeContextual,
		ImageAnalyzed:   len(g.image) > 0 && !resp.ImageDropped,
		FaviconURL:      g.favicon,
	})
}

func anyParsed(pages []extract.PageContext) bool {
	for _, p := range pages {
		if p.Error == "" {
			return true
		}
	}
	return false
}

func (s *Service) baseline(ctx context.Context, pageURL string, image []byte, actx ai.AuditContext, auditType string) (*AuditData, error) {
	in := ai.BaselinePromptInput{URL: pageURL, HasImage: len(image) > 0, Context: actx}
	if pageURL != "" {
		page, markdown, err := s.deps.Parser.PageMarkdown(ctx, pageURL)
		if err != nil {
			s.logger.Warn("Could not fetch page for baseline audit", "url", pageURL, "err", err)
		} else {
			in.Page = &page
			in.Markdown = markdown
		}
	}
	if in.Page == nil && len(image) == 0 {
		return nil, fmt.Errorf("nothing to analyze for %s: page unreachable and no screenshot", pageURL)
	}

	resp, err := s.deps.Analyzer.Analyze(ctx, ai.Request{
		System:    ai.SystemPrompt,
		Prompt:    ai.BuildBaselinePrompt(in),
		Image:     image,
		ImageMIME: "image/jpeg",
	})
	if err != nil {
		return nil, err
	}

	meta := Metadata{
		Model:         resp.Model,
		AuditType:     auditType,
		ImageAnalyzed: len(image) > 0 && !resp.ImageDropped,
	}
	if pageURL != "" {
		meta.PagesAnalyzed = []string{pageURL}
		meta.DiscoveredPages = 1
	}
	return Normalize(resp.Raw, meta)
}

func (s *Service) failure(pageURL string, err error, start time.Time) Outcome {
	s.logger.Error("Audit failed", "url", pageURL, "err", err)
	if s.config.DemoFallback {
		return Degraded(DemoReport(pageURL, time.Since(start)), "AI analysis unavailable: "+err.Error())
	}
	return Failed(err)
}

func (s *Service) finish(report *AuditData, pageURL string, start time.Time) *AuditData {
	report.URL = pageURL
	report.AnalysisMetadata.ProcessingTime = time.Since(start).Milliseconds()
	s.logger.Info("Audit complete",
		"url", pageURL,
		"type", report.AnalysisMetadata.AuditType,
		"model", report.AnalysisMetadata.Model,
		"score", report.Scores.Overall.Percentage,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return report
}

func imageMIME(req Request) string {
	if len(req.Image) > 0 && req.ImageMIME != "" {
		return req.ImageMIME
	}
	return "image/jpeg"
}
