package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"ux-auditor/config"
	"ux-auditor/middleware"
)

type Server struct {
	router   *gin.Engine
	http     *http.Server
	cfg      *config.Settings
	services *Services
	logger   *log.Logger
}

func NewServer(cfg *config.Settings, services *Services, logger *log.Logger) *Server {
	switch {
	case cfg.Env.GinMode != "":
		gin.SetMode(cfg.Env.GinMode)
	case cfg.IsProduction():
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.Server.MaxUploadBytes
	r.Use(
		middleware.RequestID(),
		middleware.AccessLog(logger),
		middleware.Recovery(logger, cfg.IsProduction()),
		middleware.CORS(allowedOrigins(cfg)),
	)

	return &Server{
		router:   r,
		cfg:      cfg,
		services: services,
		logger:   logger.With("component", "server"),
		http: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      r,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// allowedOrigins restricts CORS to the deployment URL in production on
// Vercel and allows any origin otherwise.
func allowedOrigins(cfg *config.Settings) []string {
	if cfg.IsProduction() && cfg.Env.VercelURL != "" {
		return []string{"https://" + cfg.Env.VercelURL}
	}
	return nil
}

func (s *Server) SetupRoutes() {
	limiter := middleware.NewRateLimiter(s.cfg.RateLimit.RequestsPerSecond, s.cfg.RateLimit.Burst)

	api := s.router.Group("/api")
	api.GET("/health", s.healthHandler)
	api.GET("/status", s.statusHandler)
	api.GET("/favicon", s.faviconHandler)
	api.GET("/case-studies", s.caseStudiesHandler)

	limited := api.Group("", limiter.RateLimit())
	limited.POST("/audit", s.auditHandler)
	limited.POST("/share-report", s.shareReportHandler)

	s.router.NoRoute(s.staticHandler(s.cfg.Server.StaticDir))
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down", "timeout", s.cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
