package main

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ux-auditor/ai"
	"ux-auditor/audit"
	"ux-auditor/delivery"
	"ux-auditor/middleware"
)

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "ux-auditor",
		"timestamp": time.Now().UTC(),
		"version":   version,
	})
}

func (s *Server) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"message":   "UX audit API is ready",
		"timestamp": time.Now().UTC(),
	})
}

// errorJSON writes {error, message}. message is omitted when empty.
func errorJSON(c *gin.Context, status int, errMsg, message string) {
	body := gin.H{"error": errMsg}
	if message != "" {
		body["message"] = message
	}
	c.AbortWithStatusJSON(status, body)
}

// normalizeAuditURL adds https:// when no scheme is given and requires an
// http(s) URL with a host.
func normalizeAuditURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return "", false
	}
	return u.String(), true
}

func (s *Server) auditHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.Server.MaxUploadBytes+1<<20)

	auditType := strings.ToLower(strings.TrimSpace(c.PostForm("type")))
	req := audit.Request{
		Context: ai.AuditContext{
			TargetAudience:     strings.TrimSpace(c.PostForm("targetAudience")),
			UserGoals:          strings.TrimSpace(c.PostForm("userGoals")),
			BusinessObjectives: strings.TrimSpace(c.PostForm("businessObjectives")),
		},
	}
	s.logger.Info("Audit requested",
		"type", auditType,
		"requestId", middleware.GetRequestID(c),
		"hasName", c.PostForm("name") != "",
		"hasEmail", c.PostForm("email") != "",
	)

	var outcome audit.Outcome
	switch auditType {
	case "url":
		raw := c.PostForm("url")
		if strings.TrimSpace(raw) == "" {
			errorJSON(c, http.StatusBadRequest, "URL is required for URL audit", "")
			return
		}
		u, ok := normalizeAuditURL(raw)
		if !ok {
			errorJSON(c, http.StatusBadRequest, "Invalid URL format", "")
			return
		}
		req.URL = u
		outcome = s.services.Auditor.AuditURL(c.Request.Context(), req)

	case "image":
		fh, err := c.FormFile("image")
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "Image file is required for image audit", "")
			return
		}
		if fh.Size > s.cfg.Server.MaxUploadBytes {
			errorJSON(c, http.StatusBadRequest, "Image file is too large", "")
			return
		}
		mime := fh.Header.Get("Content-Type")
		if mime != "" && !strings.HasPrefix(mime, "image/") {
			errorJSON(c, http.StatusBadRequest, "Only image files are allowed", "")
			return
		}
		f, err := fh.Open()
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "Could not read uploaded image", "")
			return
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, s.cfg.Server.MaxUploadBytes))
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "Could not read uploaded image", "")
			return
		}
		req.Image = data
		req.ImageMIME = mime
		outcome = s.services.Auditor.AuditImage(c.Request.Context(), req)

	default:
		errorJSON(c, http.StatusBadRequest, "Invalid audit type. Must be 'url' or 'image'", "")
		return
	}

	if outcome.Failed() {
		if errors.Is(outcome.Err, audit.ErrInvalidImage) {
			errorJSON(c, http.StatusBadRequest, "Invalid image file", outcome.Reason)
			return
		}
		errorJSON(c, http.StatusInternalServerError, "Analysis failed", outcome.Reason)
		return
	}
	c.JSON(http.StatusOK, outcome.Report)
}

func (s *Server) shareReportHandler(c *gin.Context) {
	var req delivery.ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	res, err := s.services.Sharer.Share(c.Request.Context(), req)
	switch {
	case errors.Is(err, delivery.ErrInvalidShareRequest):
		errorJSON(c, http.StatusBadRequest, strings.TrimPrefix(err.Error(), delivery.ErrInvalidShareRequest.Error()+": "), "")
		return
	case err != nil:
		errorJSON(c, http.StatusInternalServerError, "Failed to send report", err.Error())
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) faviconHandler(c *gin.Context) {
	raw := c.Query("url")
	u, ok := normalizeAuditURL(raw)
	if !ok {
		errorJSON(c, http.StatusBadRequest, "A valid url query parameter is required", "")
		return
	}
	icon, cached := s.services.Favicons.Resolve(c.Request.Context(), u)
	c.JSON(http.StatusOK, gin.H{"url": u, "favicon": icon, "cached": cached})
}

func (s *Server) caseStudiesHandler(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	studies := audit.MatchCaseStudies(audit.CaseStudyQuery{
		Industry: c.Query("industry"),
		Text:     c.Query("q"),
	}, limit)
	c.JSON(http.StatusOK, gin.H{"caseStudies": studies, "count": len(studies)})
}
