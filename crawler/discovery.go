package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

var assetExtensions = map[string]bool{
	".js": true, ".css": true, ".json": true, ".xml": true, ".txt": true,
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".svg": true, ".webp": true, ".bmp": true, ".ico": true, ".tiff": true, ".avif": true,
	".mp4": true, ".avi": true, ".mov": true, ".wmv": true, ".flv": true, ".webm": true, ".mkv": true, ".m4v": true,
	".mp3": true, ".wav": true, ".ogg": true, ".aac": true, ".flac": true, ".m4a": true,
	".zip": true, ".rar": true, ".tar": true, ".gz": true, ".7z": true, ".bz2": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true, ".otf": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
}

var assetPatterns = []string{
	"/js/", "/css/", "/assets/", "/static/", "/files/",
	"/api/", "/webhook", "/callback",
	"/packs/", "/dist/", "/build/", "/node_modules/",
}

func shouldSkipURL(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	if lower == "" || strings.HasPrefix(lower, "#") || strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") || strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "ftp:") ||
		strings.Contains(lower, "void(0)") {
		return true
	}
	return !isPageURL(href)
}

// isPageURL rejects URLs that point at static assets rather than pages.
func isPageURL(urlString string) bool {
	lower := strings.ToLower(urlString)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}

	lastDot := strings.LastIndex(lower, ".")
	lastSlash := strings.LastIndex(lower, "/")
	if lastDot > lastSlash && assetExtensions[lower[lastDot:]] {
		return false
	}

	for _, pattern := range assetPatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}
	return true
}

func isSameDomain(urlToCheck, baseURL *url.URL) bool {
	if urlToCheck.Scheme != "http" && urlToCheck.Scheme != "https" {
		return false
	}

	checkHost := strings.ToLower(urlToCheck.Hostname())
	baseHost := strings.ToLower(baseURL.Hostname())

	if checkHost == baseHost {
		return true
	}
	if strings.HasPrefix(checkHost, "www.") && baseHost == checkHost[4:] {
		return true
	}
	if strings.HasPrefix(baseHost, "www.") && checkHost == baseHost[4:] {
		return true
	}
	return false
}

// origin returns scheme://host for rawURL, adding https:// when no scheme is given.
func origin(rawURL string) (*url.URL, error) {
	u, err := parseHTTPURL(rawURL)
	if err != nil {
		return nil, err
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}

func parseHTTPURL(rawURL string) (*url.URL, error) {
	raw := strings.TrimSpace(rawURL)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: need http(s) scheme and host", rawURL)
	}
	return u, nil
}

// NormalizeURL drops the fragment and a trailing slash on non-root paths so
// equal pages compare equal.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.TrimSpace(rawURL)
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Path == "" {
		u.Path = "/"
	}
	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		if u.Path == "" {
			u.Path = "/"
		}
	}
	return u.String()
}

func pathSegments(u *url.URL) []string {
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func firstSegment(u *url.URL) string {
	if segs := pathSegments(u); len(segs) > 0 {
		return strings.ToLower(segs[0])
	}
	return ""
}

func isRootPath(u *url.URL) bool {
	return u.Path == "" || u.Path == "/"
}
