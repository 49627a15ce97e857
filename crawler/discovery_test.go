package crawler

import (
	"net/url"
	"testing"
)

func TestIsPageURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://ex.com/", true},
		{"https://ex.com/about", true},
		{"https://ex.com/logo.png", false},
		{"https://ex.com/app.js?v=2", false},
		{"https://ex.com/static/page", false},
		{"https://ex.com/docs/v1.2/intro", true},
	}

	for _, tt := range tests {
		if got := isPageURL(tt.url); got != tt.want {
			t.Errorf("isPageURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestShouldSkipURL(t *testing.T) {
	for _, href := range []string{"", "#top", "mailto:a@b.c", "tel:123", "javascript:void(0)", "/file.pdf"} {
		if !shouldSkipURL(href) {
			t.Errorf("shouldSkipURL(%q) = false, want true", href)
		}
	}
	if shouldSkipURL("/pricing") {
		t.Error("shouldSkipURL(/pricing) = true, want false")
	}
}

func TestIsSameDomain(t *testing.T) {
	base, _ := url.Parse("https://www.ex.com")
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.ex.com/a", true},
		{"https://ex.com/a", true},
		{"http://EX.com:8080/a", true},
		{"https://blog.ex.com/a", false},
		{"ftp://ex.com/a", false},
	}

	for _, tt := range tests {
		u, _ := url.Parse(tt.url)
		if got := isSameDomain(u, base); got != tt.want {
			t.Errorf("isSameDomain(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := map[string]string{
		"https://EX.com":        "https://ex.com/",
		"https://ex.com/a/":     "https://ex.com/a",
		"https://ex.com/a#frag": "https://ex.com/a",
		"https://ex.com/?q=1":   "https://ex.com/?q=1",
	}
	for in, want := range tests {
		if got := NormalizeURL(in); got != want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOrigin(t *testing.T) {
	u, err := origin("example.com/path?x=1")
	if err != nil {
		t.Fatalf("origin() error: %v", err)
	}
	if u.String() != "https://example.com" {
		t.Errorf("origin() = %q", u.String())
	}
	if _, err := origin("ftp://files.example.com"); err == nil {
		t.Error("origin() should reject non-http URLs")
	}
}
