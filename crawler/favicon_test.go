package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ux-auditor/cache"
)

type fakeProbe map[string]bool

func (f fakeProbe) Probe(ctx context.Context, pageURL string) bool { return f[pageURL] }

func TestFaviconResolverUsesLinkTagAndCaches(t *testing.T) {
	docs := &fakeDocs{pages: map[string]string{
		"https://ex.com/": `<html><head><link rel="icon" href="/img/icon.svg"></head></html>`,
	}}
	r := NewFaviconResolver(docs, fakeProbe{}, newIconCache(t), nil)

	icon, cached := r.Resolve(context.Background(), "https://ex.com/pricing")
	assert.Equal(t, "https://ex.com/img/icon.svg", icon)
	assert.False(t, cached)

	icon, cached = r.Resolve(context.Background(), "https://ex.com/other")
	assert.Equal(t, "https://ex.com/img/icon.svg", icon)
	assert.True(t, cached)
	assert.EqualValues(t, 1, docs.calls.Load())
}

func TestFaviconResolverFallbacks(t *testing.T) {
	probe := fakeProbe{"https://has-ico.com/favicon.ico": true}
	r := NewFaviconResolver(&fakeDocs{}, probe, newIconCache(t), nil)

	icon, _ := r.Resolve(context.Background(), "https://has-ico.com")
	assert.Equal(t, "https://has-ico.com/favicon.ico", icon)

	icon, _ = r.Resolve(context.Background(), "https://nothing.com/x")
	assert.Equal(t, GoogleFaviconURL("nothing.com"), icon)
}

func newIconCache(t *testing.T) *cache.TTL[string] {
	t.Helper()
	c, err := cache.NewTTL[string](time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

type blockingDocs struct{}

func (blockingDocs) FetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type blockingProbe struct{}

func (blockingProbe) Probe(ctx context.Context, pageURL string) bool {
	<-ctx.Done()
	return false
}

func TestFaviconResolverTimeout(t *testing.T) {
	r := NewFaviconResolver(blockingDocs{}, blockingProbe{}, newIconCache(t), nil).WithTimeout(50 * time.Millisecond)

	start := time.Now()
	icon, cached := r.Resolve(context.Background(), "https://slow.com/page")
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, GoogleFaviconURL("slow.com"), icon)
	assert.False(t, cached)
}
