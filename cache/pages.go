package cache

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

var ErrCacheDisabled = errors.New("page cache disabled")

// PageStore keeps fetched HTML on disk keyed by URL so repeat audits of the
// same site skip the network.
type PageStore struct {
	cacheDir string
	ttl      time.Duration
	enabled  bool
	now      func() time.Time
}

type PageEntry struct {
	URL         string            `json:"url"`
	Body        string            `json:"body"`
	Headers     map[string]string `json:"headers"`
	CachedAt    time.Time         `json:"cached_at"`
	ContentHash string            `json:"content_hash"`
	Size        int               `json:"size"`
}

type PageStats struct {
	Enabled      bool    `json:"enabled"`
	CacheDir     string  `json:"cacheDir,omitempty"`
	TTLHours     float64 `json:"ttlHours,omitempty"`
	TotalFiles   int     `json:"totalFiles"`
	TotalSize    int64   `json:"totalSize"`
	ExpiredFiles int     `json:"expiredFiles"`
}

func NewPageStore(cacheDir string, ttl time.Duration, enabled bool) (*PageStore, error) {
	if enabled && cacheDir == "" {
		enabled = false
	}
	if enabled {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	return &PageStore{
		cacheDir: cacheDir,
		ttl:      ttl,
		enabled:  enabled,
		now:      time.Now,
	}, nil
}

func (ps *PageStore) Enabled() bool {
	return ps != nil && ps.enabled
}

func (ps *PageStore) key(url string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(url)))
}

func (ps *PageStore) path(url string) string {
	return filepath.Join(ps.cacheDir, ps.key(url)+".json")
}

// Get returns a cached page that has not expired.
func (ps *PageStore) Get(url string) (*PageEntry, bool) {
	if !ps.Enabled() {
		return nil, false
	}

	data, err := os.ReadFile(ps.path(url))
	if err != nil {
		return nil, false
	}

	var entry PageEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if ps.now().Sub(entry.CachedAt) >= ps.ttl {
		return nil, false
	}
	return &entry, true
}

func (ps *PageStore) Put(url, body string, headers map[string]string) error {
	if !ps.Enabled() {
		return ErrCacheDisabled
	}

	entry := PageEntry{
		URL:         url,
		Body:        body,
		Headers:     headers,
		CachedAt:    ps.now(),
		ContentHash: fmt.Sprintf("%x", md5.Sum([]byte(body))),
		Size:        len(body),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	tmp := ps.path(url) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, ps.path(url))
}

func (ps *PageStore) Stats() PageStats {
	if !ps.Enabled() {
		return PageStats{}
	}

	stats := PageStats{
		Enabled:  true,
		CacheDir: ps.cacheDir,
		TTLHours: ps.ttl.Hours(),
	}

	_ = filepath.WalkDir(ps.cacheDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		if info, err := d.Info(); err == nil {
			stats.TotalFiles++
			stats.TotalSize += info.Size()
			if ps.now().Sub(info.ModTime()) > ps.ttl {
				stats.ExpiredFiles++
			}
		}
		return nil
	})

	return stats
}

// CleanExpired removes entries older than the TTL and reports how many went.
func (ps *PageStore) CleanExpired() (int, error) {
	if !ps.Enabled() {
		return 0, nil
	}

	cleaned := 0
	err := filepath.WalkDir(ps.cacheDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		if info, err := d.Info(); err == nil && ps.now().Sub(info.ModTime()) > ps.ttl {
			if err := os.Remove(path); err == nil {
				cleaned++
			}
		}
		return nil
	})
	return cleaned, err
}
