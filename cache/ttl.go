package cache

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

// TTL is an in-memory cache whose entries expire after a fixed duration.
// Entries live in bigcache, which evicts them once its life window passes.
// Each entry also carries its own deadline so reads honour the injected clock.
type TTL[V any] struct {
	ttl   time.Duration
	store *bigcache.BigCache
	now   func() time.Time
}

func NewTTL[V any](ttl time.Duration) (*TTL[V], error) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	clean := ttl
	if clean < time.Second {
		clean = time.Second
	}

	store, err := bigcache.New(context.Background(), bigcache.Config{
		Shards:             16,
		LifeWindow:         ttl,
		CleanWindow:        clean,
		MaxEntriesInWindow: 1024,
		MaxEntrySize:       256,
		Verbose:            false,
	})
	if err != nil {
		return nil, fmt.Errorf("create ttl cache: %w", err)
	}

	return &TTL[V]{ttl: ttl, store: store, now: time.Now}, nil
}

// WithClock replaces the time source. Tests use it to move past expiry.
func (c *TTL[V]) WithClock(now func() time.Time) *TTL[V] {
	c.now = now
	return c
}

func (c *TTL[V]) Get(key string) (V, bool) {
	var zero V

	raw, err := c.store.Get(key)
	if err != nil || len(raw) < 8 {
		return zero, false
	}

	deadline := time.Unix(0, int64(binary.BigEndian.Uint64(raw[:8])))
	if !c.now().Before(deadline) {
		_ = c.store.Delete(key)
		return zero, false
	}

	var value V
	if err := json.Unmarshal(raw[8:], &value); err != nil {
		return zero, false
	}
	return value, true
}

func (c *TTL[V]) Set(key string, value V) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	raw := make([]byte, 8, 8+len(data))
	binary.BigEndian.PutUint64(raw, uint64(c.now().Add(c.ttl).UnixNano()))
	_ = c.store.Set(key, append(raw, data...))
}

func (c *TTL[V]) Delete(key string) {
	_ = c.store.Delete(key)
}

func (c *TTL[V]) Clear() {
	_ = c.store.Reset()
}

func (c *TTL[V]) Len() int {
	return c.store.Len()
}

// Close stops the background eviction goroutine.
func (c *TTL[V]) Close() error {
	return c.store.Close()
}
