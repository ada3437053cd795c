package engine

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache metrics: atomic counters shared by every Memo instance.
var (
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

// MemoConfig configures a Memo.
type MemoConfig struct {
	TTL         time.Duration        // 0 = entries live for the process lifetime
	MaxEntries  int                  // 0 = unbounded
	Clock       func() time.Time     // nil = time.Now
	CacheError  func(err error) bool // which load errors are memoized alongside values
	LoadTimeout time.Duration        // bounds a shared load; 0 = 2m
}

const defaultLoadTimeout = 2 * time.Minute

// Memo memoizes the result of an expensive load keyed by string.
// Concurrent loads of the same key collapse into one call, so each key is
// loaded at most once while its entry is alive.
type Memo[V any] struct {
	mu          sync.Mutex
	entries     map[string]*memoEntry[V]
	group       singleflight.Group
	ttl         time.Duration
	maxEntries  int
	now         func() time.Time
	cacheError  func(error) bool
	loadTimeout time.Duration
}

type memoEntry[V any] struct {
	value     V
	err       error
	storedAt  time.Time
	expiresAt time.Time // zero = never
}

// NewMemo builds an empty Memo.
func NewMemo[V any](c MemoConfig) *Memo[V] {
	m := &Memo[V]{
		entries:     make(map[string]*memoEntry[V]),
		ttl:         c.TTL,
		maxEntries:  c.MaxEntries,
		now:         c.Clock,
		cacheError:  c.CacheError,
		loadTimeout: c.LoadTimeout,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.loadTimeout <= 0 {
		m.loadTimeout = defaultLoadTimeout
	}
	return m
}

// CacheKey builds a deterministic cache key from parts.
func CacheKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("yc:%x", hash[:12])
}

// Do returns the memoized result for key, calling load on a miss.
// The shared load ignores caller cancellation and is bounded by LoadTimeout
// instead. A cancelled caller stops waiting; the others still get the result.
func (m *Memo[V]) Do(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, err, ok := m.lookup(key); ok {
		slog.Debug("memo: hit", slog.String("key", key))
		cacheHits.Add(1)
		return v, err
	}

	ch := m.group.DoChan(key, func() (any, error) {
		// A concurrent caller may have stored the entry while we waited.
		if v, err, ok := m.lookup(key); ok {
			return v, err
		}
		cacheMisses.Add(1)
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.loadTimeout)
		defer cancel()
		v, err := load(lctx)
		if err == nil || (m.cacheError != nil && m.cacheError(err)) {
			m.store(key, v, err)
		}
		return v, err
	})

	select {
	case res := <-ch:
		v, _ := res.Val.(V)
		return v, res.Err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Len reports the number of stored entries, expired ones included.
func (m *Memo[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memo[V]) lookup(key string) (V, error, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		var zero V
		return zero, nil, false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		var zero V
		return zero, nil, false
	}
	return e.value, e.err, true
}

func (m *Memo[V]) store(key string, v V, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictLocked()
	now := m.now()
	e := &memoEntry[V]{value: v, err: err, storedAt: now}
	if m.ttl > 0 {
		e.expiresAt = now.Add(m.ttl)
	}
	m.entries[key] = e
}

// evictLocked makes room for one more entry.
// Removes expired entries first, then oldest entries if still over limit.
func (m *Memo[V]) evictLocked() {
	if m.maxEntries <= 0 || len(m.entries) < m.maxEntries {
		return
	}

	now := m.now()
	for k, e := range m.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}

	for len(m.entries) >= m.maxEntries {
		var oldestKey string
		var oldestAt time.Time
		for k, e := range m.entries {
			if oldestKey == "" || e.storedAt.Before(oldestAt) {
				oldestKey, oldestAt = k, e.storedAt
			}
		}
		delete(m.entries, oldestKey)
	}
}

// RunCleanup periodically removes expired entries until ctx is done.
func (m *Memo[V]) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			now := m.now()
			for k, e := range m.entries {
				if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
					delete(m.entries, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

// CacheStats returns current cache hit/miss counters.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}
