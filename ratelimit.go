package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// RateLimiter bounds attempts per identifier within a fixed window.
type RateLimiter interface {
	// Allow counts an attempt and reports whether it is within maxAttempts
	// for the current window.
	Allow(ctx context.Context, identifier string, maxAttempts int, window time.Duration) (bool, error)
	// Reset clears the identifier's window early.
	Reset(ctx context.Context, identifier string) error
}

type rateEntry struct {
	count   int
	resetAt time.Time
}

// MemoryRateLimiter keeps counters in process memory. Limits do not
// aggregate across service instances, use RedisRateLimiter for that.
//
// Allow also drops lapsed entries, at most once per window, so the map
// stays bounded without a janitor.
type MemoryRateLimiter struct {
	mu        sync.Mutex
	entries   map[string]rateEntry
	now       func() time.Time
	nextSweep time.Time
}

var _ RateLimiter = (*MemoryRateLimiter)(nil)

// MemoryRateLimiterOption customizes a MemoryRateLimiter.
type MemoryRateLimiterOption func(*MemoryRateLimiter)

// WithRateLimiterClock injects a custom clock (useful for tests).
func WithRateLimiterClock(clock func() time.Time) MemoryRateLimiterOption {
	return func(m *MemoryRateLimiter) {
		if clock != nil {
			m.now = clock
		}
	}
}

// NewMemoryRateLimiter returns an empty in-process limiter.
func NewMemoryRateLimiter(opts ...MemoryRateLimiterOption) *MemoryRateLimiter {
	m := &MemoryRateLimiter{
		entries: make(map[string]rateEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Allow implements RateLimiter. It never returns an error.
func (m *MemoryRateLimiter) Allow(_ context.Context, identifier string, maxAttempts int, window time.Duration) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if now.After(m.nextSweep) {
		m.sweepLocked(now)
		m.nextSweep = now.Add(window)
	}

	entry, ok := m.entries[identifier]
	if !ok || now.After(entry.resetAt) {
		m.entries[identifier] = rateEntry{count: 1, resetAt: now.Add(window)}
		return maxAttempts >= 1, nil
	}

	entry.count++
	m.entries[identifier] = entry

	return entry.count <= maxAttempts, nil
}

// Reset implements RateLimiter.
func (m *MemoryRateLimiter) Reset(_ context.Context, identifier string) error {
	m.mu.Lock()
	delete(m.entries, identifier)
	m.mu.Unlock()
	return nil
}

// Sweep drops entries whose window has lapsed and returns how many were
// removed. Lapsed entries are already treated as fresh by Allow, this only
// bounds memory.
func (m *MemoryRateLimiter) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.sweepLocked(now)
}

func (m *MemoryRateLimiter) sweepLocked(now time.Time) int {
	removed := 0
	for id, entry := range m.entries {
		if now.After(entry.resetAt) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identifiers.
func (m *MemoryRateLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// RunJanitor sweeps every interval until ctx is done.
func (m *MemoryRateLimiter) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// LoginRateLimitKey keys login attempts by origin address and account so a
// shared NAT address does not lock out every account behind it.
func LoginRateLimitKey(origin OriginMeta, email string) string {
	account := strings.ToLower(strings.TrimSpace(email))
	addr := strings.TrimSpace(origin.IPAddress)
	if addr == "" {
		addr = "unknown"
	}
	return "login:" + addr + ":" + account
}
