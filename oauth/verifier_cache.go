package oauth

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultVerifierTTL is how long an authorization attempt may stay
	// outstanding before its PKCE verifier is discarded. Asana's consent
	// screen times out well within this window.
	DefaultVerifierTTL = 10 * time.Minute

	verifierSweepInterval = time.Minute
)

type verifierEntry struct {
	verifier  string
	createdAt time.Time
}

// VerifierCache maps an authorization flow's state parameter to the PKCE
// verifier generated at flow start. Entries are consumed exactly once at
// code-exchange time; abandoned entries expire after the TTL so the cache
// cannot grow without bound.
type VerifierCache struct {
	mu      sync.Mutex
	entries map[string]verifierEntry
	ttl     time.Duration
	nowTime func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// VerifierCacheOption configures a VerifierCache.
type VerifierCacheOption func(*VerifierCache)

// WithVerifierNowTime sets the clock function (primarily for testing).
func WithVerifierNowTime(nowFunc func() time.Time) VerifierCacheOption {
	return func(c *VerifierCache) {
		c.nowTime = nowFunc
	}
}

// NewVerifierCache creates a cache whose entries expire after ttl. A
// background sweep removes abandoned entries; call Stop to end it.
func NewVerifierCache(ttl time.Duration, options ...VerifierCacheOption) *VerifierCache {
	if ttl <= 0 {
		ttl = DefaultVerifierTTL
	}
	c := &VerifierCache{
		entries: make(map[string]verifierEntry),
		ttl:     ttl,
		nowTime: time.Now,
		stop:    make(chan struct{}),
	}
	for _, opt := range options {
		opt(c)
	}
	go c.sweepLoop()
	return c
}

// Put stores the verifier for a flow state, replacing any previous entry.
func (c *VerifierCache) Put(state, verifier string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[state] = verifierEntry{verifier: verifier, createdAt: c.nowTime()}
}

// Take removes and returns the verifier for a flow state. The second return
// is false when the state is unknown, already consumed, or expired — all of
// which a callback handler must treat as a failed flow.
func (c *VerifierCache) Take(state string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[state]
	if !ok {
		return "", false
	}
	delete(c.entries, state)

	if c.nowTime().Sub(entry.createdAt) > c.ttl {
		return "", false
	}
	return entry.verifier, true
}

// Len returns the number of outstanding entries.
func (c *VerifierCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stop ends the background sweep goroutine.
func (c *VerifierCache) Stop() {
	c.once.Do(func() { close(c.stop) })
}

func (c *VerifierCache) sweepLoop() {
	ticker := time.NewTicker(verifierSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *VerifierCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.nowTime()
	for state, entry := range c.entries {
		if now.Sub(entry.createdAt) > c.ttl {
			delete(c.entries, state)
			removed++
		}
	}
	if removed > 0 {
		log.Debug().Int("count", removed).Msg("swept expired pkce verifiers")
	}
}
