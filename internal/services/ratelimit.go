package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
)

// CounterStore is the expiring key-value store backing the rate limiter.
// GetCounter returns nil with no error when the key is absent.
type CounterStore interface {
	GetCounter(ctx context.Context, key string) ([]byte, error)
	PutCounter(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RateLimitDecision is the outcome of one consumed check.
type RateLimitDecision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// rateCounter is the persisted entry, one per client identifier.
type rateCounter struct {
	Count   int   `json:"count"`
	ResetAt int64 `json:"resetAt"` // unix milliseconds
}

// RateLimiter bounds submissions per client identifier within a rolling
// window. The read-modify-write against the store is not atomic; two
// concurrent requests from one client can both observe a stale count. That
// under-count is an accepted best-effort limitation.
type RateLimiter struct {
	store    CounterStore
	limit    int
	window   time.Duration
	failOpen bool
	now      func() time.Time
}

// NewRateLimiter builds a limiter. failOpen controls the policy on store
// errors: when true (the default deployment setting), a failing store never
// blocks a submission; when false, store errors deny instead.
func NewRateLimiter(store CounterStore, limit int, window time.Duration, failOpen bool) *RateLimiter {
	return &RateLimiter{
		store:    store,
		limit:    limit,
		window:   window,
		failOpen: failOpen,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func rateLimitKey(clientID string) string {
	return fmt.Sprintf("rate_limit:%016x", xxhash.Sum64String(clientID))
}

// Check consumes one slot for the client and reports whether the request is
// allowed, how many slots remain, and when the window resets.
func (l *RateLimiter) Check(ctx context.Context, clientID string) RateLimitDecision {
	now := l.now()
	open := RateLimitDecision{Allowed: true, Remaining: l.limit, ResetAt: now.Add(l.window)}

	// Missing infrastructure or identity never blocks legitimate traffic.
	if l.store == nil || clientID == "" {
		return open
	}

	key := rateLimitKey(clientID)
	raw, err := l.store.GetCounter(ctx, key)
	if err != nil {
		return l.storeFailure("read rate counter", err, open)
	}

	var c rateCounter
	known := raw != nil
	if known {
		if err := json.Unmarshal(raw, &c); err != nil {
			log.Warn().Err(err).Msg("rate limiter: corrupt counter, resetting")
			known = false
		}
	}

	// First contact, or the stored window already elapsed: start a fresh one.
	if !known || c.ResetAt < now.UnixMilli() {
		c = rateCounter{Count: 1, ResetAt: now.Add(l.window).UnixMilli()}
		if err := l.put(ctx, key, c, l.window); err != nil {
			return l.storeFailure("write rate counter", err, open)
		}
		return RateLimitDecision{Allowed: true, Remaining: l.limit - 1, ResetAt: time.UnixMilli(c.ResetAt)}
	}

	resetAt := time.UnixMilli(c.ResetAt)
	if c.Count >= l.limit {
		return RateLimitDecision{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}

	c.Count++
	// Re-apply the remaining window as TTL so the entry never outlives it.
	if err := l.put(ctx, key, c, resetAt.Sub(now)); err != nil {
		return l.storeFailure("update rate counter", err, open)
	}
	return RateLimitDecision{Allowed: true, Remaining: l.limit - c.Count, ResetAt: resetAt}
}

func (l *RateLimiter) put(ctx context.Context, key string, c rateCounter, ttl time.Duration) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return l.store.PutCounter(ctx, key, b, ttl)
}

func (l *RateLimiter) storeFailure(op string, err error, open RateLimitDecision) RateLimitDecision {
	log.Warn().Err(err).Str("op", op).Bool("fail_open", l.failOpen).
		Msg("rate limiter: store error")
	if l.failOpen {
		return open
	}
	return RateLimitDecision{Allowed: false, Remaining: 0, ResetAt: open.ResetAt}
}
