package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

// stubCounterStore is an in-memory CounterStore with injectable failures.
type stubCounterStore struct {
	data    map[string][]byte
	getErr  error
	putErr  error
	putTTLs []time.Duration
}

func newStubCounterStore() *stubCounterStore {
	return &stubCounterStore{data: map[string][]byte{}}
}

func (s *stubCounterStore) GetCounter(_ context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.data[key], nil
}

func (s *stubCounterStore) PutCounter(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.data[key] = value
	s.putTTLs = append(s.putTTLs, ttl)
	return nil
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	store := newStubCounterStore()
	l := NewRateLimiter(store, 3, time.Hour, true)
	start := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	l.now = fixedClock(start)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d := l.Check(ctx, "1.2.3.4")
		if !d.Allowed {
			t.Fatalf("request %d denied", i+1)
		}
		if d.Remaining != 3-(i+1) {
			t.Fatalf("request %d remaining = %d, want %d", i+1, d.Remaining, 3-(i+1))
		}
	}

	d := l.Check(ctx, "1.2.3.4")
	if d.Allowed {
		t.Fatalf("4th request allowed past limit")
	}
	if d.Remaining != 0 {
		t.Fatalf("denied remaining = %d", d.Remaining)
	}
	if want := start.Add(time.Hour); !d.ResetAt.Equal(want) {
		t.Fatalf("denied resetAt = %v, want %v", d.ResetAt, want)
	}
}

func TestRateLimiterDenialLeavesCounterAlone(t *testing.T) {
	store := newStubCounterStore()
	l := NewRateLimiter(store, 1, time.Hour, true)
	l.now = fixedClock(time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	l.Check(ctx, "client")
	writes := len(store.putTTLs)
	l.Check(ctx, "client")
	if len(store.putTTLs) != writes {
		t.Fatalf("denied request wrote to the store")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	store := newStubCounterStore()
	l := NewRateLimiter(store, 1, time.Hour, true)
	start := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	l.now = fixedClock(start)
	ctx := context.Background()

	if d := l.Check(ctx, "client"); !d.Allowed {
		t.Fatalf("first request denied")
	}
	if d := l.Check(ctx, "client"); d.Allowed {
		t.Fatalf("second request in window allowed")
	}

	l.now = fixedClock(start.Add(time.Hour + time.Second))
	d := l.Check(ctx, "client")
	if !d.Allowed {
		t.Fatalf("request after window expiry denied")
	}
	if d.Remaining != 0 {
		t.Fatalf("fresh window remaining = %d, want 0", d.Remaining)
	}
}

func TestRateLimiterFailOpen(t *testing.T) {
	store := newStubCounterStore()
	store.getErr = errors.New("kv down")
	l := NewRateLimiter(store, 1, time.Hour, true)
	if d := l.Check(context.Background(), "client"); !d.Allowed {
		t.Fatalf("store failure blocked a request with fail-open set")
	}

	store.getErr = nil
	store.putErr = errors.New("kv down")
	if d := l.Check(context.Background(), "client"); !d.Allowed {
		t.Fatalf("write failure blocked a request with fail-open set")
	}
}

func TestRateLimiterFailClosed(t *testing.T) {
	store := newStubCounterStore()
	store.getErr = errors.New("kv down")
	l := NewRateLimiter(store, 1, time.Hour, false)
	if d := l.Check(context.Background(), "client"); d.Allowed {
		t.Fatalf("store failure allowed a request with fail-open unset")
	}
}

func TestRateLimiterMissingStoreOrClient(t *testing.T) {
	l := NewRateLimiter(nil, 1, time.Hour, true)
	if d := l.Check(context.Background(), "client"); !d.Allowed {
		t.Fatalf("nil store blocked a request")
	}

	l = NewRateLimiter(newStubCounterStore(), 1, time.Hour, true)
	if d := l.Check(context.Background(), ""); !d.Allowed {
		t.Fatalf("empty client id blocked a request")
	}
}

func TestRateLimiterCorruptCounterResets(t *testing.T) {
	store := newStubCounterStore()
	l := NewRateLimiter(store, 2, time.Hour, true)
	l.now = fixedClock(time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	store.data[rateLimitKey("client")] = []byte("garbage")
	d := l.Check(ctx, "client")
	if !d.Allowed || d.Remaining != 1 {
		t.Fatalf("corrupt counter not reset: %+v", d)
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	store := newStubCounterStore()
	l := NewRateLimiter(store, 1, time.Hour, true)
	l.now = fixedClock(time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	l.Check(ctx, "alice")
	if d := l.Check(ctx, "alice"); d.Allowed {
		t.Fatalf("alice not limited")
	}
	if d := l.Check(ctx, "bob"); !d.Allowed {
		t.Fatalf("bob blocked by alice's counter")
	}
}
