package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle is a hard per-IP request limiter sitting in front of the
// submission endpoint. It guards the process itself and is distinct from the
// windowed business-level rate limiter inside the ingestion pipeline.
type Throttle struct {
	count      int
	window     time.Duration
	trustProxy bool

	mu      sync.Mutex
	clients map[string]*throttleClient
}

type throttleClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewThrottle(count int, window time.Duration, trustProxy bool) *Throttle {
	t := &Throttle{
		count:      count,
		window:     window,
		trustProxy: trustProxy,
		clients:    make(map[string]*throttleClient),
	}
	go t.gc()
	return t
}

func (t *Throttle) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := GetRealIP(r, t.trustProxy)

		t.mu.Lock()
		cli, found := t.clients[ip]
		if !found {
			limit := rate.Limit(float64(t.count) / t.window.Seconds())
			cli = &throttleClient{limiter: rate.NewLimiter(limit, t.count)}
			t.clients[ip] = cli
		}
		cli.lastSeen = time.Now()
		limiter := cli.limiter
		t.mu.Unlock()

		if !limiter.Allow() {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// gc drops clients idle for more than two windows.
func (t *Throttle) gc() {
	for {
		time.Sleep(5 * time.Minute)
		t.mu.Lock()
		now := time.Now()
		for ip, c := range t.clients {
			if now.Sub(c.lastSeen) > 2*t.window+10*time.Minute {
				delete(t.clients, ip)
			}
		}
		t.mu.Unlock()
	}
}
