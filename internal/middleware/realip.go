package middleware

import (
	"net"
	"net/http"
	"strings"
)

// UnknownClient is the sentinel identifier used when no client address can
// be derived. All such clients share one rate-limit bucket.
const UnknownClient = "unknown"

// GetRealIP derives the client identifier used for rate limiting. Behind a
// trusted proxy the CF-Connecting-IP header wins, then the first
// X-Forwarded-For entry; otherwise the connection's remote address.
func GetRealIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if cf := r.Header.Get("CF-Connecting-IP"); cf != "" {
			return cf
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			return strings.TrimSpace(parts[0])
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return UnknownClient
	}
	return ip
}
