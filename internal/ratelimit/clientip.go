package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// UnknownKey is used when no client address can be determined.
const UnknownKey = "unknown"

// ClientIP returns the key used to rate limit r. Proxy headers are honoured
// only when trustProxy is set.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	if r.RemoteAddr == "" {
		return UnknownKey
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	if host == "" {
		return UnknownKey
	}
	return host
}
