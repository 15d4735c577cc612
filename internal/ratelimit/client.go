package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// ClientID derives the submitting client's address: a valid Client-IP header,
// then the first X-Forwarded-For hop, then the connection address. Headers are
// caller-controlled, so the result identifies a client for throttling only.
func ClientID(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("Client-IP")); ip != "" && net.ParseIP(ip) != nil {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
