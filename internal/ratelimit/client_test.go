package ratelimit

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientID(t *testing.T) {
	cases := []struct {
		name     string
		clientIP string
		xff      string
		remote   string
		want     string
	}{
		{name: "remote addr", remote: "10.0.0.5:5123", want: "10.0.0.5"},
		{name: "forwarded first hop", xff: "198.51.100.2, 10.0.0.1", remote: "10.0.0.5:1", want: "198.51.100.2"},
		{name: "client-ip wins", clientIP: "203.0.113.9", xff: "198.51.100.2", remote: "10.0.0.5:1", want: "203.0.113.9"},
		{name: "invalid client-ip ignored", clientIP: "not-an-ip", xff: "198.51.100.2", remote: "10.0.0.5:1", want: "198.51.100.2"},
		{name: "ipv6 remote", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/submissions", nil)
			req.RemoteAddr = tc.remote
			if tc.clientIP != "" {
				req.Header.Set("Client-IP", tc.clientIP)
			}
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			assert.Equal(t, tc.want, ClientID(req))
		})
	}
}
