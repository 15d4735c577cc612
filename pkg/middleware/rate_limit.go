package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/guestpost/guestpost/backend/go-services/internal/ratelimit"
	"github.com/guestpost/guestpost/backend/go-services/pkg/metrics"
	"golang.org/x/time/rate"
)

// requestKey prefers the signed-in subject, otherwise the client address.
func requestKey(c *gin.Context) string {
	if p := CurrentPrincipal(c); p != nil {
		return "sub:" + p.Subject
	}
	if v, ok := c.Get(claimsKey); ok {
		if cm, ok := v.(map[string]interface{}); ok {
			if sub, _ := cm["sub"].(string); sub != "" {
				return "sub:" + sub
			}
		}
	}
	ip := ratelimit.ClientID(c.Request)
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// RateLimitMiddleware enforces an in-memory token bucket per request key.
// This throttles request bursts; the per-day submission quota lives in ratelimit.Limiter.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	var buckets sync.Map // key -> *rate.Limiter
	return func(c *gin.Context) {
		v, _ := buckets.LoadOrStore(requestKey(c), rate.NewLimiter(rate.Limit(rps), burst))
		if !v.(*rate.Limiter).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Too many requests. Please slow down."})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
