package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitorLimiters keys a per-client token bucket by remote address, the
// same coarse per-IP scheme the teacher's edge rate limiter uses ahead of
// its RBAC/auth middleware.
type visitorLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newVisitorLimiters(rps float64, burst int) *visitorLimiters {
	return &visitorLimiters{limiters: make(map[string]*rate.Limiter), rps: rate.Limit(rps), burst: burst}
}

func (v *visitorLimiters) get(key string) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()
	l, ok := v.limiters[key]
	if !ok {
		l = rate.NewLimiter(v.rps, v.burst)
		v.limiters[key] = l
	}
	return l
}

// RateLimit bounds requests per client IP using golang.org/x/time/rate,
// matching spec.md §1's "rate limiting... standard and uninteresting" but
// still a concern a complete API edge carries.
func RateLimit(requestsPerSecond float64, burst int) gin.HandlerFunc {
	v := newVisitorLimiters(requestsPerSecond, burst)
	return func(c *gin.Context) {
		if !v.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
