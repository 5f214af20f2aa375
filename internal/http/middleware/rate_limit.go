package middleware

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yungbote/iterations-backend/internal/http/response"
)

const limiterIdleTTL = 10 * time.Minute

var errTooManyRequests = errors.New("too many requests")

type RateLimitConfig struct {
	PerMinute int
	Burst     int
	// KeyFunc picks the bucket for a request. Defaults to ClientKey.
	KeyFunc func(*gin.Context) string
}

type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type limiterSet struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	every    rate.Limit
	burst    int
	now      func() time.Time
}

func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	v, ok := s.visitors[key]
	if !ok {
		if len(s.visitors) >= 1024 {
			for k, old := range s.visitors {
				if now.Sub(old.lastSeen) > limiterIdleTTL {
					delete(s.visitors, k)
				}
			}
		}
		v = &visitor{lim: rate.NewLimiter(s.every, s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = now
	return v.lim
}

// RateLimit throttles requests per key with a token bucket. PerMinute <= 0 disables it.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.PerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.PerMinute
	}
	keyFn := cfg.KeyFunc
	if keyFn == nil {
		keyFn = ClientKey
	}
	set := &limiterSet{
		visitors: map[string]*visitor{},
		every:    rate.Every(time.Minute / time.Duration(cfg.PerMinute)),
		burst:    burst,
		now:      time.Now,
	}
	return func(c *gin.Context) {
		if !set.get(keyFn(c)).Allow() {
			c.Header("Retry-After", "60")
			response.RespondError(c, http.StatusTooManyRequests, "rate_limited", errTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ClientKey buckets by API key when one is sent in the query or header, else by client IP.
func ClientKey(c *gin.Context) string {
	if key := extractKey(c); key != "" {
		return "key:" + key
	}
	return "ip:" + c.ClientIP()
}

// ClientIP buckets by client IP only.
func ClientIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}
